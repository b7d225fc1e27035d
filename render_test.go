// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"reflect"
	"text/template"

	"github.com/CloudyKit/jet/v6"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("renderer", func() {
	Describe("containsTemplate", func() {
		It("Should detect template syntax with default delimiters", func() {
			r := &renderer{}
			Expect(r.containsTemplate("hello {{ name }}")).To(BeTrue())
			Expect(r.containsTemplate("hello world")).To(BeFalse())
		})

		It("Should honor custom delimiters", func() {
			r := &renderer{left: "<<", right: ">>"}
			Expect(r.containsTemplate("hello << name >>")).To(BeTrue())
			Expect(r.containsTemplate("hello {{ name }}")).To(BeFalse())
		})
	})

	Describe("Jet engine", func() {
		It("Should resolve bare variable identifiers", func() {
			r := &renderer{engine: engineJet}

			out, err := r.renderString("t", "package {{ packageName }} v{{ version }}", map[string]any{
				"packageName": "@x/demo",
				"version":     2,
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("package @x/demo v2"))
		})

		It("Should pass strings without template syntax through untouched", func() {
			r := &renderer{engine: engineJet}

			out, err := r.renderString("t", "no placeholders here", nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("no placeholders here"))
		})

		It("Should support custom delimiters", func() {
			r := &renderer{engine: engineJet, left: "<<", right: ">>"}

			out, err := r.renderString("t", "hello << name >>", map[string]any{"name": "bob"})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("hello bob"))
		})

		It("Should support custom functions", func() {
			funcs := map[string]jet.Func{
				"greet": func(args jet.Arguments) reflect.Value {
					args.RequireNumOfArguments("greet", 1, 1)
					var name string
					if err := args.ParseInto(&name); err != nil {
						args.Panicf("greet: %v", err)
					}
					return reflect.ValueOf("hi " + name)
				},
			}
			r := &renderer{engine: engineJet, jetFuncs: funcs}

			out, err := r.renderString("t", `{{ greet("bob") }}`, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("hi bob"))
		})

		It("Should return parse errors", func() {
			r := &renderer{engine: engineJet}

			_, err := r.renderString("t", "{{ if }}", nil)
			Expect(err).To(MatchError(ContainSubstring("parsing template")))
		})
	})

	Describe("Go template engine", func() {
		It("Should render with sprig functions", func() {
			r := &renderer{engine: engineGoTemplate}

			out, err := r.renderString("t", `{{ .name | upper }}`, map[string]any{"name": "demo"})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("DEMO"))
		})

		It("Should not expose the process environment", func() {
			r := &renderer{engine: engineGoTemplate}

			_, err := r.renderString("t", `{{ env "HOME" }}`, nil)
			Expect(err).To(HaveOccurred())
		})

		It("Should support custom functions", func() {
			r := &renderer{
				engine: engineGoTemplate,
				funcs:  template.FuncMap{"greet": func(name string) string { return "hi " + name }},
			}

			out, err := r.renderString("t", `{{ greet "bob" }}`, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("hi bob"))
		})
	})
})
