// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/CloudyKit/jet/v6"
	"github.com/kitforge-io/kitforge/internal/sprig"
)

type engineType int

const (
	// engineJet resolves bare {{ var }} identifiers, matching the liquid-style
	// placeholders used in manifests and template trees
	engineJet engineType = iota
	engineGoTemplate
)

// renderer renders template text against a variable map using either the Jet
// engine (default) or Go text/template with Sprig functions.
type renderer struct {
	engine   engineType
	left     string
	right    string
	funcs    template.FuncMap
	jetFuncs map[string]jet.Func
}

func (r *renderer) leftDelimiter() string {
	if r.left != "" {
		return r.left
	}
	return "{{"
}

// containsTemplate is a cheap pre-check used to skip parsing and rendering of
// strings that cannot possibly contain template syntax.
func (r *renderer) containsTemplate(s string) bool {
	return strings.Contains(s, r.leftDelimiter())
}

func (r *renderer) renderString(name string, tmpl string, variables map[string]any) (string, error) {
	if !r.containsTemplate(tmpl) {
		return tmpl, nil
	}

	res, err := r.renderBytes(name, []byte(tmpl), variables)
	if err != nil {
		return "", err
	}

	return string(res), nil
}

func (r *renderer) renderBytes(name string, tmpl []byte, variables map[string]any) ([]byte, error) {
	switch r.engine {
	case engineGoTemplate:
		return r.renderBytesGoTempl(name, tmpl, variables)
	default:
		return r.renderBytesJet(name, tmpl, variables)
	}
}

func (r *renderer) renderBytesGoTempl(name string, tmpl []byte, variables map[string]any) ([]byte, error) {
	templ := template.New(name)

	funcs := sprig.FuncMap()
	for k, v := range r.funcs {
		funcs[k] = v
	}
	templ.Funcs(funcs)

	if r.left != "" && r.right != "" {
		templ.Delims(r.left, r.right)
	}

	templ, err := templ.Parse(string(tmpl))
	if err != nil {
		return nil, fmt.Errorf("parsing template %v failed: %w", name, err)
	}

	buf := bytes.NewBuffer([]byte{})
	err = templ.Execute(buf, variables)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (r *renderer) renderBytesJet(name string, tmpl []byte, variables map[string]any) ([]byte, error) {
	loader := jet.NewInMemLoader()
	loader.Set(name, string(tmpl))

	opts := []jet.Option{jet.WithSafeWriter(nil)}
	if r.left != "" && r.right != "" {
		opts = append(opts, jet.WithDelims(r.left, r.right))
	}

	set := jet.NewSet(loader, opts...)

	for k, fn := range r.jetFuncs {
		set.AddGlobalFunc(k, fn)
	}

	t, err := set.GetTemplate(name)
	if err != nil {
		return nil, fmt.Errorf("parsing template %v failed: %w", name, err)
	}

	vars := make(jet.VarMap)
	for k, v := range variables {
		vars.Set(k, v)
	}

	buf := bytes.NewBuffer([]byte{})
	err = t.Execute(buf, vars, variables)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
