// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// brokenReadFS fails ReadFile for one path, everything else passes through.
type brokenReadFS struct {
	FS
	broken string
}

func (b *brokenReadFS) ReadFile(name string) ([]byte, error) {
	if name == b.broken {
		return nil, fmt.Errorf("simulated read failure")
	}
	return b.FS.ReadFile(name)
}

var _ = Describe("walker", func() {
	var dir string
	var w *walker

	write := func(rel string, content []byte) string {
		GinkgoHelper()
		path := filepath.Join(dir, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, content, 0644)).To(Succeed())
		return path
	}

	read := func(path string) []byte {
		GinkgoHelper()
		data, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		return data
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		w = &walker{fsys: NewOSFS(), render: &renderer{engine: engineJet}}
	})

	It("Should substitute variables in text files in place", func() {
		path := write("greeting.txt", []byte("hello {{ name }}\n"))

		warn := &warningSink{}
		Expect(w.apply(path, map[string]any{"name": "bob"}, warn)).To(Succeed())
		Expect(warn.list()).To(BeEmpty())
		Expect(read(path)).To(Equal([]byte("hello bob\n")))
	})

	It("Should recurse into nested directories concurrently", func() {
		variables := map[string]any{"name": "bob"}
		var paths []string
		for i := 0; i < 20; i++ {
			paths = append(paths, write(fmt.Sprintf("sub%d/file.txt", i), []byte("hi {{ name }}")))
		}

		warn := &warningSink{}
		Expect(w.apply(dir, variables, warn)).To(Succeed())
		Expect(warn.list()).To(BeEmpty())

		for _, p := range paths {
			Expect(read(p)).To(Equal([]byte("hi bob")))
		}
	})

	It("Should honor the concurrency bound across nesting levels", func() {
		w.concurrency = 1

		var paths []string
		rel := "deep"
		for i := 0; i < 5; i++ {
			paths = append(paths, write(filepath.Join(rel, "file.txt"), []byte("hi {{ name }}")))
			rel = filepath.Join(rel, "sub")
		}

		warn := &warningSink{}
		Expect(w.apply(dir, map[string]any{"name": "bob"}, warn)).To(Succeed())
		Expect(warn.list()).To(BeEmpty())

		for _, p := range paths {
			Expect(read(p)).To(Equal([]byte("hi bob")))
		}
	})

	It("Should never pass binary extensions to the renderer", func() {
		content := []byte{0x89, 'P', 'N', 'G', '{', '{', ' ', 'n', 'a', 'm', 'e', ' ', '}', '}'}
		path := write("logo.png", content)

		warn := &warningSink{}
		Expect(w.apply(path, map[string]any{"name": "bob"}, warn)).To(Succeed())
		Expect(warn.list()).To(BeEmpty())
		Expect(read(path)).To(Equal(content))
	})

	It("Should skip files that are not plain text", func() {
		content := []byte{'h', 'i', 0x00, '{', '{', 'x', '}', '}'}
		path := write("data.dat", content)

		warn := &warningSink{}
		Expect(w.apply(path, map[string]any{"x": "y"}, warn)).To(Succeed())
		Expect(read(path)).To(Equal(content))
	})

	It("Should leave files without template syntax untouched", func() {
		path := write("plain.txt", []byte("nothing to do"))
		before, err := os.Stat(path)
		Expect(err).ToNot(HaveOccurred())

		warn := &warningSink{}
		Expect(w.apply(path, nil, warn)).To(Succeed())

		after, err := os.Stat(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(after.ModTime()).To(Equal(before.ModTime()))
	})

	It("Should record a warning for unreadable files and continue", func() {
		broken := write("broken.txt", []byte("{{ name }}"))
		good := write("good.txt", []byte("{{ name }}"))

		w.fsys = &brokenReadFS{FS: NewOSFS(), broken: broken}

		warn := &warningSink{}
		Expect(w.apply(dir, map[string]any{"name": "bob"}, warn)).To(Succeed())

		Expect(warn.list()).To(HaveLen(1))
		Expect(warn.list()[0].Path).To(Equal(broken))
		Expect(warn.list()[0].Action).To(Equal(FileActionWarning))
		Expect(warn.list()[0].Reason).To(ContainSubstring("cannot read"))

		Expect(read(good)).To(Equal([]byte("bob")))
	})

	It("Should record a warning for unstatable paths", func() {
		warn := &warningSink{}
		Expect(w.apply(filepath.Join(dir, "missing"), nil, warn)).To(Succeed())
		Expect(warn.list()).To(HaveLen(1))
		Expect(warn.list()[0].Reason).To(ContainSubstring("cannot stat"))
	})

	It("Should record render failures as warnings and keep the file verbatim", func() {
		path := write("bad.txt", []byte("{{ if }}"))

		warn := &warningSink{}
		Expect(w.apply(path, nil, warn)).To(Succeed())

		Expect(warn.list()).To(HaveLen(1))
		Expect(warn.list()[0].Reason).To(ContainSubstring("render failed"))
		Expect(read(path)).To(Equal([]byte("{{ if }}")))
	})
})
