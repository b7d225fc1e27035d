// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ProjectLink", func() {
	var dir string
	var fsys FS

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		fsys = NewOSFS()
	})

	Describe("project.json", func() {
		It("Should create the file when absent", func() {
			Expect(writeProjectLink(fsys, dir, "demo", "demo-app")).To(Succeed())

			link, err := readProjectLink(fsys, dir)
			Expect(err).ToNot(HaveOccurred())
			Expect(link.Name).To(Equal("demo"))
			Expect(link.SourceTemplate).To(Equal("demo-app"))
		})

		It("Should preserve unrelated keys and an existing name", func() {
			path := filepath.Join(dir, ProjectFileName)
			Expect(os.WriteFile(path, []byte(`{"name": "original", "tags": ["web"]}`), 0644)).To(Succeed())

			Expect(writeProjectLink(fsys, dir, "demo", "demo-app")).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).ToNot(HaveOccurred())

			doc := map[string]any{}
			Expect(json.Unmarshal(data, &doc)).To(Succeed())
			Expect(doc).To(HaveKeyWithValue("name", "original"))
			Expect(doc).To(HaveKeyWithValue("sourceTemplate", "demo-app"))
			Expect(doc).To(HaveKey("tags"))
		})

		It("Should fail to read an unparsable file", func() {
			path := filepath.Join(dir, ProjectFileName)
			Expect(os.WriteFile(path, []byte("not json"), 0644)).To(Succeed())

			_, err := readProjectLink(fsys, dir)
			Expect(err).To(MatchError(ContainSubstring("cannot parse")))
		})
	})

	Describe("toolkit.yaml", func() {
		It("Should round trip the link with the monolith type", func() {
			Expect(writeWorkspaceLink(fsys, dir, "demo-app")).To(Succeed())

			link, err := readWorkspaceLink(fsys, dir)
			Expect(err).ToNot(HaveOccurred())
			Expect(link.SourceTemplate).To(Equal("demo-app"))

			data, err := os.ReadFile(filepath.Join(dir, WorkspaceFileName))
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("type: monolith"))
		})

		It("Should preserve unrelated keys", func() {
			path := filepath.Join(dir, WorkspaceFileName)
			Expect(os.WriteFile(path, []byte("theme: dark\n"), 0644)).To(Succeed())

			Expect(writeWorkspaceLink(fsys, dir, "demo-app")).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("theme: dark"))
			Expect(string(data)).To(ContainSubstring("sourceTemplate: demo-app"))
		})
	})
})
