// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Manifest", func() {
	var fsys FS
	var templateDir string

	write := func(path string, content string) {
		GinkgoHelper()
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
	}

	BeforeEach(func() {
		fsys = NewOSFS()
		templateDir = GinkgoT().TempDir()
	})

	Describe("LoadManifest", func() {
		It("Should fail with ErrManifestMissing without a scaffold.yaml", func() {
			_, _, err := LoadManifest(fsys, templateDir)
			Expect(err).To(MatchError(ErrManifestMissing))
		})

		It("Should fail with ErrManifestMalformed for unparsable content", func() {
			write(filepath.Join(templateDir, ManifestName), "boilerplate: [unclosed")

			_, _, err := LoadManifest(fsys, templateDir)
			Expect(err).To(MatchError(ErrManifestMalformed))
		})

		It("Should parse boilerplates and features and tag their origin", func() {
			write(filepath.Join(templateDir, ManifestName), `
boilerplate:
  - name: app
    description: An application
    targetFolder: apps
    includes:
      - package.json.liquid
features:
  - name: page
    description: A page
    includes:
      - src/page.ts
post:
  - "*.go": gofmt -w
`)

			manifest, warnings, err := LoadManifest(fsys, templateDir)
			Expect(err).ToNot(HaveOccurred())
			Expect(warnings).To(BeEmpty())

			Expect(manifest.Boilerplates).To(HaveLen(1))
			Expect(manifest.Boilerplates[0].Name).To(Equal("app"))
			Expect(manifest.Boilerplates[0].Kind).To(Equal(KindBoilerplate))
			Expect(manifest.Boilerplates[0].Dir).To(Equal(templateDir))
			Expect(manifest.Boilerplates[0].Post).To(HaveLen(1))

			Expect(manifest.Features).To(HaveLen(1))
			Expect(manifest.Features[0].Kind).To(Equal(KindFeature))
			Expect(manifest.Features[0].Dir).To(Equal(templateDir))

			Expect(manifest.Descriptors()).To(HaveLen(2))
		})

		It("Should skip boilerplates without a targetFolder with a warning", func() {
			write(filepath.Join(templateDir, ManifestName), `
boilerplate:
  - name: broken
    description: No target folder
    includes: [a.txt]
  - name: valid
    targetFolder: apps
    includes: [a.txt]
`)

			manifest, warnings, err := LoadManifest(fsys, templateDir)
			Expect(err).ToNot(HaveOccurred())
			Expect(warnings).To(ConsistOf(ContainSubstring(`boilerplate "broken" has no targetFolder`)))
			Expect(manifest.Boilerplates).To(HaveLen(1))
			Expect(manifest.Boilerplates[0].Name).To(Equal("valid"))
		})
	})

	Describe("DiscoverTemplates", func() {
		var root string

		template := func(dir string) {
			GinkgoHelper()
			write(filepath.Join(dir, ManifestName), "boilerplate: []\n")
			write(filepath.Join(dir, "package.json"), "{}\n")
		}

		BeforeEach(func() {
			root = GinkgoT().TempDir()
		})

		It("Should find flat and one level nested template directories", func() {
			template(filepath.Join(root, "flat"))
			template(filepath.Join(root, "category", "nested"))

			dirs, err := DiscoverTemplates(fsys, root)
			Expect(err).ToNot(HaveOccurred())
			Expect(dirs).To(ConsistOf(
				filepath.Join(root, "flat"),
				filepath.Join(root, "category", "nested"),
			))
		})

		It("Should accept the liquid variant of the package manifest", func() {
			dir := filepath.Join(root, "tmpl")
			write(filepath.Join(dir, ManifestName), "boilerplate: []\n")
			write(filepath.Join(dir, "package.json"+LiquidExtension), "{}\n")

			dirs, err := DiscoverTemplates(fsys, root)
			Expect(err).ToNot(HaveOccurred())
			Expect(dirs).To(ConsistOf(dir))
		})

		It("Should ignore directories missing either marker file", func() {
			write(filepath.Join(root, "only-manifest", ManifestName), "boilerplate: []\n")
			write(filepath.Join(root, "only-package", "package.json"), "{}\n")

			dirs, err := DiscoverTemplates(fsys, root)
			Expect(err).ToNot(HaveOccurred())
			Expect(dirs).To(BeEmpty())
		})

		It("Should prune node_modules and dot directories", func() {
			template(filepath.Join(root, "node_modules", "sneaky"))
			template(filepath.Join(root, ".hidden"))
			template(filepath.Join(root, "real"))

			dirs, err := DiscoverTemplates(fsys, root)
			Expect(err).ToNot(HaveOccurred())
			Expect(dirs).To(ConsistOf(filepath.Join(root, "real")))
		})

		It("Should not descend past one category level", func() {
			template(filepath.Join(root, "a", "b", "toodeep"))

			dirs, err := DiscoverTemplates(fsys, root)
			Expect(err).ToNot(HaveOccurred())
			Expect(dirs).To(BeEmpty())
		})

		It("Should fail for an unreadable root", func() {
			_, err := DiscoverTemplates(fsys, filepath.Join(root, "nonexistent"))
			Expect(err).To(MatchError(ContainSubstring("cannot read templates directory")))
		})
	})
})
