// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestName is the per-template manifest file describing boilerplates and
// features.
const ManifestName = "scaffold.yaml"

// DescriptorKind distinguishes full project skeletons from incremental
// additions.
type DescriptorKind string

const (
	// KindBoilerplate creates a complete new project skeleton
	KindBoilerplate DescriptorKind = "boilerplate"
	// KindFeature adds incremental files to an existing project
	KindFeature DescriptorKind = "feature"
)

// Descriptor is one named template in a manifest. Descriptors are parsed
// fresh from the manifest on every orchestration call and never mutated.
type Descriptor struct {
	Name         string          `yaml:"name"`
	Description  string          `yaml:"description"`
	Instruction  string          `yaml:"instruction"`
	TargetFolder string          `yaml:"targetFolder"`
	Schema       *VariableSchema `yaml:"variables_schema"`
	Includes     []string        `yaml:"includes"`

	// set by the loader, not part of the manifest
	Kind DescriptorKind      `yaml:"-"`
	Dir  string              `yaml:"-"`
	Post []map[string]string `yaml:"-"`
}

// Manifest is the parsed form of a scaffold.yaml file.
type Manifest struct {
	Boilerplates []*Descriptor       `yaml:"boilerplate"`
	Features     []*Descriptor       `yaml:"features"`
	Post         []map[string]string `yaml:"post"`
}

// Descriptors returns all boilerplates and features in declaration order.
func (m *Manifest) Descriptors() []*Descriptor {
	return append(append([]*Descriptor{}, m.Boilerplates...), m.Features...)
}

// LoadManifest parses templateDir/scaffold.yaml. A boilerplate entry without
// a target folder is skipped with a warning rather than failing the whole
// manifest, other entries in the same file may still be valid.
func LoadManifest(fsys FS, templateDir string) (*Manifest, []string, error) {
	path := filepath.Join(templateDir, ManifestName)

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
	}

	manifest := &Manifest{}
	err = yaml.Unmarshal(data, manifest)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrManifestMalformed, path, err)
	}

	var warnings []string

	kept := manifest.Boilerplates[:0]
	for _, b := range manifest.Boilerplates {
		if b.TargetFolder == "" {
			warnings = append(warnings, fmt.Sprintf("%s: boilerplate %q has no targetFolder, skipped", path, b.Name))
			continue
		}
		b.Kind = KindBoilerplate
		b.Dir = templateDir
		b.Post = manifest.Post
		kept = append(kept, b)
	}
	manifest.Boilerplates = kept

	for _, f := range manifest.Features {
		f.Kind = KindFeature
		f.Dir = templateDir
		f.Post = manifest.Post
	}

	return manifest, warnings, nil
}

// DiscoverTemplates scans root for template directories, flat or nested one
// category level deep. A template directory carries both a package manifest
// (package.json, possibly in its .liquid template variant) and a
// scaffold.yaml. node_modules and dot directories are pruned.
func DiscoverTemplates(fsys FS, root string) ([]string, error) {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("cannot read templates directory %s: %w", root, err)
	}

	var dirs []string

	for _, entry := range entries {
		if !entry.IsDir() || prunedDir(entry.Name()) {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		if isTemplateDir(fsys, dir) {
			dirs = append(dirs, dir)
			continue
		}

		// one category level of nesting
		children, err := fsys.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, child := range children {
			if !child.IsDir() || prunedDir(child.Name()) {
				continue
			}

			sub := filepath.Join(dir, child.Name())
			if isTemplateDir(fsys, sub) {
				dirs = append(dirs, sub)
			}
		}
	}

	return dirs, nil
}

func isTemplateDir(fsys FS, dir string) bool {
	if !fileExists(fsys, filepath.Join(dir, ManifestName)) {
		return false
	}

	return fileExists(fsys, filepath.Join(dir, "package.json")) ||
		fileExists(fsys, filepath.Join(dir, "package.json"+LiquidExtension))
}

func prunedDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".")
}
