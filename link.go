// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectFileName carries the project link in multi project workspaces
	ProjectFileName = "project.json"
	// WorkspaceFileName carries the project link at the workspace root in monolith mode
	WorkspaceFileName = "toolkit.yaml"

	monolithType = "monolith"
)

// ProjectLink binds a generated project back to the boilerplate that created
// it. It is written once at the end of a successful boilerplate run and read
// by later feature scaffold lookups.
type ProjectLink struct {
	Name           string
	SourceTemplate string
}

// writeProjectLink merges name and sourceTemplate into projectDir/project.json.
// Unrelated keys in an existing file are preserved, the file is owned by the
// project, not by this engine.
func writeProjectLink(fsys FS, projectDir string, name string, sourceTemplate string) error {
	path := filepath.Join(projectDir, ProjectFileName)

	doc := map[string]any{}
	if data, err := fsys.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("cannot parse %s: %w", path, err)
		}
	}

	if _, ok := doc["name"]; !ok && name != "" {
		doc["name"] = name
	}
	doc["sourceTemplate"] = sourceTemplate

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	return fsys.WriteFile(path, append(data, '\n'), 0644)
}

// readProjectLink reads projectDir/project.json and returns its link fields.
func readProjectLink(fsys FS, projectDir string) (*ProjectLink, error) {
	path := filepath.Join(projectDir, ProjectFileName)

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := map[string]any{}
	err = json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}

	link := &ProjectLink{}
	if v, ok := doc["name"].(string); ok {
		link.Name = v
	}
	if v, ok := doc["sourceTemplate"].(string); ok {
		link.SourceTemplate = v
	}

	return link, nil
}

// writeWorkspaceLink merges the link into the workspace root toolkit.yaml used
// in monolith mode.
func writeWorkspaceLink(fsys FS, workspaceDir string, sourceTemplate string) error {
	path := filepath.Join(workspaceDir, WorkspaceFileName)

	doc := map[string]any{}
	if data, err := fsys.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("cannot parse %s: %w", path, err)
		}
	}

	doc["sourceTemplate"] = sourceTemplate
	doc["type"] = monolithType

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	return fsys.WriteFile(path, data, 0644)
}

// readWorkspaceLink reads the monolith mode link from workspaceDir/toolkit.yaml.
func readWorkspaceLink(fsys FS, workspaceDir string) (*ProjectLink, error) {
	path := filepath.Join(workspaceDir, WorkspaceFileName)

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := map[string]any{}
	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}

	link := &ProjectLink{}
	if v, ok := doc["sourceTemplate"].(string); ok {
		link.SourceTemplate = v
	}

	return link, nil
}
