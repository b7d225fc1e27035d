// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package kitforge materializes file trees from versioned template
// directories. A template declares boilerplates (full project skeletons) and
// features (incremental additions) in a scaffold.yaml manifest, each with a
// variable schema and a list of include paths. The engine validates supplied
// variables, copies the includes into the target, substitutes variables in
// the copied text files and reports exactly which files it created versus
// which were already present. Existing files are never overwritten, re-runs
// are safe.
package kitforge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/CloudyKit/jet/v6"
)

var (
	// ErrManifestMissing indicates a template directory without a scaffold.yaml
	ErrManifestMissing = errors.New("manifest missing")
	// ErrManifestMalformed indicates a scaffold.yaml that does not parse as a mapping
	ErrManifestMalformed = errors.New("manifest malformed")
	// ErrSourceNotFound indicates an include whose source has no plain or .liquid form
	ErrSourceNotFound = errors.New("source not found")
	// ErrTargetBusy indicates another scaffold operation holds the target lease
	ErrTargetBusy = errors.New("target is busy")
)

// Logger receives progress and diagnostics, no logging is done without one.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
}

// Config configures an Engine.
type Config struct {
	// TemplatesDirectory is the root that is scanned for template directories
	TemplatesDirectory string `yaml:"templates"`
	// WorkspaceDirectory is the workspace scaffolds are generated into
	WorkspaceDirectory string `yaml:"workspace"`
	// Sets a custom template delimiter, useful for generating templates from templates
	CustomLeftDelimiter string `yaml:"left_delimiter"`
	// Sets a custom template delimiter, useful for generating templates from templates
	CustomRightDelimiter string `yaml:"right_delimiter"`
	// WalkConcurrency bounds the fan-out over sibling directory entries during substitution
	WalkConcurrency int `yaml:"walk_concurrency"`
	// Post configures post-processing of created files using filepath globs
	Post []map[string]string `yaml:"post"`
}

// Request asks for one named boilerplate or feature to be scaffolded. It is
// immutable for the duration of the orchestration.
type Request struct {
	// Name of the boilerplate or feature to scaffold
	Name string
	// Variables are the raw user supplied variables, validated against the descriptor schema
	Variables map[string]any
	// TargetDirectory overrides the workspace directory, for features this is the project to add to
	TargetDirectory string
	// Monolith targets the workspace root directly without a per project sub folder
	Monolith bool
	// Marker optionally overrides the project folder name derived from the package name
	Marker string
}

// PlannedFile is one target path and the action a generation would take on it.
type PlannedFile struct {
	Path   string
	Action FileAction
}

// Engine is the scaffolding orchestrator.
type Engine struct {
	cfg    *Config
	fsys   FS
	render *renderer
	proc   *processor
	leases *leaseRegistry
	log    Logger
}

// New creates an engine using the Jet template engine, which resolves the
// bare {{ var }} placeholders used in manifests and template trees.
func New(cfg Config, funcs map[string]jet.Func) (*Engine, error) {
	return newEngine(cfg, &renderer{
		engine:   engineJet,
		left:     cfg.CustomLeftDelimiter,
		right:    cfg.CustomRightDelimiter,
		jetFuncs: funcs,
	})
}

// NewGoTemplate creates an engine that renders with Go text/template and
// Sprig functions instead of Jet.
func NewGoTemplate(cfg Config, funcs template.FuncMap) (*Engine, error) {
	return newEngine(cfg, &renderer{
		engine: engineGoTemplate,
		left:   cfg.CustomLeftDelimiter,
		right:  cfg.CustomRightDelimiter,
		funcs:  funcs,
	})
}

func newEngine(cfg Config, render *renderer) (*Engine, error) {
	err := validateConfig(&cfg)
	if err != nil {
		return nil, err
	}

	fsys := NewOSFS()

	e := &Engine{
		cfg:    &cfg,
		fsys:   fsys,
		render: render,
		leases: newLeaseRegistry(),
	}
	e.proc = &processor{
		fsys: fsys,
		walk: &walker{fsys: fsys, render: render, concurrency: cfg.WalkConcurrency},
	}

	return e, nil
}

func validateConfig(cfg *Config) error {
	if cfg.TemplatesDirectory == "" {
		return fmt.Errorf("templates directory is required")
	}
	if cfg.WorkspaceDirectory == "" {
		return fmt.Errorf("workspace directory is required")
	}

	var err error
	cfg.TemplatesDirectory, err = filepath.Abs(cfg.TemplatesDirectory)
	if err != nil {
		return fmt.Errorf("invalid templates directory %s: %v", cfg.TemplatesDirectory, err)
	}
	cfg.WorkspaceDirectory, err = filepath.Abs(cfg.WorkspaceDirectory)
	if err != nil {
		return fmt.Errorf("invalid workspace directory %s: %v", cfg.WorkspaceDirectory, err)
	}

	_, err = os.Stat(cfg.TemplatesDirectory)
	if err != nil {
		return fmt.Errorf("cannot read templates directory: %w", err)
	}

	return nil
}

// Logger configures a logger to use, no logging is done without this.
func (e *Engine) Logger(log Logger) {
	e.log = log
	e.proc.log = log
	e.proc.walk.log = log
}

// RenderString renders a string using the same engine, functions and
// delimiters as the scaffold itself.
func (e *Engine) RenderString(str string, variables map[string]any) (string, error) {
	return e.render.renderString("string", str, variables)
}

// UseBoilerplate scaffolds a full project skeleton. Validation failures and
// unknown names are reported in the result, not returned as errors. Manifest
// and source resolution failures are returned as errors alongside a result
// describing the partially applied state.
func (e *Engine) UseBoilerplate(req Request) (*Result, error) {
	res := &Result{}

	desc, available, warnings, err := e.resolveDescriptor(req.Name, KindBoilerplate, "")
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)

	if desc == nil {
		res.Message = unknownDescriptorMessage("boilerplate", req.Name, available)
		return res, nil
	}

	variables, verrs := ValidateVariables(desc.Schema, req.Variables)
	if len(verrs) > 0 {
		res.Message = fmt.Sprintf("invalid variables for %q:\n%s", req.Name, strings.Join(verrs, "\n"))
		return res, nil
	}

	workspace := e.cfg.WorkspaceDirectory
	if req.TargetDirectory != "" {
		workspace = req.TargetDirectory
	}

	targetRoot := workspace
	projectName := ""
	if !req.Monolith {
		projectName, err = projectFolderName(variables, req.Marker)
		if err != nil {
			res.Message = err.Error()
			return res, nil
		}
		targetRoot = filepath.Join(workspace, desc.TargetFolder, projectName)
	}

	release, err := e.leases.acquire(targetRoot)
	if err != nil {
		return nil, err
	}
	defer release()

	err = e.generate(desc, targetRoot, variables, res)
	if err != nil {
		res.Message = fmt.Sprintf("scaffolding boilerplate %q failed: %v", req.Name, err)
		return res, err
	}

	res.Success = true
	res.Message = fmt.Sprintf("Scaffolded boilerplate %q into %s", req.Name, targetRoot)
	e.appendInstruction(desc, variables, res)

	// persist the project link so later feature lookups resolve back here
	if req.Monolith {
		err = writeWorkspaceLink(e.fsys, workspace, desc.Name)
	} else {
		err = writeProjectLink(e.fsys, targetRoot, projectName, desc.Name)
	}
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("cannot write project link: %v", err))
	}

	return res, nil
}

// UseFeature scaffolds incremental files into an existing project. The
// project link written by the originating boilerplate is consulted first so
// the feature is resolved against the template that created the project.
func (e *Engine) UseFeature(req Request) (*Result, error) {
	res := &Result{}

	targetRoot := e.cfg.WorkspaceDirectory
	if req.TargetDirectory != "" {
		targetRoot = req.TargetDirectory
	}

	desc, available, warnings, err := e.resolveDescriptor(req.Name, KindFeature, e.linkedTemplate(req, targetRoot))
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)

	if desc == nil {
		res.Message = unknownDescriptorMessage("feature", req.Name, available)
		return res, nil
	}

	variables, verrs := ValidateVariables(desc.Schema, req.Variables)
	if len(verrs) > 0 {
		res.Message = fmt.Sprintf("invalid variables for %q:\n%s", req.Name, strings.Join(verrs, "\n"))
		return res, nil
	}

	release, err := e.leases.acquire(targetRoot)
	if err != nil {
		return nil, err
	}
	defer release()

	err = e.generate(desc, targetRoot, variables, res)
	if err != nil {
		res.Message = fmt.Sprintf("scaffolding feature %q failed: %v", req.Name, err)
		return res, err
	}

	res.Success = true
	res.Message = fmt.Sprintf("Scaffolded feature %q into %s", req.Name, targetRoot)
	e.appendInstruction(desc, variables, res)

	return res, nil
}

// Descriptors returns every boilerplate and feature declared across the
// discovered template directories, in discovery order.
func (e *Engine) Descriptors() ([]*Descriptor, error) {
	dirs, err := DiscoverTemplates(e.fsys, e.cfg.TemplatesDirectory)
	if err != nil {
		return nil, err
	}

	var descriptors []*Descriptor
	for _, dir := range dirs {
		manifest, _, err := LoadManifest(e.fsys, dir)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, manifest.Descriptors()...)
	}

	return descriptors, nil
}

// Describe returns the named descriptor of the given kind.
func (e *Engine) Describe(name string, kind DescriptorKind) (*Descriptor, error) {
	desc, _, _, err := e.resolveDescriptor(name, kind, "")
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, fmt.Errorf("unknown %s %q", kind, name)
	}

	return desc, nil
}

// Plan computes the outcome of scaffolding req without writing anything.
// Targets that do not exist yet are reported as created, targets that exist
// as existing.
func (e *Engine) Plan(req Request, kind DescriptorKind) ([]PlannedFile, error) {
	desc, _, _, err := e.resolveDescriptor(req.Name, kind, "")
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, fmt.Errorf("unknown %s %q", kind, req.Name)
	}

	variables, verrs := ValidateVariables(desc.Schema, req.Variables)
	if len(verrs) > 0 {
		return nil, fmt.Errorf("invalid variables for %q: %s", req.Name, strings.Join(verrs, "; "))
	}

	targetRoot := e.cfg.WorkspaceDirectory
	if req.TargetDirectory != "" {
		targetRoot = req.TargetDirectory
	}
	if kind == KindBoilerplate && !req.Monolith {
		name, err := projectFolderName(variables, req.Marker)
		if err != nil {
			return nil, err
		}
		targetRoot = filepath.Join(targetRoot, desc.TargetFolder, name)
	}

	var plan []PlannedFile
	for _, include := range desc.Includes {
		target, _, err := e.includePaths(desc, include, targetRoot, variables)
		if err != nil {
			return nil, err
		}

		action := FileActionCreated
		if fileExists(e.fsys, target) {
			action = FileActionExisting
		}
		plan = append(plan, PlannedFile{Path: target, Action: action})
	}

	sort.Slice(plan, func(i, j int) bool { return plan[i].Path < plan[j].Path })

	return plan, nil
}

// generate drives the processor over every include of desc. The first source
// resolution failure aborts the loop, files written by earlier includes stay
// in place and remain recorded on res. Re-running is safe, they will be
// reported as existing.
func (e *Engine) generate(desc *Descriptor, targetRoot string, variables map[string]any, res *Result) error {
	for _, include := range desc.Includes {
		target, source, err := e.includePaths(desc, include, targetRoot, variables)
		if err != nil {
			return err
		}

		outcomes, err := e.proc.copyAndProcess(source, target, variables)
		res.recordOutcomes(outcomes)
		if err != nil {
			return err
		}
	}

	rules := append(append([]map[string]string{}, desc.Post...), e.cfg.Post...)
	warn := &warningSink{}
	postProcess(rules, res.CreatedFiles, e.log, warn)
	res.recordOutcomes(warn.list())

	return nil
}

// includePaths renders the include path pattern against variables and returns
// the (target, source) pair. The source keeps the pattern as stored in the
// template tree, the target uses the rendered pattern with any .liquid suffix
// stripped.
func (e *Engine) includePaths(desc *Descriptor, include string, targetRoot string, variables map[string]any) (target string, source string, err error) {
	rendered, err := e.render.renderString("include", include, variables)
	if err != nil {
		return "", "", fmt.Errorf("cannot render include path %q: %w", include, err)
	}

	target = filepath.Join(targetRoot, strings.TrimSuffix(rendered, LiquidExtension))
	source = filepath.Join(desc.Dir, include)

	return target, source, nil
}

func (e *Engine) appendInstruction(desc *Descriptor, variables map[string]any, res *Result) {
	if desc.Instruction == "" {
		return
	}

	instruction, err := e.render.renderString("instruction", desc.Instruction, variables)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("cannot render instruction: %v", err))
		return
	}

	res.Message = res.Message + "\n\n" + instruction
}

// linkedTemplate returns the boilerplate name recorded in the project link at
// targetRoot, or empty when no link can be read. A missing link only widens
// the feature search, it is never an error.
func (e *Engine) linkedTemplate(req Request, targetRoot string) string {
	var link *ProjectLink
	var err error

	if req.Monolith {
		link, err = readWorkspaceLink(e.fsys, targetRoot)
	} else {
		link, err = readProjectLink(e.fsys, targetRoot)
	}
	if err != nil || link == nil {
		return ""
	}

	return link.SourceTemplate
}

// resolveDescriptor finds the named descriptor of the given kind across all
// discovered template directories. When preferred names a boilerplate, the
// template directory containing it is searched first. Returns the descriptor
// (nil when not found), the available names and any loader warnings.
func (e *Engine) resolveDescriptor(name string, kind DescriptorKind, preferred string) (*Descriptor, []string, []string, error) {
	dirs, err := DiscoverTemplates(e.fsys, e.cfg.TemplatesDirectory)
	if err != nil {
		return nil, nil, nil, err
	}

	var available, warnings []string
	var found, preferredMatch *Descriptor
	seen := map[string]struct{}{}

	for _, dir := range dirs {
		manifest, mwarns, err := LoadManifest(e.fsys, dir)
		if err != nil {
			return nil, nil, nil, err
		}
		warnings = append(warnings, mwarns...)

		fromPreferred := false
		if preferred != "" {
			for _, b := range manifest.Boilerplates {
				if b.Name == preferred {
					fromPreferred = true
					break
				}
			}
		}

		for _, desc := range manifest.Descriptors() {
			if desc.Kind != kind {
				continue
			}

			if _, dup := seen[desc.Name]; !dup {
				seen[desc.Name] = struct{}{}
				available = append(available, desc.Name)
			}

			if desc.Name != name {
				continue
			}

			if fromPreferred && preferredMatch == nil {
				preferredMatch = desc
			}
			if found == nil {
				found = desc
			}
		}
	}

	if preferredMatch != nil {
		found = preferredMatch
	}

	sort.Strings(available)

	return found, available, warnings, nil
}

func unknownDescriptorMessage(kind string, name string, available []string) string {
	if len(available) == 0 {
		return fmt.Sprintf("unknown %s %q, no %ss are available", kind, name, kind)
	}
	return fmt.Sprintf("unknown %s %q, available: %s", kind, name, strings.Join(available, ", "))
}

// projectFolderName derives the per project sub folder for monorepo targets
// from the request marker or the package name variable. An npm style scope
// prefix is stripped, "@acme/demo" becomes "demo".
func projectFolderName(variables map[string]any, marker string) (string, error) {
	if marker != "" {
		return marker, nil
	}

	for _, key := range []string{"packageName", "name", "appName"} {
		v, ok := variables[key].(string)
		if !ok || v == "" {
			continue
		}

		if strings.HasPrefix(v, "@") {
			if i := strings.LastIndex(v, "/"); i != -1 {
				return v[i+1:], nil
			}
		}

		return v, nil
	}

	return "", fmt.Errorf("cannot determine the project folder name, supply a packageName or name variable or a marker")
}
