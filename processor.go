// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"fmt"
	"path/filepath"
	"sort"
)

// LiquidExtension is the suffix tried when a requested source file does not
// exist on disk. A match is materialized under the original name without the
// suffix.
const LiquidExtension = ".liquid"

// processor performs one conflict-safe (source, target) materialization:
// copy, in-place substitution and per-file outcome tracking.
type processor struct {
	fsys FS
	walk *walker
	log  Logger
}

// copyAndProcess materializes source at target and substitutes variables in
// the copied files. A target that already exists is never touched, every file
// under it is reported as existing instead. This is the engine's core
// non-destructive guarantee, existence is the sole conflict signal and content
// is never compared.
func (p *processor) copyAndProcess(source string, target string, variables map[string]any) ([]FileOutcome, error) {
	err := p.fsys.MkdirAll(filepath.Dir(target), 0755)
	if err != nil {
		return nil, fmt.Errorf("cannot create parent directory for %s: %w", target, err)
	}

	if fileExists(p.fsys, target) {
		if p.log != nil {
			p.log.Infof("Target %s exists, skipping", target)
		}
		return p.trackFiles(target, FileActionExisting), nil
	}

	resolved, err := p.resolveSource(source)
	if err != nil {
		return nil, err
	}

	err = p.copyTree(resolved, target)
	if err != nil {
		return nil, err
	}

	warn := &warningSink{}
	err = p.walk.apply(target, variables, warn)
	if err != nil {
		return nil, err
	}

	outcomes := p.trackFiles(target, FileActionCreated)
	outcomes = append(outcomes, warn.list()...)

	return outcomes, nil
}

// resolveSource returns the real source path, retrying with a .liquid
// suffixed sibling when the requested path does not exist.
func (p *processor) resolveSource(source string) (string, error) {
	if fileExists(p.fsys, source) {
		return source, nil
	}

	liquid := source + LiquidExtension
	if fileExists(p.fsys, liquid) {
		if p.log != nil {
			p.log.Debugf("Resolved %s via liquid fallback", source)
		}
		return liquid, nil
	}

	return "", fmt.Errorf("%w: neither %s nor %s exist", ErrSourceNotFound, source, liquid)
}

// copyTree copies a file or a whole directory tree verbatim.
func (p *processor) copyTree(source string, target string) error {
	info, err := p.fsys.Stat(source)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return p.fsys.CopyFile(source, target)
	}

	err = p.fsys.MkdirAll(target, 0755)
	if err != nil {
		return err
	}

	entries, err := p.fsys.ReadDir(source)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		err = p.copyTree(filepath.Join(source, entry.Name()), filepath.Join(target, entry.Name()))
		if err != nil {
			return err
		}
	}

	return nil
}

// trackFiles enumerates every file under target and records each with the
// given action. Unreadable entries become warnings, the scan is best effort.
func (p *processor) trackFiles(target string, action FileAction) []FileOutcome {
	var outcomes []FileOutcome

	info, err := p.fsys.Stat(target)
	if err != nil {
		outcomes = append(outcomes, FileOutcome{Path: target, Action: FileActionWarning, Reason: fmt.Sprintf("cannot stat: %v", err)})
		return outcomes
	}

	if !info.IsDir() {
		return []FileOutcome{{Path: target, Action: action}}
	}

	entries, err := p.fsys.ReadDir(target)
	if err != nil {
		outcomes = append(outcomes, FileOutcome{Path: target, Action: FileActionWarning, Reason: fmt.Sprintf("cannot list directory: %v", err)})
		return outcomes
	}

	for _, entry := range entries {
		outcomes = append(outcomes, p.trackFiles(filepath.Join(target, entry.Name()), action)...)
	}

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Path < outcomes[j].Path
	})

	return outcomes
}
