// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"fmt"
	"sync"
)

// FileAction classifies the outcome for a single target path.
type FileAction string

const (
	// FileActionCreated indicates the file did not exist and was written by this run
	FileActionCreated FileAction = "created"
	// FileActionExisting indicates the file was already present and was left untouched
	FileActionExisting FileAction = "existing"
	// FileActionWarning indicates the file could not be fully processed, Reason explains why
	FileActionWarning FileAction = "warning"
)

// FileOutcome records what happened to one target path during a scaffold run.
// A given path appears at most once as created or existing within a single run.
type FileOutcome struct {
	Path   string
	Action FileAction
	Reason string
}

// Result is the aggregated outcome of one orchestration call. It is the sole
// contract consumed by callers wrapping the engine. A path appears in at most
// one of CreatedFiles and ExistingFiles, exactly once.
type Result struct {
	Success       bool     `json:"success" yaml:"success"`
	Message       string   `json:"message" yaml:"message"`
	CreatedFiles  []string `json:"createdFiles" yaml:"createdFiles"`
	ExistingFiles []string `json:"existingFiles" yaml:"existingFiles"`
	Warnings      []string `json:"warnings" yaml:"warnings"`

	recorded map[string]struct{}
}

// recordOutcomes folds per-include outcomes into the result. Includes are
// processed in declared order, a later include resolving to a path an earlier
// one already recorded is dropped rather than listed a second time.
func (r *Result) recordOutcomes(outcomes []FileOutcome) {
	if r.recorded == nil {
		r.recorded = map[string]struct{}{}
	}

	for _, o := range outcomes {
		switch o.Action {
		case FileActionCreated, FileActionExisting:
			if _, dup := r.recorded[o.Path]; dup {
				continue
			}
			r.recorded[o.Path] = struct{}{}

			if o.Action == FileActionCreated {
				r.CreatedFiles = append(r.CreatedFiles, o.Path)
			} else {
				r.ExistingFiles = append(r.ExistingFiles, o.Path)
			}
		case FileActionWarning:
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", o.Path, o.Reason))
		}
	}
}

// warningSink accumulates non-fatal warnings from concurrent tree walks.
type warningSink struct {
	mu       sync.Mutex
	outcomes []FileOutcome
}

func (w *warningSink) addf(path string, format string, v ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.outcomes = append(w.outcomes, FileOutcome{
		Path:   path,
		Action: FileActionWarning,
		Reason: fmt.Sprintf(format, v...),
	})
}

func (w *warningSink) list() []FileOutcome {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]FileOutcome{}, w.outcomes...)
}
