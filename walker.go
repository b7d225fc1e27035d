// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// binaryExtensions lists file extensions that are never passed through the
// renderer. These files are copied byte for byte.
var binaryExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".ico": {}, ".webp": {}, ".bmp": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".otf": {}, ".eot": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".tgz": {}, ".bz2": {}, ".xz": {}, ".7z": {}, ".jar": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".bin": {}, ".wasm": {},
	".pdf": {}, ".mp3": {}, ".mp4": {}, ".mov": {}, ".avi": {}, ".class": {},
}

const defaultWalkConcurrency = 16

// walker performs in-place variable substitution over a materialized tree.
// Binary files are skipped, text files are rendered and written back. Files
// are rendered concurrently with one bound covering the whole walk.
type walker struct {
	fsys        FS
	render      *renderer
	concurrency int
	log         Logger
}

// apply renders every text file under path against variables, mutating files
// in place. Unreadable or unstatable entries are recorded on warn and skipped,
// one broken artifact must not abort an otherwise successful generation.
func (w *walker) apply(path string, variables map[string]any, warn *warningSink) error {
	limit := w.concurrency
	if limit <= 0 {
		limit = defaultWalkConcurrency
	}

	grp := errgroup.Group{}
	grp.SetLimit(limit)

	w.walk(path, variables, warn, &grp)

	return grp.Wait()
}

// walk traverses directories in the calling goroutine and hands each file to
// the group, only file rendering counts against the concurrency bound.
func (w *walker) walk(path string, variables map[string]any, warn *warningSink, grp *errgroup.Group) {
	info, err := w.fsys.Stat(path)
	if err != nil {
		warn.addf(path, "cannot stat: %v", err)
		return
	}

	if !info.IsDir() {
		grp.Go(func() error {
			w.applyFile(path, info, variables, warn)
			return nil
		})
		return
	}

	entries, err := w.fsys.ReadDir(path)
	if err != nil {
		warn.addf(path, "cannot list directory: %v", err)
		return
	}

	for _, entry := range entries {
		w.walk(filepath.Join(path, entry.Name()), variables, warn, grp)
	}
}

func (w *walker) applyFile(path string, info fs.FileInfo, variables map[string]any, warn *warningSink) {
	if isBinaryPath(path) {
		if w.log != nil {
			w.log.Debugf("Skipping binary file %s", path)
		}
		return
	}

	data, err := w.fsys.ReadFile(path)
	if err != nil {
		warn.addf(path, "cannot read: %v", err)
		return
	}

	if !isPlainText(data) {
		if w.log != nil {
			w.log.Debugf("Skipping non text file %s", path)
		}
		return
	}

	if !w.render.containsTemplate(string(data)) {
		return
	}

	rendered, err := w.render.renderBytes(filepath.Base(path), data, variables)
	if err != nil {
		warn.addf(path, "render failed: %v", err)
		return
	}

	if bytes.Equal(rendered, data) {
		return
	}

	err = w.fsys.WriteFile(path, rendered, info.Mode().Perm())
	if err != nil {
		warn.addf(path, "cannot write: %v", err)
		return
	}

	if w.log != nil {
		w.log.Debugf("Substituted variables in %s", path)
	}
}

func isBinaryPath(path string) bool {
	_, ok := binaryExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// isPlainText reports whether data looks like renderable text, valid UTF-8
// without NUL bytes.
func isPlainText(data []byte) bool {
	if bytes.IndexByte(data, 0) != -1 {
		return false
	}
	return utf8.Valid(data)
}
