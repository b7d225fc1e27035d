// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
)

// postProcess runs the configured post-processing rules over files. Rules map
// a filename glob to a shell command, with "{}" in arguments replaced by the
// file path. When no placeholder is present the path is appended. Failures
// are reported as warnings, the files themselves are already written and a
// broken formatter must not fail the run.
func postProcess(rules []map[string]string, files []string, log Logger, warn *warningSink) {
	if len(rules) == 0 {
		return
	}

	for _, f := range files {
		for _, rule := range rules {
			for glob, tool := range rule {
				matched, err := filepath.Match(glob, filepath.Base(f))
				if err != nil {
					warn.addf(f, "invalid post-processing glob %q: %v", glob, err)
					continue
				}

				if !matched {
					continue
				}

				err = runPostTool(tool, f, log)
				if err != nil {
					warn.addf(f, "post-processing failed: %v", err)
				}
			}
		}
	}
}

func runPostTool(tool string, file string, log Logger) error {
	parts, err := shellquote.Split(tool)
	if err != nil {
		return err
	}

	if len(parts) == 0 {
		return fmt.Errorf("empty post-processing command")
	}

	cmd := parts[0]
	var args []string
	hasPlaceholder := false
	for _, p := range parts[1:] {
		if strings.Contains(p, "{}") {
			args = append(args, strings.ReplaceAll(p, "{}", file))
			hasPlaceholder = true
		} else {
			args = append(args, p)
		}
	}

	if !hasPlaceholder {
		args = append(args, file)
	}

	if log != nil {
		log.Infof("Post processing using: %s %s", cmd, strings.Join(args, " "))
	}

	out, err := exec.Command(cmd, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w, output: %q", err, out)
	}

	return nil
}
