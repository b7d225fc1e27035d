// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"path/filepath"
	"sync"
)

// leaseRegistry serializes scaffold operations per target root. Two
// simultaneous operations against the same target would race on the existence
// checks that implement the non-destructive guarantee, so at most one holds
// the lease at any time and later arrivals fail fast with ErrTargetBusy.
type leaseRegistry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newLeaseRegistry() *leaseRegistry {
	return &leaseRegistry{active: map[string]struct{}{}}
}

// acquire takes the lease for target and returns a release function. The
// target is normalized to an absolute path so differently spelled paths to
// the same directory share one lease.
func (l *leaseRegistry) acquire(target string) (func(), error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[abs]; busy {
		return nil, ErrTargetBusy
	}

	l.active[abs] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, abs)
			l.mu.Unlock()
		})
	}

	return release, nil
}
