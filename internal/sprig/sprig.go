// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package sprig exposes the Sprig template function map with the environment
// variable helpers removed and safe replacements for the crypto helpers.
package sprig

import (
	"crypto/rand"
	"encoding/base64"
	"text/template"

	upstream "github.com/Masterminds/sprig/v3"
	"github.com/google/uuid"
)

// FuncMap returns the template functions available in Go-template rendering.
func FuncMap() template.FuncMap {
	funcs := upstream.TxtFuncMap()

	// templates render third party scaffolds, keep the process environment out of reach
	delete(funcs, "env")
	delete(funcs, "expandenv")

	funcs["uuidv4"] = uuidv4
	funcs["randBytes"] = randBytes

	return funcs
}

func randBytes(count int) (string, error) {
	buf := make([]byte, count)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// uuidv4 provides a safe and secure UUID v4 implementation
func uuidv4() string {
	return uuid.New().String()
}
