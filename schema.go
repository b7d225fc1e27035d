// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package kitforge

import (
	"fmt"
	"sort"

	"github.com/kitforge-io/kitforge/internal/validator"
	"github.com/spf13/cast"
)

// VariableSchema is a JSON-Schema-like description of the variables a
// descriptor accepts.
type VariableSchema struct {
	Type                 string                     `yaml:"type"`
	Properties           map[string]*SchemaProperty `yaml:"properties"`
	Required             []string                   `yaml:"required"`
	AdditionalProperties *bool                      `yaml:"additionalProperties"`
}

// SchemaProperty describes a single variable. Validation holds an optional
// expression evaluated against the value, with the value available as "value"
// and the full variable map as "input".
type SchemaProperty struct {
	Type        string                     `yaml:"type"`
	Description string                     `yaml:"description"`
	Default     any                        `yaml:"default"`
	Enum        []string                   `yaml:"enum"`
	Validation  string                     `yaml:"validation"`
	Properties  map[string]*SchemaProperty `yaml:"properties"`
	Required    []string                   `yaml:"required"`
}

// ValidateVariables checks raw against schema and returns the validated
// variable map. Defaults declared in the schema are applied for absent
// properties before any checks run. All violations are collected as
// "path: message" entries, not just the first. This is a pure function, it
// performs no I/O and does not mutate raw.
func ValidateVariables(schema *VariableSchema, raw map[string]any) (map[string]any, []string) {
	variables := make(map[string]any, len(raw))
	for k, v := range raw {
		variables[k] = v
	}

	if schema == nil {
		return variables, nil
	}

	errs := validateObject(schema.Properties, schema.Required, schema.AdditionalProperties, variables, "", variables)

	return variables, errs
}

func validateObject(props map[string]*SchemaProperty, required []string, additional *bool, values map[string]any, path string, root map[string]any) []string {
	var errs []string

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := props[name]
		propPath := name
		if path != "" {
			propPath = path + "." + name
		}

		value, present := values[name]
		if !present && prop.Default != nil {
			value = coerceDefault(prop.Type, prop.Default)
			values[name] = value
			present = true
		}

		if !present {
			if isRequired(name, required) {
				errs = append(errs, fmt.Sprintf("%s: required property is missing", propPath))
			}
			continue
		}

		// nested objects are copied so defaulting never mutates the caller's input
		if nested, ok := value.(map[string]any); ok && prop.Type == "object" && len(prop.Properties) > 0 {
			copied := make(map[string]any, len(nested))
			for k, v := range nested {
				copied[k] = v
			}
			values[name] = copied
			value = copied
		}

		errs = append(errs, validateValue(prop, propPath, value, root)...)
	}

	if additional != nil && !*additional {
		var unknown []string
		for name := range values {
			if _, ok := props[name]; !ok {
				p := name
				if path != "" {
					p = path + "." + name
				}
				unknown = append(unknown, fmt.Sprintf("%s: property is not allowed", p))
			}
		}
		sort.Strings(unknown)
		errs = append(errs, unknown...)
	}

	return errs
}

func validateValue(prop *SchemaProperty, path string, value any, root map[string]any) []string {
	var errs []string

	if prop.Type != "" && !matchesType(prop.Type, value) {
		errs = append(errs, fmt.Sprintf("%s: expected %s, got %T", path, prop.Type, value))
		return errs
	}

	if len(prop.Enum) > 0 {
		sval := cast.ToString(value)
		found := false
		for _, e := range prop.Enum {
			if sval == e {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Sprintf("%s: value %q is not one of %v", path, sval, prop.Enum))
		}
	}

	if prop.Validation != "" {
		ok, err := validator.Validate(map[string]any{"value": value, "input": root}, prop.Validation)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("%s: validation failed: %v", path, err))
		case !ok:
			errs = append(errs, fmt.Sprintf("%s: did not pass validation %q", path, prop.Validation))
		}
	}

	if prop.Type == "object" && len(prop.Properties) > 0 {
		nested, ok := value.(map[string]any)
		if ok {
			errs = append(errs, validateObject(prop.Properties, prop.Required, nil, nested, path, root)...)
		}
	}

	return errs
}

func matchesType(typ string, value any) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean", "bool":
		_, ok := value.(bool)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int32, int64, uint, uint32, uint64:
			return true
		case float64:
			return v == float64(int64(v))
		default:
			return false
		}
	case "number", "float":
		switch value.(type) {
		case int, int32, int64, uint, uint32, uint64, float32, float64:
			return true
		default:
			return false
		}
	case "array":
		switch value.(type) {
		case []any, []string:
			return true
		default:
			return false
		}
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

// coerceDefault converts a declared default to the declared type so that yaml
// scalars like "true" or "42" behave as their schema type.
func coerceDefault(typ string, dflt any) any {
	switch typ {
	case "boolean", "bool":
		return cast.ToBool(dflt)
	case "integer":
		return cast.ToInt(dflt)
	case "number", "float":
		return cast.ToFloat64(dflt)
	case "string":
		return cast.ToString(dflt)
	default:
		return dflt
	}
}

func isRequired(name string, required []string) bool {
	for _, r := range required {
		if r == name {
			return true
		}
	}
	return false
}
