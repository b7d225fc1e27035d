// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package prompt interactively collects scaffold variables on a terminal. It
// walks a descriptor's variable schema and asks for every property that was
// not already supplied, honoring defaults, enums, required flags and
// validation expressions.
package prompt

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/kitforge-io/kitforge"
	"github.com/kitforge-io/kitforge/internal/validator"
	"github.com/spf13/cast"
	terminal "golang.org/x/term"
)

// surveyor abstracts the survey library for testability.
type surveyor interface {
	AskOne(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error
}

type defaultSurveyor struct{}

func (d *defaultSurveyor) AskOne(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	return survey.AskOne(p, response, opts...)
}

type collector struct {
	surveyor   surveyor
	isTerminal func() bool
	output     io.Writer
}

type collectOption func(*collector)

func withSurveyor(s surveyor) collectOption {
	return func(c *collector) {
		c.surveyor = s
	}
}

func withIsTerminal(f func() bool) collectOption {
	return func(c *collector) {
		c.isTerminal = f
	}
}

func withOutput(w io.Writer) collectOption {
	return func(c *collector) {
		c.output = w
	}
}

// Collect prompts for every schema property absent from supplied and returns
// the completed variable map. It requires a valid terminal. The supplied map
// is not mutated.
func Collect(schema *kitforge.VariableSchema, supplied map[string]any, opts ...collectOption) (map[string]any, error) {
	c := &collector{
		surveyor:   &defaultSurveyor{},
		isTerminal: isTerminal,
		output:     os.Stdout,
	}

	for _, o := range opts {
		o(c)
	}

	if !c.isTerminal() {
		return nil, fmt.Errorf("can only collect variables on a valid terminal")
	}

	variables := make(map[string]any, len(supplied))
	for k, v := range supplied {
		variables[k] = v
	}

	if schema == nil {
		return variables, nil
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := variables[name]; ok {
			continue
		}

		value, err := c.askProperty(name, schema.Properties[name], isRequired(name, schema.Required))
		if err != nil {
			return nil, err
		}

		if value != nil {
			variables[name] = value
		}
	}

	return variables, nil
}

func (c *collector) askProperty(name string, prop *kitforge.SchemaProperty, required bool) (any, error) {
	c.printDescription(name, prop)

	switch prop.Type {
	case "boolean", "bool":
		return c.askBool(name, prop)

	case "integer":
		return c.askNumeric(name, prop, required, "isInt(value)", func(s string) (any, error) {
			return strconv.Atoi(s)
		})

	case "number", "float":
		return c.askNumeric(name, prop, required, "isFloat(value)", func(s string) (any, error) {
			return strconv.ParseFloat(s, 64)
		})

	case "array":
		return c.askArray(name, prop, required)

	case "string", "":
		return c.askString(name, prop, required)

	default:
		return nil, fmt.Errorf("unsupported property type %q for interactive collection", prop.Type)
	}
}

func (c *collector) askString(name string, prop *kitforge.SchemaProperty, required bool) (any, error) {
	if len(prop.Enum) > 0 {
		return c.askEnum(name, prop, required)
	}

	var ans string
	var opts []survey.AskOpt

	if required {
		opts = append(opts, survey.WithValidator(survey.MinLength(1)))
	}
	if prop.Validation != "" {
		opts = append(opts, survey.WithValidator(validator.SurveyValidator(prop.Validation, required)))
	}

	err := c.surveyor.AskOne(&survey.Input{
		Message: name,
		Help:    prop.Description,
		Default: cast.ToString(prop.Default),
	}, &ans, opts...)
	if err != nil {
		return nil, err
	}

	if ans == "" && !required {
		return nil, nil
	}

	return ans, nil
}

func (c *collector) askEnum(name string, prop *kitforge.SchemaProperty, required bool) (any, error) {
	var ans string
	var opts []survey.AskOpt

	if required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}

	deflt := cast.ToString(prop.Default)
	if deflt == "" {
		deflt = prop.Enum[0]
	}

	err := c.surveyor.AskOne(&survey.Select{
		Message: name,
		Help:    prop.Description,
		Default: deflt,
		Options: prop.Enum,
	}, &ans, opts...)
	if err != nil {
		return nil, err
	}

	return ans, nil
}

func (c *collector) askBool(name string, prop *kitforge.SchemaProperty) (any, error) {
	var ans bool

	err := c.surveyor.AskOne(&survey.Confirm{
		Message: name,
		Help:    prop.Description,
		Default: cast.ToBool(prop.Default),
	}, &ans)
	if err != nil {
		return nil, err
	}

	return ans, nil
}

func (c *collector) askNumeric(name string, prop *kitforge.SchemaProperty, required bool, check string, parse func(string) (any, error)) (any, error) {
	validation := check
	if prop.Validation != "" {
		validation = fmt.Sprintf("%s && %s", validation, prop.Validation)
	}

	var ans string

	err := c.surveyor.AskOne(&survey.Input{
		Message: name,
		Help:    prop.Description,
		Default: cast.ToString(prop.Default),
	}, &ans, survey.WithValidator(validator.SurveyValidator(validation, required)))
	if err != nil {
		return nil, err
	}

	if ans == "" && !required {
		return nil, nil
	}

	return parse(ans)
}

// askArray repeatedly prompts for entries until an empty answer is given.
func (c *collector) askArray(name string, prop *kitforge.SchemaProperty, required bool) (any, error) {
	var values []any

	for {
		var ans string
		var opts []survey.AskOpt

		if prop.Validation != "" {
			opts = append(opts, survey.WithValidator(validator.SurveyValidator(prop.Validation, false)))
		}

		err := c.surveyor.AskOne(&survey.Input{
			Message: fmt.Sprintf("%s (empty to finish)", name),
			Help:    prop.Description,
		}, &ans, opts...)
		if err != nil {
			return nil, err
		}

		if ans == "" {
			break
		}

		values = append(values, ans)
	}

	if len(values) == 0 {
		if required {
			return nil, fmt.Errorf("at least one %s entry is required", name)
		}
		return nil, nil
	}

	return values, nil
}

func (c *collector) printDescription(name string, prop *kitforge.SchemaProperty) {
	if prop.Description == "" {
		return
	}

	fmt.Fprintln(c.output)
	fmt.Fprintln(c.output, text.Colors{text.Bold}.Sprint(name))
	fmt.Fprintln(c.output, prop.Description)
	fmt.Fprintln(c.output)
}

func isTerminal() bool {
	return terminal.IsTerminal(int(os.Stdin.Fd())) && terminal.IsTerminal(int(os.Stdout.Fd()))
}

func isRequired(name string, required []string) bool {
	for _, r := range required {
		if r == name {
			return true
		}
	}
	return false
}
