// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/choria-io/fisk"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kitforge-io/kitforge"
	"github.com/kitforge-io/kitforge/prompt"
)

var (
	templates   string
	workspace   string
	target      string
	name        string
	stringData  map[string]string
	jsonData    string
	monolith    bool
	marker      string
	interactive bool
	noop        bool
	post        map[string]string
	version     string
)

func main() {
	stringData = map[string]string{}
	post = map[string]string{}

	app := fisk.New("kitforge", "Scaffolds projects and features from versioned templates")
	app.Version(version)

	app.Help = `
Materializes project skeletons and incremental features from template
directories described by scaffold.yaml manifests. Existing files are never
overwritten, re-running a scaffold is always safe.
`

	app.Flag("templates", "The directory holding template directories").Default("templates").StringVar(&templates)
	app.Flag("workspace", "The workspace to generate into").Default(".").StringVar(&workspace)

	list := app.Command("list", "Lists available boilerplates and features").Action(listAction)
	list.HelpLong("Scans the templates directory and shows every boilerplate and feature it declares.")

	boilerplate := app.Command("boilerplate", "Scaffolds a full project skeleton").Action(boilerplateAction)
	boilerplate.Arg("name", "The boilerplate to scaffold").Required().StringVar(&name)
	boilerplate.Arg("data", "Variables to pass to the templates").StringMapVar(&stringData)
	boilerplate.Flag("json", "Loads variables from a JSON file").PlaceHolder("FILE").ExistingFileVar(&jsonData)
	boilerplate.Flag("monolith", "Scaffold into the workspace root without a project sub folder").UnNegatableBoolVar(&monolith)
	boilerplate.Flag("marker", "Overrides the project folder name").StringVar(&marker)
	boilerplate.Flag("interactive", "Prompt for variables missing from the input").UnNegatableBoolVar(&interactive)
	boilerplate.Flag("noop", "Show the plan without writing anything").UnNegatableBoolVar(&noop)
	boilerplate.Flag("post", "Post processing steps").PlaceHolder("PATTERN=TOOL").StringMapVar(&post)

	feature := app.Command("feature", "Adds a feature to an existing project").Action(featureAction)
	feature.Arg("name", "The feature to scaffold").Required().StringVar(&name)
	feature.Arg("data", "Variables to pass to the templates").StringMapVar(&stringData)
	feature.Flag("target", "The project directory to add the feature to").StringVar(&target)
	feature.Flag("json", "Loads variables from a JSON file").PlaceHolder("FILE").ExistingFileVar(&jsonData)
	feature.Flag("monolith", "The workspace is a monolith, resolve the link from its root").UnNegatableBoolVar(&monolith)
	feature.Flag("interactive", "Prompt for variables missing from the input").UnNegatableBoolVar(&interactive)
	feature.Flag("noop", "Show the plan without writing anything").UnNegatableBoolVar(&noop)
	feature.Flag("post", "Post processing steps").PlaceHolder("PATTERN=TOOL").StringMapVar(&post)

	app.MustParseWithUsage(os.Args[1:])
}

func newEngine() (*kitforge.Engine, error) {
	cfg := kitforge.Config{
		TemplatesDirectory: templates,
		WorkspaceDirectory: workspace,
	}

	for k, v := range post {
		cfg.Post = append(cfg.Post, map[string]string{k: v})
	}

	return kitforge.New(cfg, nil)
}

func requestVariables(engine *kitforge.Engine, kind kitforge.DescriptorKind) (map[string]any, error) {
	variables := map[string]any{}
	for k, v := range stringData {
		variables[k] = v
	}

	if jsonData != "" {
		df, err := os.ReadFile(jsonData)
		if err != nil {
			return nil, err
		}
		err = json.Unmarshal(df, &variables)
		if err != nil {
			return nil, err
		}
	}

	if interactive {
		desc, err := engine.Describe(name, kind)
		if err != nil {
			return nil, err
		}

		variables, err = prompt.Collect(desc.Schema, variables)
		if err != nil {
			return nil, err
		}
	}

	return variables, nil
}

func listAction(_ *fisk.ParseContext) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	descriptors, err := engine.Descriptors()
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Name", "Kind", "Description"})
	for _, d := range descriptors {
		tw.AppendRow(table.Row{d.Name, d.Kind, d.Description})
	}
	tw.Render()

	return nil
}

func boilerplateAction(_ *fisk.ParseContext) error {
	return scaffoldAction(kitforge.KindBoilerplate)
}

func featureAction(_ *fisk.ParseContext) error {
	return scaffoldAction(kitforge.KindFeature)
}

func scaffoldAction(kind kitforge.DescriptorKind) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	variables, err := requestVariables(engine, kind)
	if err != nil {
		return err
	}

	req := kitforge.Request{
		Name:            name,
		Variables:       variables,
		TargetDirectory: target,
		Monolith:        monolith,
		Marker:          marker,
	}

	if noop {
		plan, err := engine.Plan(req, kind)
		if err != nil {
			return err
		}

		for _, p := range plan {
			fmt.Printf("%s: %s\n", p.Action, p.Path)
		}

		return nil
	}

	var res *kitforge.Result
	if kind == kitforge.KindBoilerplate {
		res, err = engine.UseBoilerplate(req)
	} else {
		res, err = engine.UseFeature(req)
	}
	if res != nil {
		printResult(res)
	}
	if err != nil {
		return err
	}

	if !res.Success {
		os.Exit(1)
	}

	return nil
}

func printResult(res *kitforge.Result) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Action", "Path"})
	for _, f := range res.CreatedFiles {
		tw.AppendRow(table.Row{"created", f})
	}
	for _, f := range res.ExistingFiles {
		tw.AppendRow(table.Row{"existing", f})
	}
	if len(res.CreatedFiles)+len(res.ExistingFiles) > 0 {
		tw.Render()
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	fmt.Println(res.Message)
}
