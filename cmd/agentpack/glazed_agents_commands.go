package main

import (
	"context"
	"fmt"
	"strings"

	"agentpack/internal/serviceapi"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
)

type agentsListGlazedCommand struct {
	*cmds.CommandDescription
}

type agentsListSettings struct {
	Policy string `glazed.parameter:"policy"`
	Server string `glazed.parameter:"server"`
}

func newAgentsListGlazedCommand() (*agentsListGlazedCommand, error) {
	return &agentsListGlazedCommand{
		CommandDescription: cmds.NewCommandDescription(
			"list",
			cmds.WithShort("List the packaged agents"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"policy",
					parameters.ParameterTypeString,
					parameters.WithHelp("Path to the policy file (defaults to .agentpack/policy.json)"),
					parameters.WithDefault(""),
				),
				parameters.NewParameterDefinition(
					"server",
					parameters.ParameterTypeString,
					parameters.WithHelp("Base URL of a running `agentpack serve` to read from instead of the local catalog"),
					parameters.WithDefault(""),
				),
			),
		),
	}, nil
}

func (c *agentsListGlazedCommand) Run(ctx context.Context, parsedLayers *layers.ParsedLayers) error {
	settings := &agentsListSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, settings); err != nil {
		return err
	}

	core, err := coreFromSettings(settings.Policy, settings.Server, "")
	if err != nil {
		return err
	}
	defer core.Shutdown()

	infos := core.Agents()
	if len(infos) == 0 {
		return fmt.Errorf("no agents available")
	}
	for _, info := range infos {
		kind := "repo"
		if info.Browser {
			kind = "browser"
		}
		fmt.Printf("%-14s %-8s mode=%-18s %s\n", info.Name, kind, info.PermissionMode, info.Short)
	}
	return nil
}

var _ cmds.BareCommand = &agentsListGlazedCommand{}

type agentsShowGlazedCommand struct {
	*cmds.CommandDescription
}

type agentsShowSettings struct {
	Agent  string `glazed.parameter:"agent"`
	Policy string `glazed.parameter:"policy"`
	Server string `glazed.parameter:"server"`
}

func newAgentsShowGlazedCommand() (*agentsShowGlazedCommand, error) {
	return &agentsShowGlazedCommand{
		CommandDescription: cmds.NewCommandDescription(
			"show",
			cmds.WithShort("Show one agent's usage, flags, and runtime defaults"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"agent",
					parameters.ParameterTypeString,
					parameters.WithHelp("Agent name, e.g. linkrot or changelog"),
					parameters.WithDefault(""),
				),
				parameters.NewParameterDefinition(
					"policy",
					parameters.ParameterTypeString,
					parameters.WithHelp("Path to the policy file (defaults to .agentpack/policy.json)"),
					parameters.WithDefault(""),
				),
				parameters.NewParameterDefinition(
					"server",
					parameters.ParameterTypeString,
					parameters.WithHelp("Base URL of a running `agentpack serve` to read from instead of the local catalog"),
					parameters.WithDefault(""),
				),
			),
		),
	}, nil
}

func (c *agentsShowGlazedCommand) Run(ctx context.Context, parsedLayers *layers.ParsedLayers) error {
	settings := &agentsShowSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, settings); err != nil {
		return err
	}
	if settings.Agent == "" {
		return fmt.Errorf("--agent is required")
	}

	core, err := coreFromSettings(settings.Policy, settings.Server, "")
	if err != nil {
		return err
	}
	defer core.Shutdown()

	usage, ok := core.AgentUsage(settings.Agent)
	if !ok {
		return fmt.Errorf("unknown agent %q (known: %s)", settings.Agent, strings.Join(agentNames(core), ", "))
	}
	fmt.Print(usage)

	for _, info := range core.Agents() {
		if info.Name != settings.Agent {
			continue
		}
		fmt.Println("")
		fmt.Println("Runtime defaults:")
		fmt.Printf("  permission mode: %s\n", info.PermissionMode)
		fmt.Printf("  allowed tools:   %s\n", strings.Join(info.AllowedTools, ","))
		break
	}
	return nil
}

func agentNames(core serviceapi.Core) []string {
	infos := core.Agents()
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names
}

var _ cmds.BareCommand = &agentsShowGlazedCommand{}
