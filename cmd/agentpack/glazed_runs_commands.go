package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"agentpack/internal/model"
	"agentpack/internal/serviceapi"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
)

type runsListGlazedCommand struct {
	*cmds.CommandDescription
}

type runsListSettings struct {
	Agent  string `glazed.parameter:"agent"`
	Limit  int    `glazed.parameter:"limit"`
	DB     string `glazed.parameter:"db"`
	Policy string `glazed.parameter:"policy"`
	Server string `glazed.parameter:"server"`
}

func newRunsListGlazedCommand() (*runsListGlazedCommand, error) {
	return &runsListGlazedCommand{
		CommandDescription: cmds.NewCommandDescription(
			"list",
			cmds.WithShort("List recorded runs, newest first"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"agent",
					parameters.ParameterTypeString,
					parameters.WithHelp("Only show runs of this agent"),
					parameters.WithDefault(""),
				),
				parameters.NewParameterDefinition(
					"limit",
					parameters.ParameterTypeInteger,
					parameters.WithHelp("Maximum number of runs to show (0 = no limit)"),
					parameters.WithDefault(20),
				),
				parameters.NewParameterDefinition(
					"db",
					parameters.ParameterTypeString,
					parameters.WithHelp("Path to the history database (defaults to the policy's db_path)"),
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
					parameters.WithHelp("Base URL of a running `agentpack serve` to read from instead of the local database"),
					parameters.WithDefault(""),
				),
			),
		),
	}, nil
}

func (c *runsListGlazedCommand) Run(ctx context.Context, parsedLayers *layers.ParsedLayers) error {
	settings := &runsListSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, settings); err != nil {
		return err
	}

	core, err := coreFromSettings(settings.Policy, settings.Server, settings.DB)
	if err != nil {
		return err
	}
	defer core.Shutdown()

	records, err := core.ListRuns(settings.Agent, settings.Limit)
	if err != nil {
		if errors.Is(err, serviceapi.ErrHistoryDisabled) {
			return fmt.Errorf("run history is disabled (enable it in the policy, or pass --db)")
		}
		return err
	}
	if len(records) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-13s  %-11s  %-5s  %s\n", "RUN", "AGENT", "STATUS", "EXIT", "STARTED")
	for _, record := range records {
		fmt.Printf("%-36s  %-13s  %-11s  %-5s  %s\n",
			record.RunID,
			record.Agent,
			record.Status,
			exitDisplay(record),
			record.StartedAt.Format(time.RFC3339),
		)
	}
	return nil
}

func exitDisplay(record model.RunRecord) string {
	if record.Status == model.RunStatusRunning {
		return "-"
	}
	return strconv.Itoa(record.ExitCode)
}

var _ cmds.BareCommand = &runsListGlazedCommand{}

type runsShowGlazedCommand struct {
	*cmds.CommandDescription
}

type runsShowSettings struct {
	RunID  string `glazed.parameter:"run-id"`
	DB     string `glazed.parameter:"db"`
	Policy string `glazed.parameter:"policy"`
	Server string `glazed.parameter:"server"`
}

func newRunsShowGlazedCommand() (*runsShowGlazedCommand, error) {
	return &runsShowGlazedCommand{
		CommandDescription: cmds.NewCommandDescription(
			"show",
			cmds.WithShort("Show one recorded run in full"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"run-id",
					parameters.ParameterTypeString,
					parameters.WithHelp("Run id, or a unique prefix of one"),
					parameters.WithDefault(""),
				),
				parameters.NewParameterDefinition(
					"db",
					parameters.ParameterTypeString,
					parameters.WithHelp("Path to the history database (defaults to the policy's db_path)"),
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
					parameters.WithHelp("Base URL of a running `agentpack serve` to read from instead of the local database"),
					parameters.WithDefault(""),
				),
			),
		),
	}, nil
}

func (c *runsShowGlazedCommand) Run(ctx context.Context, parsedLayers *layers.ParsedLayers) error {
	settings := &runsShowSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, settings); err != nil {
		return err
	}
	if settings.RunID == "" {
		return fmt.Errorf("--run-id is required")
	}

	core, err := coreFromSettings(settings.Policy, settings.Server, settings.DB)
	if err != nil {
		return err
	}
	defer core.Shutdown()

	record, err := core.GetRun(settings.RunID)
	if err != nil {
		if errors.Is(err, serviceapi.ErrHistoryDisabled) {
			return fmt.Errorf("run history is disabled (enable it in the policy, or pass --db)")
		}
		return err
	}

	fmt.Printf("Run:             %s\n", record.RunID)
	fmt.Printf("Agent:           %s\n", record.Agent)
	fmt.Printf("Status:          %s\n", record.Status)
	if record.Status.Terminal() {
		fmt.Printf("Exit code:       %d\n", record.ExitCode)
	}
	fmt.Printf("Model:           %s\n", record.Model)
	fmt.Printf("Permission mode: %s\n", record.PermissionMode)
	fmt.Printf("Prompt bytes:    %d\n", record.PromptBytes)
	fmt.Printf("Started:         %s\n", record.StartedAt.Format(time.RFC3339))
	if record.FinishedAt != nil {
		fmt.Printf("Finished:        %s\n", record.FinishedAt.Format(time.RFC3339))
		fmt.Printf("Duration:        %s\n", record.FinishedAt.Sub(record.StartedAt).Round(time.Millisecond))
	}
	if len(record.Argv) > 0 {
		fmt.Printf("Argv:            %s\n", strings.Join(record.Argv, " "))
	}
	if record.ErrorText != "" {
		fmt.Printf("Error:           %s\n", record.ErrorText)
	}
	return nil
}

var _ cmds.BareCommand = &runsShowGlazedCommand{}

type runsPruneGlazedCommand struct {
	*cmds.CommandDescription
}

type runsPruneSettings struct {
	OlderThan string `glazed.parameter:"older-than"`
	DB        string `glazed.parameter:"db"`
	Policy    string `glazed.parameter:"policy"`
}

func newRunsPruneGlazedCommand() (*runsPruneGlazedCommand, error) {
	return &runsPruneGlazedCommand{
		CommandDescription: cmds.NewCommandDescription(
			"prune",
			cmds.WithShort("Mark stale running rows as interrupted"),
			cmds.WithLong("Runs that never reached a terminal status (killed terminals, power loss) stay `running` forever. Prune flips rows older than the cutoff to `interrupted`."),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"older-than",
					parameters.ParameterTypeString,
					parameters.WithHelp("Age cutoff as a Go duration, e.g. 90m or 2h"),
					parameters.WithDefault("2h"),
				),
				parameters.NewParameterDefinition(
					"db",
					parameters.ParameterTypeString,
					parameters.WithHelp("Path to the history database (defaults to the policy's db_path)"),
					parameters.WithDefault(""),
				),
				parameters.NewParameterDefinition(
					"policy",
					parameters.ParameterTypeString,
					parameters.WithHelp("Path to the policy file (defaults to .agentpack/policy.json)"),
					parameters.WithDefault(""),
				),
			),
		),
	}, nil
}

func (c *runsPruneGlazedCommand) Run(ctx context.Context, parsedLayers *layers.ParsedLayers) error {
	settings := &runsPruneSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, settings); err != nil {
		return err
	}
	olderThan, err := parseDurationSetting("older-than", settings.OlderThan)
	if err != nil {
		return err
	}

	core, err := coreFromSettings(settings.Policy, "", settings.DB)
	if err != nil {
		return err
	}
	defer core.Shutdown()

	pruned, err := core.PruneStale(olderThan)
	if err != nil {
		if errors.Is(err, serviceapi.ErrHistoryDisabled) {
			return fmt.Errorf("run history is disabled (enable it in the policy, or pass --db)")
		}
		return err
	}
	if len(pruned) == 0 {
		fmt.Println("No stale runs.")
		return nil
	}
	for _, runID := range pruned {
		fmt.Printf("interrupted %s\n", runID)
	}
	fmt.Printf("Pruned %d run(s) older than %s.\n", len(pruned), olderThan)
	return nil
}

var _ cmds.BareCommand = &runsPruneGlazedCommand{}
