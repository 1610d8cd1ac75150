package main

import (
	"context"
	"time"

	"agentpack/internal/catalog"
	"agentpack/internal/policy"
	"agentpack/internal/runner"
	"agentpack/internal/serviceapi"

	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/spf13/cobra"
)

func executeCLI(args []string) error {
	rootCmd, err := newRootCommand()
	if err != nil {
		return err
	}
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func newRootCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:           "agentpack",
		Short:         "run packaged LLM agents against sites and repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			printUsage()
			return errCommandRequired
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	defaultHelpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd == rootCmd {
			printUsage()
			return
		}
		defaultHelpFunc(cmd, args)
	})

	agentsParent := &cobra.Command{Use: "agents", Short: "Inspect the agent catalog"}
	agentsList, err := newAgentsListGlazedCommand()
	if err != nil {
		return nil, err
	}
	agentsShow, err := newAgentsShowGlazedCommand()
	if err != nil {
		return nil, err
	}
	if err := addGlazedCommands(agentsParent, agentsList, agentsShow); err != nil {
		return nil, err
	}
	rootCmd.AddCommand(agentsParent)

	runsParent := &cobra.Command{Use: "runs", Short: "Inspect recorded agent runs"}
	runsList, err := newRunsListGlazedCommand()
	if err != nil {
		return nil, err
	}
	runsShow, err := newRunsShowGlazedCommand()
	if err != nil {
		return nil, err
	}
	runsPrune, err := newRunsPruneGlazedCommand()
	if err != nil {
		return nil, err
	}
	if err := addGlazedCommands(runsParent, runsList, runsShow, runsPrune); err != nil {
		return nil, err
	}
	rootCmd.AddCommand(runsParent)

	policyInitCmd, err := newPolicyInitGlazedCommand()
	if err != nil {
		return nil, err
	}
	doctorCmd, err := newDoctorGlazedCommand()
	if err != nil {
		return nil, err
	}
	serveCmd, err := newServeGlazedCommand()
	if err != nil {
		return nil, err
	}
	if err := addGlazedCommands(rootCmd, policyInitCmd, doctorCmd, serveCmd); err != nil {
		return nil, err
	}

	for _, def := range catalog.All() {
		addAgentCommand(rootCmd, def)
	}

	return rootCmd, nil
}

func addGlazedCommands(parent *cobra.Command, commands ...cmds.Command) error {
	for _, command := range commands {
		cobraCommand, err := buildGlazedCobraCommand(command)
		if err != nil {
			return err
		}
		parent.AddCommand(cobraCommand)
	}
	return nil
}

func buildGlazedCobraCommand(command cmds.Command) (*cobra.Command, error) {
	return cli.BuildCobraCommand(
		command,
		cli.WithParserConfig(cli.CobraParserConfig{
			ShortHelpLayers: []string{layers.DefaultSlug},
			MiddlewaresFunc: cli.CobraCommandDefaultMiddlewares,
		}),
		cli.WithCobraMiddlewaresFunc(cli.CobraCommandDefaultMiddlewares),
		cli.WithCobraShortHelpLayers(layers.DefaultSlug),
	)
}

// addAgentCommand mounts one catalog agent with flag parsing disabled,
// so its argv reaches the internal parser untouched.
func addAgentCommand(rootCmd *cobra.Command, def catalog.Definition) {
	cmd := &cobra.Command{
		Use:                def.Name,
		Short:              def.Short,
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := policy.Load("")
			if err != nil {
				return err
			}
			service := runner.New(cfg)
			return service.Execute(context.Background(), def, args)
		},
	}
	rootCmd.AddCommand(cmd)
}

// coreFromSettings picks the history/catalog backend the inspection
// commands read from: a running serve instance when --server is set,
// the local policy and database otherwise.
func coreFromSettings(policyPath string, serverURL string, dbPath string) (serviceapi.Core, error) {
	if serverURL != "" {
		return serviceapi.NewRemoteCore(serverURL, 15*time.Second), nil
	}
	cfg, _, err := policy.Load(policyPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.History.DBPath = dbPath
		cfg.History.Enabled = true
	}
	return serviceapi.NewLocalCore(cfg)
}
