package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agentpack/internal/events"
	"agentpack/internal/policy"
	"agentpack/internal/server"
	"agentpack/internal/store"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
)

type policyInitGlazedCommand struct {
	*cmds.CommandDescription
}

type policyInitSettings struct {
	Path string `glazed.parameter:"path"`
}

func newPolicyInitGlazedCommand() (*policyInitGlazedCommand, error) {
	return &policyInitGlazedCommand{
		CommandDescription: cmds.NewCommandDescription(
			"policy-init",
			cmds.WithShort("Write a default policy file"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"path",
					parameters.ParameterTypeString,
					parameters.WithHelp("Where to write the policy file"),
					parameters.WithDefault(policy.DefaultPolicyPath),
				),
			),
		),
	}, nil
}

func (c *policyInitGlazedCommand) Run(ctx context.Context, parsedLayers *layers.ParsedLayers) error {
	settings := &policyInitSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, settings); err != nil {
		return err
	}
	if err := policy.SaveDefault(settings.Path); err != nil {
		return err
	}
	fmt.Printf("Wrote default policy to %s\n", settings.Path)
	return nil
}

var _ cmds.BareCommand = &policyInitGlazedCommand{}

type doctorGlazedCommand struct {
	*cmds.CommandDescription
}

type doctorSettings struct {
	Policy string `glazed.parameter:"policy"`
	DB     string `glazed.parameter:"db"`
}

func newDoctorGlazedCommand() (*doctorGlazedCommand, error) {
	return &doctorGlazedCommand{
		CommandDescription: cmds.NewCommandDescription(
			"doctor",
			cmds.WithShort("Check the local setup: agent binary, history database, policy, events"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"policy",
					parameters.ParameterTypeString,
					parameters.WithHelp("Path to the policy file (defaults to .agentpack/policy.json)"),
					parameters.WithDefault(""),
				),
				parameters.NewParameterDefinition(
					"db",
					parameters.ParameterTypeString,
					parameters.WithHelp("Path to the history database (defaults to the policy's db_path)"),
					parameters.WithDefault(""),
				),
			),
		),
	}, nil
}

func (c *doctorGlazedCommand) Run(ctx context.Context, parsedLayers *layers.ParsedLayers) error {
	settings := &doctorSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, settings); err != nil {
		return err
	}

	failures := 0

	cfg, cfgPath, err := policy.Load(settings.Policy)
	if err != nil {
		fmt.Printf("policy: FAILED (%v)\n", err)
		cfg = policy.Default()
		failures++
	} else {
		fmt.Printf("policy: ok (%s)\n", cfgPath)
	}
	if settings.DB != "" {
		cfg.History.DBPath = settings.DB
		cfg.History.Enabled = true
	}

	agentMissing := false
	if _, err := exec.LookPath(cfg.Agent.Command); err != nil {
		fmt.Printf("agent binary: MISSING (%q not found in PATH)\n", cfg.Agent.Command)
		agentMissing = true
	} else {
		fmt.Printf("agent binary: ok (%s, %s)\n", cfg.Agent.Command, agentVersion(ctx, cfg.Agent.Command))
	}

	switch {
	case !cfg.History.Enabled:
		fmt.Println("history: disabled by policy")
	case !store.NewSQLiteStore(cfg.History.DBPath).Available():
		fmt.Println("history: DEGRADED (sqlite3 not found in PATH, runs will not be recorded)")
	default:
		st := store.NewSQLiteStore(cfg.History.DBPath)
		if err := st.Init(); err != nil {
			fmt.Printf("history: FAILED (%v)\n", err)
			failures++
		} else {
			fmt.Printf("history: ok (%s)\n", cfg.History.DBPath)
		}
	}

	if cfg.Events.RedisURL == "" {
		fmt.Println("events: disabled by policy")
	} else if pub, err := events.NewPublisher(cfg.Events.RedisURL, cfg.Events.Stream); err != nil {
		fmt.Printf("events: FAILED (%v)\n", err)
		failures++
	} else {
		_ = pub.Close()
		fmt.Printf("events: configured (stream %s)\n", cfg.Events.Stream)
	}

	if err := os.MkdirAll(cfg.Reports.Dir, 0o755); err != nil {
		fmt.Printf("reports dir: FAILED (%v)\n", err)
		failures++
	} else {
		fmt.Printf("reports dir: ok (%s)\n", cfg.Reports.Dir)
	}

	if agentMissing {
		return fmt.Errorf("agent binary %q not found in PATH", cfg.Agent.Command)
	}
	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	fmt.Println("All checks passed.")
	return nil
}

func agentVersion(ctx context.Context, command string) string {
	versionCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(versionCtx, command, "--version").Output()
	if err != nil {
		return "version unknown"
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if line == "" {
		return "version unknown"
	}
	return line
}

var _ cmds.BareCommand = &doctorGlazedCommand{}

type serveGlazedCommand struct {
	*cmds.CommandDescription
}

type serveSettings struct {
	Addr            string `glazed.parameter:"addr"`
	DB              string `glazed.parameter:"db"`
	Policy          string `glazed.parameter:"policy"`
	SweepInterval   string `glazed.parameter:"sweep-interval"`
	StaleAfter      string `glazed.parameter:"stale-after"`
	LogPeriod       string `glazed.parameter:"log-period"`
	ShutdownTimeout string `glazed.parameter:"shutdown-timeout"`
}

func newServeGlazedCommand() (*serveGlazedCommand, error) {
	return &serveGlazedCommand{
		CommandDescription: cmds.NewCommandDescription(
			"serve",
			cmds.WithShort("Serve the agent catalog and run history over HTTP"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"addr",
					parameters.ParameterTypeString,
					parameters.WithHelp("Listen address"),
					parameters.WithDefault(":3001"),
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
					"sweep-interval",
					parameters.ParameterTypeString,
					parameters.WithHelp("How often the sweeper checks for stale runs, e.g. 30s"),
					parameters.WithDefault("30s"),
				),
				parameters.NewParameterDefinition(
					"stale-after",
					parameters.ParameterTypeString,
					parameters.WithHelp("Age after which a running row counts as stale, e.g. 2h"),
					parameters.WithDefault("2h"),
				),
				parameters.NewParameterDefinition(
					"log-period",
					parameters.ParameterTypeString,
					parameters.WithHelp("How often the sweeper logs a snapshot, e.g. 1m"),
					parameters.WithDefault("1m"),
				),
				parameters.NewParameterDefinition(
					"shutdown-timeout",
					parameters.ParameterTypeString,
					parameters.WithHelp("Grace period for in-flight requests on shutdown, e.g. 5s"),
					parameters.WithDefault("5s"),
				),
			),
		),
	}, nil
}

func (c *serveGlazedCommand) Run(ctx context.Context, parsedLayers *layers.ParsedLayers) error {
	settings := &serveSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, settings); err != nil {
		return err
	}

	sweepInterval, err := parseDurationSetting("sweep-interval", settings.SweepInterval)
	if err != nil {
		return err
	}
	staleAfter, err := parseDurationSetting("stale-after", settings.StaleAfter)
	if err != nil {
		return err
	}
	logPeriod, err := parseDurationSetting("log-period", settings.LogPeriod)
	if err != nil {
		return err
	}
	shutdownTimeout, err := parseDurationSetting("shutdown-timeout", settings.ShutdownTimeout)
	if err != nil {
		return err
	}

	runtime, err := server.NewRuntime(server.Options{
		Addr:            settings.Addr,
		PolicyPath:      settings.Policy,
		DBPath:          settings.DB,
		SweepInterval:   sweepInterval,
		StaleAfter:      staleAfter,
		LogPeriod:       logPeriod,
		ShutdownTimeout: shutdownTimeout,
	})
	if err != nil {
		return err
	}

	serveCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("agentpack serve listening on %s\n", settings.Addr)
	return runtime.Run(serveCtx)
}

func parseDurationSetting(flagName string, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid --%s duration %q: %w", flagName, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid --%s duration %q: must be positive", flagName, value)
	}
	return d, nil
}

var _ cmds.BareCommand = &serveGlazedCommand{}
