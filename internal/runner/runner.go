// Package runner drives one agent invocation end to end: parse argv,
// honor help and dry-run, validate options, merge runtime flags, record
// history, spawn the agent, and propagate its exit code.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"agentpack/internal/argv"
	"agentpack/internal/catalog"
	"agentpack/internal/claude"
	"agentpack/internal/events"
	"agentpack/internal/model"
	"agentpack/internal/policy"
	"agentpack/internal/store"
)

// ExitCodeError carries a nonzero child exit code up through the
// command stack so main can exit with it unchanged.
type ExitCodeError struct {
	Code int
}

func (e ExitCodeError) Error() string {
	return fmt.Sprintf("agent exited with code %d", e.Code)
}

// Service executes agent commands. History and Events are optional;
// both degrade to warnings, never to a changed exit code.
type Service struct {
	Policy  policy.Config
	Invoker claude.Invoker
	History *store.SQLiteStore
	Events  events.Publisher
	Out     io.Writer
	ErrOut  io.Writer
}

func New(p policy.Config) *Service {
	s := &Service{
		Policy:  p,
		Invoker: claude.ProcessInvoker{},
		Events:  events.NopPublisher{},
		Out:     os.Stdout,
		ErrOut:  os.Stderr,
	}
	if p.History.Enabled {
		st := store.NewSQLiteStore(p.History.DBPath)
		if st.Available() {
			s.History = st
		} else {
			fmt.Fprintf(s.ErrOut, "warning: sqlite3 not found, run history disabled\n")
		}
	}
	pub, err := events.NewPublisher(p.Events.RedisURL, p.Events.Stream)
	if err != nil {
		fmt.Fprintf(s.ErrOut, "warning: run events disabled: %v\n", err)
	} else {
		s.Events = pub
	}
	return s
}

// Execute runs one agent command against its raw argv. Help and dry-run
// return before anything spawns; a validation failure returns an error
// and never spawns; otherwise the child's exit code decides the result.
func (s *Service) Execute(ctx context.Context, def catalog.Definition, tokens []string) error {
	args := argv.Parse(tokens, def.Spec())

	if wantsHelp(args) {
		fmt.Fprint(s.Out, def.Usage())
		return nil
	}

	req, err := def.Build(catalog.BuildContext{Policy: s.Policy}, args)
	if err != nil {
		return fmt.Errorf("%s: %w", def.Name, err)
	}

	dryRun := args.ReadBool("dry-run", false)
	args.Strip(def.LocalFlagNames()...)
	ov := claude.OverridesFromArgs(args)
	if ov.PermissionMode != "" {
		if _, err := model.ParsePermissionMode(ov.PermissionMode); err != nil {
			return fmt.Errorf("%s: %w", def.Name, err)
		}
	}

	inv := claude.Invocation{
		Command: s.Policy.Agent.Command,
		Args:    claude.BuildArgs(req.Runtime, ov),
		Prompt:  req.Prompt,
		Dir:     req.Dir,
		Env:     req.Env,
	}

	if dryRun {
		fmt.Fprintf(s.Out, "dry-run: %s %s <prompt>\n", inv.Command, strings.Join(inv.Args, " "))
		fmt.Fprintf(s.Out, "prompt: %d bytes\n", len(inv.Prompt))
		if req.Report != "" {
			fmt.Fprintf(s.Out, "report: %s\n", req.Report)
		}
		return nil
	}

	runID := model.NewRunID()
	s.recordStart(runID, def.Name, req, inv, ov)

	fmt.Fprintf(s.Out, "agentpack: running %s via %s (model %s, permission mode %s)\n",
		def.Name, inv.Command, resolveModel(req.Runtime, ov), resolveMode(req.Runtime, ov))
	if req.Report != "" {
		fmt.Fprintf(s.Out, "agentpack: report path %s\n", req.Report)
	}

	code, err := s.Invoker.Run(ctx, inv)
	if err != nil {
		s.recordFinish(runID, model.RunStatusFailed, 1, err.Error())
		return fmt.Errorf("%s: %w", def.Name, err)
	}

	status := model.RunStatusCompleted
	errorText := ""
	if code != 0 {
		status = model.RunStatusFailed
		errorText = fmt.Sprintf("agent exited with code %d", code)
	}
	s.recordFinish(runID, status, code, errorText)
	s.publish(model.RunEvent{
		RunID:      runID,
		Agent:      def.Name,
		Status:     status,
		ExitCode:   code,
		FinishedAt: time.Now().UTC(),
	})

	if code != 0 {
		return ExitCodeError{Code: code}
	}
	fmt.Fprintf(s.Out, "agentpack: %s completed\n", def.Name)
	return nil
}

// wantsHelp honors --help in flag position and -h, which the parser
// leaves as a positional, anywhere in argv. An explicit --help=false
// counts as not asking.
func wantsHelp(args *argv.Args) bool {
	if args.ReadBool("help", false) {
		return true
	}
	for _, pos := range args.Positionals() {
		if pos == "-h" {
			return true
		}
	}
	return false
}

func resolveModel(defaults claude.RuntimeFlags, ov claude.Overrides) string {
	if ov.Model != "" {
		return ov.Model
	}
	return defaults.Model
}

func resolveMode(defaults claude.RuntimeFlags, ov claude.Overrides) string {
	if ov.PermissionMode != "" {
		return ov.PermissionMode
	}
	return string(defaults.PermissionMode)
}

func (s *Service) recordStart(runID string, agent string, req catalog.Request, inv claude.Invocation, ov claude.Overrides) {
	if s.History == nil {
		return
	}
	if err := s.History.Init(); err != nil {
		fmt.Fprintf(s.ErrOut, "warning: history unavailable: %v\n", err)
		return
	}
	record := model.RunRecord{
		RunID:          runID,
		Agent:          agent,
		Status:         model.RunStatusRunning,
		Model:          resolveModel(req.Runtime, ov),
		PermissionMode: resolveMode(req.Runtime, ov),
		Argv:           inv.Args,
		PromptBytes:    len(inv.Prompt),
		StartedAt:      time.Now().UTC(),
	}
	if err := s.History.InsertRun(record); err != nil {
		fmt.Fprintf(s.ErrOut, "warning: record run: %v\n", err)
	}
}

func (s *Service) recordFinish(runID string, status model.RunStatus, exitCode int, errorText string) {
	if s.History == nil {
		return
	}
	if err := s.History.FinishRun(runID, status, exitCode, errorText); err != nil {
		fmt.Fprintf(s.ErrOut, "warning: finalize run: %v\n", err)
	}
}

func (s *Service) publish(event model.RunEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishRunEvent(event); err != nil {
		fmt.Fprintf(s.ErrOut, "warning: publish run event: %v\n", err)
	}
}
