// Package server is the read-only status API over the catalog and run
// history, plus the background sweeper that finalizes runs left behind
// by a crashed process. It never launches agents.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"agentpack/internal/policy"
	"agentpack/internal/serviceapi"
)

type Options struct {
	Addr            string
	PolicyPath      string
	DBPath          string
	ReportsDir      string
	SweepInterval   time.Duration
	StaleAfter      time.Duration
	LogPeriod       time.Duration
	ShutdownTimeout time.Duration
}

type Runtime struct {
	opts      Options
	service   serviceapi.Core
	sweeper   *Sweeper
	startedAt time.Time
	server    *http.Server
}

type HealthResponse struct {
	Status           string          `json:"status"`
	StartedAt        time.Time       `json:"started_at"`
	Now              time.Time       `json:"now"`
	HistoryAvailable bool            `json:"history_available"`
	Agents           int             `json:"agents"`
	Sweeper          SweeperSnapshot `json:"sweeper"`
}

func NewRuntime(options Options) (*Runtime, error) {
	options = normalizeOptions(options)
	cfg, _, err := policy.Load(options.PolicyPath)
	if err != nil {
		return nil, err
	}
	if options.DBPath != "" {
		cfg.History.DBPath = options.DBPath
	}
	if options.ReportsDir == "" {
		options.ReportsDir = cfg.Reports.Dir
	}
	service, err := serviceapi.NewLocalCore(cfg)
	if err != nil {
		return nil, err
	}
	return newRuntime(options, service), nil
}

func newRuntime(options Options, service serviceapi.Core) *Runtime {
	options = normalizeOptions(options)
	logger := log.New(os.Stdout, "", 0)
	runtime := &Runtime{
		opts:      options,
		service:   service,
		sweeper:   NewSweeper(service, options.SweepInterval, options.StaleAfter, options.LogPeriod, logger),
		startedAt: time.Now().UTC(),
	}
	mux := http.NewServeMux()
	runtime.registerRoutes(mux)
	var reportsFS fs.FS
	if options.ReportsDir != "" {
		reportsFS = os.DirFS(options.ReportsDir)
	}
	registerReports(mux, reportsFS)
	mux.HandleFunc("/", runtime.handleNotFound)
	runtime.server = &http.Server{
		Addr:    options.Addr,
		Handler: mux,
	}
	return runtime
}

func (r *Runtime) Run(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runtime is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()
	r.sweeper.Start(sweeperCtx)

	errCh := make(chan error, 1)
	go func() {
		if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			sweeperCancel()
			_ = r.sweeper.Wait(2 * time.Second)
			r.service.Shutdown()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.opts.ShutdownTimeout)
	defer cancel()
	shutdownErr := r.server.Shutdown(shutdownCtx)
	sweeperCancel()
	_ = r.sweeper.Wait(2 * time.Second)
	r.service.Shutdown()
	return shutdownErr
}

func normalizeOptions(options Options) Options {
	if options.Addr == "" {
		options.Addr = ":3001"
	}
	if options.SweepInterval <= 0 {
		options.SweepInterval = 30 * time.Second
	}
	if options.StaleAfter <= 0 {
		options.StaleAfter = 2 * time.Hour
	}
	if options.LogPeriod <= 0 {
		options.LogPeriod = time.Minute
	}
	if options.ShutdownTimeout <= 0 {
		options.ShutdownTimeout = 5 * time.Second
	}
	return options
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:           "ok",
		StartedAt:        r.startedAt,
		Now:              time.Now().UTC(),
		HistoryAvailable: r.service.HistoryAvailable(),
		Agents:           len(r.service.Agents()),
		Sweeper:          r.sweeper.Snapshot(),
	})
}

func (r *Runtime) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": apiError{
			Code:    "not_found",
			Message: "route not found",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
