package server

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"agentpack/internal/serviceapi"
)

type SweeperSnapshot struct {
	Running           bool       `json:"running"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	LastTickAt        *time.Time `json:"last_tick_at,omitempty"`
	LastPrunedAt      *time.Time `json:"last_pruned_at,omitempty"`
	LastErrorAt       *time.Time `json:"last_error_at,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
	ConsecutiveErrors int        `json:"consecutive_errors"`
	TotalPruned       int64      `json:"total_pruned"`
	TotalTicks        int64      `json:"total_ticks"`
	IdleTicks         int64      `json:"idle_ticks"`
}

// Sweeper periodically marks long-running history rows interrupted.
// Rows older than staleAfter in the running state are leftovers from a
// process that died without finalizing.
type Sweeper struct {
	service     serviceapi.Core
	interval    time.Duration
	staleAfter  time.Duration
	logInterval time.Duration
	logger      *log.Logger

	mu       sync.RWMutex
	running  bool
	doneChan chan struct{}
	snapshot SweeperSnapshot
}

func NewSweeper(service serviceapi.Core, interval time.Duration, staleAfter time.Duration, logInterval time.Duration, logger *log.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if staleAfter <= 0 {
		staleAfter = 2 * time.Hour
	}
	if logInterval <= 0 {
		logInterval = time.Minute
	}
	return &Sweeper{
		service:     service,
		interval:    interval,
		staleAfter:  staleAfter,
		logInterval: logInterval,
		logger:      logger,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	now := time.Now().UTC()
	s.snapshot.Running = true
	s.snapshot.StartedAt = timePtr(now)
	s.doneChan = make(chan struct{})
	done := s.doneChan
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.loop(ctx)
		s.mu.Lock()
		s.running = false
		s.snapshot.Running = false
		s.mu.Unlock()
	}()
}

func (s *Sweeper) Wait(timeout time.Duration) bool {
	s.mu.RLock()
	done := s.doneChan
	s.mu.RUnlock()
	if done == nil {
		return true
	}
	if timeout <= 0 {
		<-done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func (s *Sweeper) Snapshot() SweeperSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copySnapshot := s.snapshot
	copySnapshot.StartedAt = cloneTimePtr(s.snapshot.StartedAt)
	copySnapshot.LastTickAt = cloneTimePtr(s.snapshot.LastTickAt)
	copySnapshot.LastPrunedAt = cloneTimePtr(s.snapshot.LastPrunedAt)
	copySnapshot.LastErrorAt = cloneTimePtr(s.snapshot.LastErrorAt)
	return copySnapshot
}

func (s *Sweeper) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	logTicker := time.NewTicker(s.logInterval)
	defer logTicker.Stop()

	s.runIteration(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runIteration(ctx)
		case <-logTicker.C:
			s.logSnapshot()
		}
	}
}

func (s *Sweeper) runIteration(ctx context.Context) {
	if s.service == nil {
		return
	}
	now := time.Now().UTC()

	pruned, err := s.service.PruneStale(s.staleAfter)
	if err != nil && ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastTickAt = timePtr(now)
	s.snapshot.TotalTicks++
	if len(pruned) > 0 {
		s.snapshot.TotalPruned += int64(len(pruned))
		s.snapshot.LastPrunedAt = timePtr(now)
	} else {
		s.snapshot.IdleTicks++
	}

	switch {
	case err == nil, errors.Is(err, serviceapi.ErrHistoryDisabled):
		s.snapshot.ConsecutiveErrors = 0
	default:
		s.snapshot.ConsecutiveErrors++
		s.snapshot.LastErrorAt = timePtr(now)
		s.snapshot.LastError = strings.TrimSpace(err.Error())
	}
}

func (s *Sweeper) logSnapshot() {
	if s.logger == nil {
		return
	}
	snapshot := s.Snapshot()
	s.logger.Printf(
		"sweeper: total_pruned=%d ticks=%d idle=%d errors=%d",
		snapshot.TotalPruned,
		snapshot.TotalTicks,
		snapshot.IdleTicks,
		snapshot.ConsecutiveErrors,
	)
}

func timePtr(value time.Time) *time.Time {
	clone := value
	return &clone
}

func cloneTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
