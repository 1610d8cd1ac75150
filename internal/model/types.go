package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PermissionMode string

const (
	PermissionModeDefault           PermissionMode = "default"
	PermissionModeAcceptEdits       PermissionMode = "acceptEdits"
	PermissionModeBypassPermissions PermissionMode = "bypassPermissions"
	PermissionModePlan              PermissionMode = "plan"
)

func PermissionModes() []PermissionMode {
	return []PermissionMode{
		PermissionModeDefault,
		PermissionModeAcceptEdits,
		PermissionModeBypassPermissions,
		PermissionModePlan,
	}
}

func ParsePermissionMode(value string) (PermissionMode, error) {
	trimmed := strings.TrimSpace(value)
	for _, mode := range PermissionModes() {
		if string(mode) == trimmed {
			return mode, nil
		}
	}
	return "", fmt.Errorf("invalid permission mode %q (expected default|acceptEdits|bypassPermissions|plan)", value)
}

func (m PermissionMode) Valid() bool {
	_, err := ParsePermissionMode(string(m))
	return err == nil
}

type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusCompleted   RunStatus = "completed"
	RunStatusFailed      RunStatus = "failed"
	RunStatusInterrupted RunStatus = "interrupted"
)

func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusInterrupted:
		return true
	default:
		return false
	}
}

func NewRunID() string {
	return uuid.NewString()
}

type RunRecord struct {
	RunID          string     `json:"run_id"`
	Agent          string     `json:"agent"`
	Status         RunStatus  `json:"status"`
	ExitCode       int        `json:"exit_code"`
	Model          string     `json:"model"`
	PermissionMode string     `json:"permission_mode"`
	Argv           []string   `json:"argv,omitempty"`
	PromptBytes    int        `json:"prompt_bytes"`
	ErrorText      string     `json:"error_text,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

type RunEvent struct {
	RunID      string    `json:"run_id"`
	Agent      string    `json:"agent"`
	Status     RunStatus `json:"status"`
	ExitCode   int       `json:"exit_code"`
	FinishedAt time.Time `json:"finished_at"`
}
