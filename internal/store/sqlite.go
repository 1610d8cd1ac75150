// Package store persists invocation history in SQLite through the
// sqlite3 CLI, so the binary carries no driver and history degrades
// cleanly on hosts without sqlite3.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"agentpack/internal/hsm"
	"agentpack/internal/model"
)

type SQLiteStore struct {
	DBPath     string
	SQLitePath string
}

func NewSQLiteStore(dbPath string) *SQLiteStore {
	if strings.TrimSpace(dbPath) == "" {
		dbPath = ".agentpack/agentpack.db"
	}
	return &SQLiteStore{
		DBPath:     dbPath,
		SQLitePath: "sqlite3",
	}
}

func (s *SQLiteStore) Available() bool {
	_, err := exec.LookPath(s.SQLitePath)
	return err == nil
}

func (s *SQLiteStore) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	schema := `
PRAGMA journal_mode=WAL;
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  agent TEXT NOT NULL,
  status TEXT NOT NULL,
  exit_code INTEGER NOT NULL DEFAULT 0,
  model TEXT NOT NULL DEFAULT '',
  permission_mode TEXT NOT NULL DEFAULT '',
  argv_json TEXT NOT NULL DEFAULT '[]',
  prompt_bytes INTEGER NOT NULL DEFAULT 0,
  error_text TEXT NOT NULL DEFAULT '',
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_agent ON runs (agent, started_at);`

	return s.execSQL(schema)
}

func (s *SQLiteStore) InsertRun(record model.RunRecord) error {
	argvJSON, err := json.Marshal(record.Argv)
	if err != nil {
		return fmt.Errorf("marshal run argv: %w", err)
	}
	if record.Status == "" {
		record.Status = model.RunStatusRunning
	}
	startedAt := record.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	sql := fmt.Sprintf(
		`INSERT INTO runs (run_id, agent, status, exit_code, model, permission_mode, argv_json, prompt_bytes, error_text, started_at, finished_at)
VALUES (%s, %s, %s, %d, %s, %s, %s, %d, %s, %s, '');`,
		quote(record.RunID),
		quote(record.Agent),
		quote(string(record.Status)),
		record.ExitCode,
		quote(record.Model),
		quote(record.PermissionMode),
		quote(string(argvJSON)),
		record.PromptBytes,
		quote(record.ErrorText),
		quote(startedAt.UTC().Format(time.RFC3339)),
	)
	return s.execSQL(sql)
}

// FinishRun moves a run to a terminal status. The transition is guarded
// so a row finalizes exactly once; finishing an already-terminal run is
// an error.
func (s *SQLiteStore) FinishRun(runID string, status model.RunStatus, exitCode int, errorText string) error {
	record, err := s.GetRun(runID)
	if err != nil {
		return err
	}
	if record.Status == status {
		return fmt.Errorf("run %s already %s", runID, status)
	}
	if !hsm.CanTransitionRun(record.Status, status) {
		return fmt.Errorf("run %s cannot transition %s -> %s", runID, record.Status, status)
	}
	sql := fmt.Sprintf(
		`UPDATE runs
SET status=%s, exit_code=%d, error_text=%s, finished_at=%s
WHERE run_id=%s;`,
		quote(string(status)),
		exitCode,
		quote(errorText),
		quote(time.Now().UTC().Format(time.RFC3339)),
		quote(runID),
	)
	return s.execSQL(sql)
}

func (s *SQLiteStore) GetRun(runID string) (model.RunRecord, error) {
	sql := fmt.Sprintf(
		`SELECT run_id, agent, status, exit_code, model, permission_mode, argv_json, prompt_bytes, error_text, started_at, finished_at
FROM runs WHERE run_id=%s;`,
		quote(runID),
	)
	rows, err := s.queryJSON(sql)
	if err != nil {
		return model.RunRecord{}, err
	}
	if len(rows) == 0 {
		return model.RunRecord{}, fmt.Errorf("run %s not found", runID)
	}
	return parseRunRecord(rows[0])
}

type ListOptions struct {
	Agent string
	Limit int
}

func (s *SQLiteStore) ListRuns(opts ListOptions) ([]model.RunRecord, error) {
	where := ""
	if strings.TrimSpace(opts.Agent) != "" {
		where = fmt.Sprintf("WHERE agent=%s", quote(strings.TrimSpace(opts.Agent)))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	sql := fmt.Sprintf(
		`SELECT run_id, agent, status, exit_code, model, permission_mode, argv_json, prompt_bytes, error_text, started_at, finished_at
FROM runs %s ORDER BY started_at DESC, run_id DESC LIMIT %d;`,
		where, limit,
	)
	rows, err := s.queryJSON(sql)
	if err != nil {
		return nil, err
	}
	out := make([]model.RunRecord, 0, len(rows))
	for _, row := range rows {
		record, err := parseRunRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// ResolveRunID accepts a full run id or a unique prefix.
func (s *SQLiteStore) ResolveRunID(idOrPrefix string) (string, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return "", fmt.Errorf("run id is required")
	}
	sql := fmt.Sprintf(
		`SELECT run_id FROM runs WHERE run_id=%s OR run_id LIKE %s ESCAPE '\' ORDER BY run_id;`,
		quote(idOrPrefix), quote(likeEscape(idOrPrefix)+"%"),
	)
	rows, err := s.queryJSON(sql)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("no run matches %q", idOrPrefix)
	}
	for _, row := range rows {
		if asString(row["run_id"]) == idOrPrefix {
			return idOrPrefix, nil
		}
	}
	if len(rows) > 1 {
		return "", fmt.Errorf("run id prefix %q is ambiguous (%d matches)", idOrPrefix, len(rows))
	}
	return asString(rows[0]["run_id"]), nil
}

// PruneStale marks running rows older than the cutoff interrupted.
// These are leftovers from processes that died without finalizing.
// started_at compares as TEXT, so the cutoff must render in UTC like
// every stored timestamp.
func (s *SQLiteStore) PruneStale(olderThan time.Duration) ([]string, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	sql := fmt.Sprintf(
		`SELECT run_id FROM runs WHERE status=%s AND started_at < %s ORDER BY started_at;`,
		quote(string(model.RunStatusRunning)), quote(cutoff),
	)
	rows, err := s.queryJSON(sql)
	if err != nil {
		return nil, err
	}
	pruned := make([]string, 0, len(rows))
	for _, row := range rows {
		runID := asString(row["run_id"])
		if err := s.FinishRun(runID, model.RunStatusInterrupted, 0, "process exited without finalizing"); err != nil {
			return pruned, err
		}
		pruned = append(pruned, runID)
	}
	return pruned, nil
}

func (s *SQLiteStore) execSQL(sql string) error {
	cmd := exec.Command(s.SQLitePath, s.DBPath, sql)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("sqlite exec failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (s *SQLiteStore) queryJSON(sql string) ([]map[string]any, error) {
	cmd := exec.Command(s.SQLitePath, "-json", s.DBPath, sql)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("sqlite query failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		return []map[string]any{}, nil
	}
	rows := []map[string]any{}
	if err := json.Unmarshal(stdout.Bytes(), &rows); err != nil {
		return nil, fmt.Errorf("parse sqlite json output: %w", err)
	}
	return rows, nil
}

func parseRunRecord(row map[string]any) (model.RunRecord, error) {
	startedAt, err := time.Parse(time.RFC3339, asString(row["started_at"]))
	if err != nil {
		return model.RunRecord{}, fmt.Errorf("parse run started_at: %w", err)
	}
	var argv []string
	if raw := asString(row["argv_json"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &argv); err != nil {
			return model.RunRecord{}, fmt.Errorf("parse run argv: %w", err)
		}
	}
	return model.RunRecord{
		RunID:          asString(row["run_id"]),
		Agent:          asString(row["agent"]),
		Status:         model.RunStatus(asString(row["status"])),
		ExitCode:       asInt(row["exit_code"]),
		Model:          asString(row["model"]),
		PermissionMode: asString(row["permission_mode"]),
		Argv:           argv,
		PromptBytes:    asInt(row["prompt_bytes"]),
		ErrorText:      asString(row["error_text"]),
		StartedAt:      startedAt,
		FinishedAt:     parseTimePtr(asString(row["finished_at"])),
	}, nil
}

func quote(s string) string {
	s = strings.ReplaceAll(s, "'", "''")
	return "'" + s + "'"
}

// likeEscape makes a string safe as a literal LIKE prefix, paired with
// ESCAPE '\' in the query.
func likeEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

func asString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		if typed {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(v)
	}
}

func asInt(v any) int {
	switch typed := v.(type) {
	case float64:
		return int(typed)
	case string:
		n, _ := strconv.Atoi(typed)
		return n
	case int:
		return typed
	default:
		return 0
	}
}

func parseTimePtr(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}
