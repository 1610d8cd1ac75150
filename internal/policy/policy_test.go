package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPolicyIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected default policy to validate: %v", err)
	}
}

func TestLoadPolicyFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "policy.json")
	if err := SaveDefault(path); err != nil {
		t.Fatalf("save default policy: %v", err)
	}

	cfg, loadedPath, err := Load(path)
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}
	if loadedPath != path {
		t.Fatalf("expected loaded path %q, got %q", path, loadedPath)
	}
	if cfg.Agent.Command == "" {
		t.Fatalf("expected non-empty agent command")
	}
}

func TestLoadPolicyMissingFileUsesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "missing-policy.json")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected missing test policy file")
	}

	cfg, loadedPath, err := Load(path)
	if err != nil {
		t.Fatalf("load policy with missing file: %v", err)
	}
	if loadedPath != path {
		t.Fatalf("expected loaded path %q, got %q", path, loadedPath)
	}
	if cfg.Version != 1 {
		t.Fatalf("expected default policy version 1, got %d", cfg.Version)
	}
}

func TestValidateRejectsBadPermissionMode(t *testing.T) {
	cfg := Default()
	cfg.Defaults.PermissionMode = "yolo"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected invalid permission mode to fail validation")
	}
}

func TestValidateRejectsMalformedSettingsJSON(t *testing.T) {
	cfg := Default()
	cfg.Defaults.Settings = "{not json"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected malformed settings JSON to fail validation")
	}
}

func TestReportPathJoinsReportDir(t *testing.T) {
	cfg := Default()
	cfg.Reports.Dir = "/tmp/reports"

	if got := cfg.ReportPath("audit.md"); got != filepath.Join("/tmp/reports", "audit.md") {
		t.Fatalf("ReportPath = %q", got)
	}
	if got := cfg.ReportPath("/abs/path.md"); got != "/abs/path.md" {
		t.Fatalf("absolute ReportPath = %q", got)
	}
	if got := cfg.ReportPath("sub/dir.md"); got != "sub/dir.md" {
		t.Fatalf("relative-with-dir ReportPath = %q", got)
	}
}
