package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func TestRegisterReports(t *testing.T) {
	reportsFS := fstest.MapFS{
		"CHANGELOG-draft.md":   {Data: []byte("# Changelog draft\n")},
		"linkrot-report.md":    {Data: []byte("# Link rot\n")},
		"archive/old-notes.md": {Data: []byte("old")},
	}

	mux := http.NewServeMux()
	if !registerReports(mux, reportsFS) {
		t.Fatalf("expected reports handler to mount")
	}

	check := func(path string, wantStatus int, wantBodyContains string) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		if rr.Code != wantStatus {
			t.Fatalf("path %s: status = %d, want %d", path, rr.Code, wantStatus)
		}
		if wantBodyContains != "" && !strings.Contains(rr.Body.String(), wantBodyContains) {
			t.Fatalf("path %s: body %q does not contain %q", path, rr.Body.String(), wantBodyContains)
		}
	}

	check("/reports/", http.StatusOK, "CHANGELOG-draft.md")
	check("/reports/linkrot-report.md", http.StatusOK, "# Link rot")
	check("/reports/missing.md", http.StatusNotFound, "")

	req := httptest.NewRequest(http.MethodPost, "/reports/linkrot-report.md", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
}

func TestRegisterReportsIndexSkipsDirectories(t *testing.T) {
	reportsFS := fstest.MapFS{
		"archive/old-notes.md": {Data: []byte("old")},
	}

	mux := http.NewServeMux()
	if !registerReports(mux, reportsFS) {
		t.Fatalf("expected reports handler to mount")
	}

	req := httptest.NewRequest(http.MethodGet, "/reports/", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "No reports yet.") {
		t.Fatalf("index with only directories should be empty, got %q", rr.Body.String())
	}
}

func TestRegisterReportsNilFS(t *testing.T) {
	mux := http.NewServeMux()
	if registerReports(mux, nil) {
		t.Fatalf("expected reports handler not to mount without a directory")
	}
}
