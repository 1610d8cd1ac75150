package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"agentpack/internal/model"
	"agentpack/internal/serviceapi"
)

type fakeCore struct {
	mu       sync.Mutex
	history  bool
	runs     []model.RunRecord
	pruneIDs []string
}

func (f *fakeCore) Shutdown() {}

func (f *fakeCore) HistoryAvailable() bool { return f.history }

func (f *fakeCore) Agents() []serviceapi.AgentInfo {
	return []serviceapi.AgentInfo{
		{Name: "linkrot", Short: "Crawl a site for broken links", ArgsUsage: "URL", Browser: true, PermissionMode: "default", AllowedTools: []string{"Bash", "WebFetch"}},
		{Name: "changelog", Short: "Generate a changelog", ArgsUsage: "[DIR]", PermissionMode: "default", AllowedTools: []string{"Bash", "Read"}},
	}
}

func (f *fakeCore) AgentUsage(name string) (string, bool) {
	for _, info := range f.Agents() {
		if info.Name == name {
			return "Usage:\n  agentpack " + name + " [flags]\n", true
		}
	}
	return "", false
}

func (f *fakeCore) ListRuns(agent string, limit int) ([]model.RunRecord, error) {
	if !f.history {
		return nil, serviceapi.ErrHistoryDisabled
	}
	out := []model.RunRecord{}
	for _, run := range f.runs {
		if agent == "" || run.Agent == agent {
			out = append(out, run)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCore) GetRun(idOrPrefix string) (model.RunRecord, error) {
	if !f.history {
		return model.RunRecord{}, serviceapi.ErrHistoryDisabled
	}
	for _, run := range f.runs {
		if run.RunID == idOrPrefix || strings.HasPrefix(run.RunID, idOrPrefix) {
			return run, nil
		}
	}
	return model.RunRecord{}, fmt.Errorf("run %s not found", idOrPrefix)
}

func (f *fakeCore) PruneStale(time.Duration) ([]string, error) {
	if !f.history {
		return nil, serviceapi.ErrHistoryDisabled
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.pruneIDs
	f.pruneIDs = nil
	return ids, nil
}

func newTestServer(t *testing.T, core serviceapi.Core) *httptest.Server {
	t.Helper()
	runtime := newRuntime(Options{}, core)
	srv := httptest.NewServer(runtime.server.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func errorCode(t *testing.T, payload map[string]any) string {
	t.Helper()
	wrapper, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("payload %v has no error object", payload)
	}
	code, _ := wrapper["code"].(string)
	return code
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeCore{history: true})

	var health HealthResponse
	if status := getJSON(t, srv.URL+"/api/v1/health", &health); status != http.StatusOK {
		t.Fatalf("health status = %d", status)
	}
	if health.Status != "ok" || !health.HistoryAvailable || health.Agents != 2 {
		t.Fatalf("health = %+v", health)
	}
}

func TestAgentsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeCore{history: true})

	var payload struct {
		Agents []serviceapi.AgentInfo `json:"agents"`
	}
	if status := getJSON(t, srv.URL+"/api/v1/agents", &payload); status != http.StatusOK {
		t.Fatalf("agents status = %d", status)
	}
	if len(payload.Agents) != 2 || payload.Agents[0].Name != "linkrot" {
		t.Fatalf("agents = %+v", payload.Agents)
	}

	resp, err := http.Post(srv.URL+"/api/v1/agents", "application/json", nil)
	if err != nil {
		t.Fatalf("POST agents: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST agents status = %d", resp.StatusCode)
	}
}

func TestAgentByName(t *testing.T) {
	srv := newTestServer(t, &fakeCore{history: true})

	var payload struct {
		Agent serviceapi.AgentInfo `json:"agent"`
		Usage string               `json:"usage"`
	}
	if status := getJSON(t, srv.URL+"/api/v1/agents/changelog", &payload); status != http.StatusOK {
		t.Fatalf("agent status = %d", status)
	}
	if payload.Agent.Name != "changelog" || !strings.Contains(payload.Usage, "Usage:") {
		t.Fatalf("agent payload = %+v", payload)
	}

	var errPayload map[string]any
	if status := getJSON(t, srv.URL+"/api/v1/agents/nope", &errPayload); status != http.StatusNotFound {
		t.Fatalf("unknown agent status = %d", status)
	}
	if errorCode(t, errPayload) != "agent_not_found" {
		t.Fatalf("unknown agent error = %v", errPayload)
	}
}

func TestRunsEndpointFiltersAndLimits(t *testing.T) {
	core := &fakeCore{history: true, runs: []model.RunRecord{
		{RunID: "aaa-1", Agent: "linkrot", Status: model.RunStatusCompleted},
		{RunID: "bbb-2", Agent: "changelog", Status: model.RunStatusFailed, ExitCode: 2},
		{RunID: "ccc-3", Agent: "linkrot", Status: model.RunStatusRunning},
	}}
	srv := newTestServer(t, core)

	var payload struct {
		Runs []model.RunRecord `json:"runs"`
	}
	if status := getJSON(t, srv.URL+"/api/v1/runs?agent=linkrot", &payload); status != http.StatusOK {
		t.Fatalf("runs status = %d", status)
	}
	if len(payload.Runs) != 2 {
		t.Fatalf("filtered runs = %+v", payload.Runs)
	}

	if status := getJSON(t, srv.URL+"/api/v1/runs?limit=1", &payload); status != http.StatusOK {
		t.Fatalf("limited runs status = %d", status)
	}
	if len(payload.Runs) != 1 {
		t.Fatalf("limited runs = %+v", payload.Runs)
	}

	var errPayload map[string]any
	if status := getJSON(t, srv.URL+"/api/v1/runs?limit=potato", &errPayload); status != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", status)
	}
}

func TestRunByID(t *testing.T) {
	core := &fakeCore{history: true, runs: []model.RunRecord{
		{RunID: "aaa-1", Agent: "linkrot", Status: model.RunStatusCompleted},
	}}
	srv := newTestServer(t, core)

	var payload struct {
		Run model.RunRecord `json:"run"`
	}
	if status := getJSON(t, srv.URL+"/api/v1/runs/aaa-1", &payload); status != http.StatusOK {
		t.Fatalf("run status = %d", status)
	}
	if payload.Run.Agent != "linkrot" {
		t.Fatalf("run = %+v", payload.Run)
	}

	var errPayload map[string]any
	if status := getJSON(t, srv.URL+"/api/v1/runs/zzz", &errPayload); status != http.StatusNotFound {
		t.Fatalf("unknown run status = %d", status)
	}
	if errorCode(t, errPayload) != "run_not_found" {
		t.Fatalf("unknown run error = %v", errPayload)
	}
}

func TestHistoryDisabledReturns503(t *testing.T) {
	srv := newTestServer(t, &fakeCore{history: false})

	var errPayload map[string]any
	if status := getJSON(t, srv.URL+"/api/v1/runs", &errPayload); status != http.StatusServiceUnavailable {
		t.Fatalf("disabled history status = %d", status)
	}
	if errorCode(t, errPayload) != "history_disabled" {
		t.Fatalf("disabled history error = %v", errPayload)
	}
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	srv := newTestServer(t, &fakeCore{history: true})

	var errPayload map[string]any
	if status := getJSON(t, srv.URL+"/nope", &errPayload); status != http.StatusNotFound {
		t.Fatalf("unknown route status = %d", status)
	}
	if errorCode(t, errPayload) != "not_found" {
		t.Fatalf("unknown route error = %v", errPayload)
	}
}

func TestSweeperPrunesStaleRows(t *testing.T) {
	core := &fakeCore{history: true, pruneIDs: []string{"aaa-1", "bbb-2"}}
	sweeper := NewSweeper(core, 10*time.Millisecond, time.Hour, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	sweeper.Start(ctx)
	deadline := time.Now().Add(2 * time.Second)
	for sweeper.Snapshot().TotalPruned < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if !sweeper.Wait(2 * time.Second) {
		t.Fatalf("sweeper did not stop")
	}

	snapshot := sweeper.Snapshot()
	if snapshot.TotalPruned != 2 {
		t.Fatalf("total pruned = %d, want 2", snapshot.TotalPruned)
	}
	if snapshot.Running {
		t.Fatalf("sweeper still marked running after stop")
	}
	if snapshot.TotalTicks == 0 {
		t.Fatalf("no ticks recorded")
	}
}
