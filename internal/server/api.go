package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"agentpack/internal/serviceapi"
)

func (r *Runtime) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/health", r.handleHealth)
	mux.HandleFunc("/api/v1/agents", r.handleAgents)
	mux.HandleFunc("/api/v1/agents/", r.handleAgentByName)
	mux.HandleFunc("/api/v1/runs", r.handleRuns)
	mux.HandleFunc("/api/v1/runs/", r.handleRunByID)
}

func (r *Runtime) handleAgents(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is supported")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": r.service.Agents()})
}

func (r *Runtime) handleAgentByName(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is supported")
		return
	}
	name := strings.TrimSpace(strings.TrimPrefix(req.URL.Path, "/api/v1/agents/"))
	if name == "" || strings.Contains(name, "/") {
		writeAPIError(w, http.StatusBadRequest, "invalid_agent_name", "agent name is required")
		return
	}
	usage, ok := r.service.AgentUsage(name)
	if !ok {
		writeAPIError(w, http.StatusNotFound, "agent_not_found", fmt.Sprintf("unknown agent %q", name))
		return
	}
	for _, info := range r.service.Agents() {
		if info.Name == name {
			writeJSON(w, http.StatusOK, map[string]any{"agent": info, "usage": usage})
			return
		}
	}
	writeAPIError(w, http.StatusNotFound, "agent_not_found", fmt.Sprintf("unknown agent %q", name))
}

func (r *Runtime) handleRuns(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is supported")
		return
	}
	limit, err := parseLimitParam(req.URL.Query().Get("limit"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}
	agent := strings.TrimSpace(req.URL.Query().Get("agent"))
	runs, err := r.service.ListRuns(agent, limit)
	if err != nil {
		if errors.Is(err, serviceapi.ErrHistoryDisabled) {
			writeAPIError(w, http.StatusServiceUnavailable, "history_disabled", err.Error())
			return
		}
		writeAPIError(w, http.StatusInternalServerError, "list_runs_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (r *Runtime) handleRunByID(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is supported")
		return
	}
	runID := strings.TrimSpace(strings.TrimPrefix(req.URL.Path, "/api/v1/runs/"))
	if runID == "" || strings.Contains(runID, "/") {
		writeAPIError(w, http.StatusBadRequest, "invalid_run_id", "run id is required")
		return
	}
	record, err := r.service.GetRun(runID)
	if err != nil {
		if errors.Is(err, serviceapi.ErrHistoryDisabled) {
			writeAPIError(w, http.StatusServiceUnavailable, "history_disabled", err.Error())
			return
		}
		writeAPIError(w, http.StatusNotFound, "run_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": record})
}

func parseLimitParam(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("limit must be a non-negative integer")
	}
	return n, nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeAPIError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": apiError{
			Code:    strings.TrimSpace(code),
			Message: strings.TrimSpace(message),
		},
	})
}
