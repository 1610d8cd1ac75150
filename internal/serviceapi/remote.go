package serviceapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"agentpack/internal/model"
)

// RemoteCore reads a running `agentpack serve` instance over its JSON
// API, so runs and agents commands can point at a server instead of a
// local database. The API is read-only; PruneStale is local-only.
type RemoteCore struct {
	baseURL string
	client  *http.Client
}

func NewRemoteCore(baseURL string, timeout time.Duration) *RemoteCore {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RemoteCore{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *RemoteCore) Shutdown() {}

func (r *RemoteCore) HistoryAvailable() bool {
	var response struct {
		History bool `json:"history_available"`
	}
	if err := r.doJSON(http.MethodGet, "/api/v1/health", nil, &response); err != nil {
		return false
	}
	return response.History
}

func (r *RemoteCore) Agents() []AgentInfo {
	var response struct {
		Agents []AgentInfo `json:"agents"`
	}
	if err := r.doJSON(http.MethodGet, "/api/v1/agents", nil, &response); err != nil {
		return nil
	}
	return response.Agents
}

func (r *RemoteCore) AgentUsage(name string) (string, bool) {
	var response struct {
		Usage string `json:"usage"`
	}
	path := "/api/v1/agents/" + url.PathEscape(strings.TrimSpace(name))
	if err := r.doJSON(http.MethodGet, path, nil, &response); err != nil {
		return "", false
	}
	return response.Usage, response.Usage != ""
}

func (r *RemoteCore) ListRuns(agent string, limit int) ([]model.RunRecord, error) {
	query := map[string]string{}
	if strings.TrimSpace(agent) != "" {
		query["agent"] = strings.TrimSpace(agent)
	}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}
	var response struct {
		Runs []model.RunRecord `json:"runs"`
	}
	if err := r.doJSON(http.MethodGet, "/api/v1/runs", query, &response); err != nil {
		return nil, err
	}
	return response.Runs, nil
}

func (r *RemoteCore) GetRun(idOrPrefix string) (model.RunRecord, error) {
	var response struct {
		Run model.RunRecord `json:"run"`
	}
	path := "/api/v1/runs/" + url.PathEscape(strings.TrimSpace(idOrPrefix))
	if err := r.doJSON(http.MethodGet, path, nil, &response); err != nil {
		return model.RunRecord{}, err
	}
	return response.Run, nil
}

func (r *RemoteCore) PruneStale(time.Duration) ([]string, error) {
	return nil, fmt.Errorf("prune is not supported against a remote server")
}

func (r *RemoteCore) doJSON(method string, path string, query map[string]string, out any) error {
	parsed, err := url.Parse(r.baseURL + path)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		values := parsed.Query()
		for key, value := range query {
			values.Set(key, value)
		}
		parsed.RawQuery = values.Encode()
	}

	request, err := http.NewRequestWithContext(context.Background(), method, parsed.String(), nil)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")
	response, err := r.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return decodeRemoteError(response.StatusCode, payload)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(out)
}

func decodeRemoteError(status int, payload []byte) error {
	var wrapper struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &wrapper); err == nil && strings.TrimSpace(wrapper.Error.Code) != "" {
		return fmt.Errorf("%s (http %d): %s", wrapper.Error.Code, status, strings.TrimSpace(wrapper.Error.Message))
	}
	return fmt.Errorf("http %d: %s", status, strings.TrimSpace(string(payload)))
}
