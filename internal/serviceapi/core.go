// Package serviceapi is the narrow surface the status server and the
// remote-reading commands share: catalog introspection plus run
// history, local over the store or remote over the HTTP API.
package serviceapi

import (
	"fmt"
	"time"

	"agentpack/internal/catalog"
	"agentpack/internal/model"
	"agentpack/internal/policy"
	"agentpack/internal/store"
)

var ErrHistoryDisabled = fmt.Errorf("run history is disabled")

type AgentInfo struct {
	Name           string   `json:"name"`
	Short          string   `json:"short"`
	ArgsUsage      string   `json:"args_usage,omitempty"`
	Browser        bool     `json:"browser"`
	PermissionMode string   `json:"permission_mode"`
	AllowedTools   []string `json:"allowed_tools"`
}

type Core interface {
	Agents() []AgentInfo
	AgentUsage(name string) (string, bool)
	ListRuns(agent string, limit int) ([]model.RunRecord, error)
	GetRun(idOrPrefix string) (model.RunRecord, error)
	PruneStale(olderThan time.Duration) ([]string, error)
	HistoryAvailable() bool
	Shutdown()
}

type LocalCore struct {
	policy policy.Config
	store  *store.SQLiteStore
}

func NewLocalCore(p policy.Config) (*LocalCore, error) {
	core := &LocalCore{policy: p}
	if !p.History.Enabled {
		return core, nil
	}
	st := store.NewSQLiteStore(p.History.DBPath)
	if !st.Available() {
		return core, nil
	}
	if err := st.Init(); err != nil {
		return nil, fmt.Errorf("init run history: %w", err)
	}
	core.store = st
	return core, nil
}

func (l *LocalCore) Shutdown() {}

func (l *LocalCore) HistoryAvailable() bool {
	return l.store != nil
}

func (l *LocalCore) Agents() []AgentInfo {
	defs := catalog.All()
	infos := make([]AgentInfo, 0, len(defs))
	for _, def := range defs {
		rt := def.DefaultRuntime(l.policy)
		infos = append(infos, AgentInfo{
			Name:           def.Name,
			Short:          def.Short,
			ArgsUsage:      def.ArgsUsage,
			Browser:        def.Browser,
			PermissionMode: string(rt.PermissionMode),
			AllowedTools:   rt.AllowedTools,
		})
	}
	return infos
}

func (l *LocalCore) AgentUsage(name string) (string, bool) {
	def, ok := catalog.Lookup(name)
	if !ok {
		return "", false
	}
	return def.Usage(), true
}

func (l *LocalCore) ListRuns(agent string, limit int) ([]model.RunRecord, error) {
	if l.store == nil {
		return nil, ErrHistoryDisabled
	}
	return l.store.ListRuns(store.ListOptions{Agent: agent, Limit: limit})
}

func (l *LocalCore) GetRun(idOrPrefix string) (model.RunRecord, error) {
	if l.store == nil {
		return model.RunRecord{}, ErrHistoryDisabled
	}
	runID, err := l.store.ResolveRunID(idOrPrefix)
	if err != nil {
		return model.RunRecord{}, err
	}
	return l.store.GetRun(runID)
}

func (l *LocalCore) PruneStale(olderThan time.Duration) ([]string, error) {
	if l.store == nil {
		return nil, ErrHistoryDisabled
	}
	return l.store.PruneStale(olderThan)
}
