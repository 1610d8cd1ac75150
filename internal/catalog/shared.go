package catalog

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"agentpack/internal/argv"
	"agentpack/internal/claude"
	"agentpack/internal/model"
	"agentpack/internal/policy"
)

// requireURL pulls the first positional and insists it is an absolute
// http(s) URL. Agents that browse a live site call this before any
// prompt is built.
func requireURL(args *argv.Args, what string) (string, error) {
	pos := args.Positionals()
	if len(pos) == 0 {
		return "", fmt.Errorf("missing required %s", what)
	}
	raw := pos[0]
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", what, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid %s %q: want an absolute http(s) URL", what, raw)
	}
	return raw, nil
}

// optionalDir pulls the first positional as a project directory,
// defaulting to the working directory. The path must exist and be a
// directory; agents that read a repo run the child there.
func optionalDir(args *argv.Args) (string, error) {
	dir := "."
	if pos := args.Positionals(); len(pos) > 0 {
		dir = pos[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project dir %q: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project dir %q is not a directory", dir)
	}
	return abs, nil
}

func repoRuntime(p policy.Config) claude.RuntimeFlags {
	return claude.RuntimeFlags{
		Model:          p.Agent.Model,
		PermissionMode: model.PermissionMode(p.Defaults.PermissionMode),
		AllowedTools:   []string{"Bash", "Read", "Write", "Grep", "Glob"},
		Settings:       p.Defaults.Settings,
		MCPConfig:      p.Defaults.MCPConfig,
	}
}

// defaultBrowserMCPConfig wires a puppeteer MCP server so browsing
// agents can drive a real page, not just fetch HTML.
const defaultBrowserMCPConfig = `{"mcpServers":{"puppeteer":{"command":"npx","args":["-y","@modelcontextprotocol/server-puppeteer"]}}}`

func browserRuntime(p policy.Config) claude.RuntimeFlags {
	rt := claude.RuntimeFlags{
		Model:          p.Agent.Model,
		PermissionMode: model.PermissionMode(p.Defaults.PermissionMode),
		AllowedTools:   []string{"Bash", "Read", "Write", "WebFetch", "mcp__puppeteer"},
		Settings:       p.Defaults.Settings,
		MCPConfig:      p.Defaults.MCPConfig,
	}
	if rt.MCPConfig == "" {
		rt.MCPConfig = defaultBrowserMCPConfig
	}
	return rt
}

func projectEnv(dir string) []string {
	return []string{"AGENTPACK_PROJECT_DIR=" + dir}
}
