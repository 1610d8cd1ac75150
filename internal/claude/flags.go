// Package claude assembles and spawns invocations of the external
// agent CLI: merging per-command runtime defaults with user overrides
// into a flat argument list, then running the binary with the prompt
// as the final positional.
package claude

import (
	"strings"

	"agentpack/internal/argv"
	"agentpack/internal/model"
)

const (
	FlagModel          = "model"
	FlagPermissionMode = "permission-mode"
	FlagAllowedTools   = "allowedTools"
	FlagSettings       = "settings"
	FlagMCPConfig      = "mcp-config"
)

// RuntimeFlags are the agent-runtime options every command resolves
// before spawning. Settings and MCPConfig stay opaque JSON strings;
// nothing here inspects them.
type RuntimeFlags struct {
	Model          string
	PermissionMode model.PermissionMode
	AllowedTools   []string
	Settings       string
	MCPConfig      string
}

// Overrides carries user-supplied replacements for individual runtime
// flags plus every other unstripped flag, forwarded verbatim. An empty
// field means "not overridden"; override wins wholesale, lists are
// replaced, never merged.
type Overrides struct {
	Model          string
	PermissionMode string
	AllowedTools   string
	Settings       string
	MCPConfig      string
	Extra          []argv.Flag
}

// RuntimeSpec declares the runtime flags so every agent command parses
// them with the right arity and both spellings where two are common.
func RuntimeSpec() argv.Spec {
	return argv.NewSpec(
		argv.FlagSpec{Name: FlagModel, Kind: argv.KindString, Placeholder: "NAME", Help: "Agent model override"},
		argv.FlagSpec{Name: FlagPermissionMode, Alias: "permissionMode", Kind: argv.KindString, Placeholder: "MODE", Help: "Permission mode: default|acceptEdits|bypassPermissions|plan"},
		argv.FlagSpec{Name: FlagAllowedTools, Alias: "allowed-tools", Kind: argv.KindString, Placeholder: "LIST", Help: "Comma-separated tool allow-list override"},
		argv.FlagSpec{Name: FlagSettings, Kind: argv.KindString, Placeholder: "JSON", Help: "Agent settings JSON override"},
		argv.FlagSpec{Name: FlagMCPConfig, Alias: "mcpConfig", Kind: argv.KindString, Placeholder: "JSON", Help: "MCP server config JSON override"},
	)
}

// OverridesFromArgs pulls the runtime overrides out of the parsed args,
// strips them, and captures whatever is left as pass-through flags.
// Call after the command has stripped its own local flags.
func OverridesFromArgs(args *argv.Args) Overrides {
	ov := Overrides{
		Model:          args.ReadString(FlagModel, ""),
		PermissionMode: args.ReadString(FlagPermissionMode, ""),
		AllowedTools:   args.ReadString(FlagAllowedTools, ""),
		Settings:       args.ReadString(FlagSettings, ""),
		MCPConfig:      args.ReadString(FlagMCPConfig, ""),
	}
	args.Strip(FlagModel, FlagPermissionMode, FlagAllowedTools, FlagSettings, FlagMCPConfig)
	ov.Extra = args.Remaining()
	return ov
}

// BuildArgs flattens defaults plus overrides into CLI tokens. Known
// flags come out in a fixed order, pass-through extras follow sorted by
// name; boolean true extras become a single --flag token, everything
// else --flag followed by its string form. Merging is purely syntactic.
func BuildArgs(defaults RuntimeFlags, ov Overrides) []string {
	out := []string{}

	modelName := defaults.Model
	if ov.Model != "" {
		modelName = ov.Model
	}
	if modelName != "" {
		out = append(out, "--"+FlagModel, modelName)
	}

	mode := string(defaults.PermissionMode)
	if ov.PermissionMode != "" {
		mode = ov.PermissionMode
	}
	if mode != "" {
		out = append(out, "--"+FlagPermissionMode, mode)
	}

	tools := strings.Join(defaults.AllowedTools, ",")
	if ov.AllowedTools != "" {
		tools = ov.AllowedTools
	}
	if tools != "" {
		out = append(out, "--"+FlagAllowedTools, tools)
	}

	settings := defaults.Settings
	if ov.Settings != "" {
		settings = ov.Settings
	}
	if settings != "" {
		out = append(out, "--"+FlagSettings, settings)
	}

	mcpConfig := defaults.MCPConfig
	if ov.MCPConfig != "" {
		mcpConfig = ov.MCPConfig
	}
	if mcpConfig != "" {
		out = append(out, "--"+FlagMCPConfig, mcpConfig)
	}

	for _, flag := range ov.Extra {
		if flag.Value.IsTrue() {
			out = append(out, "--"+flag.Name)
			continue
		}
		if items, ok := flag.Value.Strings(); ok {
			for _, item := range items {
				out = append(out, "--"+flag.Name, item)
			}
			continue
		}
		out = append(out, "--"+flag.Name, flag.Value.String())
	}

	return out
}
