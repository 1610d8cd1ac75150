package claude

import (
	"reflect"
	"testing"

	"agentpack/internal/argv"
	"agentpack/internal/model"
)

func TestBuildArgsOverrideWinsWholesale(t *testing.T) {
	defaults := RuntimeFlags{
		Model:          "sonnet",
		PermissionMode: model.PermissionModeDefault,
	}
	got := BuildArgs(defaults, Overrides{PermissionMode: "acceptEdits"})
	want := []string{"--model", "sonnet", "--permission-mode", "acceptEdits"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BuildArgs = %v, want %v", got, want)
	}
}

func TestBuildArgsToolListReplacedNotMerged(t *testing.T) {
	defaults := RuntimeFlags{
		AllowedTools: []string{"Bash", "Read", "Write"},
	}
	got := BuildArgs(defaults, Overrides{AllowedTools: "WebFetch"})
	want := []string{"--allowedTools", "WebFetch"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BuildArgs = %v, want %v", got, want)
	}
}

func TestBuildArgsDefaultsSurviveWithoutOverrides(t *testing.T) {
	defaults := RuntimeFlags{
		Model:          "sonnet",
		PermissionMode: model.PermissionModeAcceptEdits,
		AllowedTools:   []string{"Bash", "Read"},
		Settings:       `{"statusLine":false}`,
		MCPConfig:      `{"mcpServers":{}}`,
	}
	got := BuildArgs(defaults, Overrides{})
	want := []string{
		"--model", "sonnet",
		"--permission-mode", "acceptEdits",
		"--allowedTools", "Bash,Read",
		"--settings", `{"statusLine":false}`,
		"--mcp-config", `{"mcpServers":{}}`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BuildArgs = %v, want %v", got, want)
	}
}

func TestBuildArgsAppendsPassThroughFlags(t *testing.T) {
	args := argv.Parse([]string{"--verbose", "--session-id", "abc", "--model", "opus"}, RuntimeSpec())
	ov := OverridesFromArgs(args)

	got := BuildArgs(RuntimeFlags{Model: "sonnet"}, ov)
	want := []string{"--model", "opus", "--session-id", "abc", "--verbose"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BuildArgs = %v, want %v", got, want)
	}
}

func TestOverridesFromArgsStripsRuntimeKeys(t *testing.T) {
	args := argv.Parse([]string{"--permissionMode", "plan", "--allowed-tools", "Bash", "--settings", "{}", "--mcpConfig", "{}", "--model", "opus"}, RuntimeSpec())
	ov := OverridesFromArgs(args)

	if ov.Model != "opus" || ov.PermissionMode != "plan" || ov.AllowedTools != "Bash" {
		t.Fatalf("overrides = %+v", ov)
	}
	if ov.Settings != "{}" || ov.MCPConfig != "{}" {
		t.Fatalf("overrides = %+v", ov)
	}
	if len(ov.Extra) != 0 {
		t.Fatalf("expected no pass-through flags, got %v", ov.Extra)
	}
	if args.Has(FlagModel) || args.Has(FlagPermissionMode) {
		t.Fatalf("runtime keys should be stripped from args")
	}
}

func TestBuildArgsEmptyEverything(t *testing.T) {
	if got := BuildArgs(RuntimeFlags{}, Overrides{}); len(got) != 0 {
		t.Fatalf("BuildArgs on empty input = %v", got)
	}
}

func TestFullArgsAppendsPromptLast(t *testing.T) {
	inv := Invocation{Command: "claude", Args: []string{"--model", "sonnet"}, Prompt: "do the thing"}
	got := inv.FullArgs()
	want := []string{"--model", "sonnet", "do the thing"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FullArgs = %v, want %v", got, want)
	}

	empty := Invocation{Command: "claude", Args: []string{"--model", "sonnet"}}
	if got := empty.FullArgs(); len(got) != 2 {
		t.Fatalf("FullArgs without prompt = %v", got)
	}
}
