// Package catalog defines the agent commands: their flags, validation,
// runtime defaults, and the prompt each one hands to the external
// agent. One file per agent.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"agentpack/internal/argv"
	"agentpack/internal/claude"
	"agentpack/internal/policy"
)

type BuildContext struct {
	Policy policy.Config
}

// Request is one prepared invocation before user overrides are merged:
// the prompt, the agent's runtime defaults, and where the child runs.
type Request struct {
	Prompt  string
	Runtime claude.RuntimeFlags
	Dir     string
	Env     []string
	Report  string
}

type Definition struct {
	Name      string
	Short     string
	ArgsUsage string
	Browser   bool
	Flags     []argv.FlagSpec
	Build     func(bctx BuildContext, args *argv.Args) (Request, error)
}

// DefaultRuntime reports the runtime flags the agent starts from before
// user overrides, without building a full request.
func (d Definition) DefaultRuntime(p policy.Config) claude.RuntimeFlags {
	if d.Browser {
		return browserRuntime(p)
	}
	return repoRuntime(p)
}

func sharedSpec() argv.Spec {
	return argv.NewSpec(
		argv.FlagSpec{Name: "help", Kind: argv.KindBool, Help: "Show this help"},
		argv.FlagSpec{Name: "dry-run", Alias: "dryRun", Kind: argv.KindBool, Help: "Print the agent invocation without spawning"},
	)
}

// Spec is the full parse spec for one agent command: its local flags,
// the shared flags, and the runtime override flags.
func (d Definition) Spec() argv.Spec {
	return argv.NewSpec(d.Flags...).Merge(sharedSpec()).Merge(claude.RuntimeSpec())
}

// LocalFlagNames lists the keys stripped before the remainder forwards
// to the child: the agent's own flags plus the shared ones. Runtime
// override keys are stripped separately when overrides are extracted.
func (d Definition) LocalFlagNames() []string {
	names := make([]string, 0, len(d.Flags)+2)
	for _, fs := range d.Flags {
		names = append(names, fs.Name)
	}
	return append(names, "help", "dry-run")
}

func (d Definition) Usage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n\n", d.Name, d.Short)
	b.WriteString("Usage:\n")
	synopsis := "agentpack " + d.Name
	if d.ArgsUsage != "" {
		synopsis += " " + d.ArgsUsage
	}
	fmt.Fprintf(&b, "  %s [flags]\n\nFlags:\n", synopsis)
	for _, fs := range d.Flags {
		b.WriteString(formatFlagLine(fs))
	}
	for _, fs := range sharedSpec().Flags() {
		b.WriteString(formatFlagLine(fs))
	}
	b.WriteString("\nRuntime flags (forwarded to the agent):\n")
	for _, fs := range claude.RuntimeSpec().Flags() {
		b.WriteString(formatFlagLine(fs))
	}
	b.WriteString("\nUnrecognized flags pass through to the agent unchanged.\n")
	return b.String()
}

func formatFlagLine(fs argv.FlagSpec) string {
	name := "--" + fs.Name
	if fs.Placeholder != "" {
		name += " " + fs.Placeholder
	}
	return fmt.Sprintf("  %-28s %s\n", name, fs.Help)
}

func All() []Definition {
	return []Definition{
		newA11yAuditAgent(),
		newChangelogAgent(),
		newDepHealthAgent(),
		newDupeCodeAgent(),
		newFontAuditAgent(),
		newFormFlowAgent(),
		newLicenseAuditAgent(),
		newLinkrotAgent(),
		newPerfAuditAgent(),
		newSEOAuditAgent(),
		newTestGapsAgent(),
	}
}

func Lookup(name string) (Definition, bool) {
	name = strings.TrimSpace(name)
	for _, def := range All() {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

func Names() []string {
	defs := All()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}
