package catalog

import (
	"fmt"
	"strings"

	"agentpack/internal/argv"
)

func newDepHealthAgent() Definition {
	return Definition{
		Name:      "dep-health",
		Short:     "Audit project dependencies for staleness, abandonment, and known risks",
		ArgsUsage: "[DIR]",
		Flags: []argv.FlagSpec{
			{Name: "manifest", Kind: argv.KindString, Placeholder: "PATH", Help: "Dependency manifest to audit (default: auto-detect package.json, go.mod, Cargo.toml, requirements.txt, Gemfile)"},
			{Name: "output", Kind: argv.KindString, Placeholder: "PATH", Help: "Report file (default dep-health-report.md under the report dir)"},
			{Name: "include-dev", Alias: "includeDev", Kind: argv.KindBool, Help: "Audit development dependencies too"},
			{Name: "fail-on", Alias: "failOn", Kind: argv.KindString, Placeholder: "LEVEL", Help: "Summarize as failing when findings reach this level: critical, high, moderate (default none)"},
		},
		Build: buildDepHealthRequest,
	}
}

func buildDepHealthRequest(bctx BuildContext, args *argv.Args) (Request, error) {
	dir, err := optionalDir(args)
	if err != nil {
		return Request{}, err
	}
	manifest := args.ReadString("manifest", "")
	output := bctx.Policy.ReportPath(args.ReadString("output", "dep-health-report.md"))
	includeDev := args.ReadBool("include-dev", false)
	failOn := args.ReadString("fail-on", "")
	switch failOn {
	case "", "critical", "high", "moderate":
	default:
		return Request{}, fmt.Errorf("invalid --fail-on %q: want critical, high, or moderate", failOn)
	}

	var b strings.Builder
	b.WriteString("You are auditing the health of this project's third-party dependencies.\n\n")
	if manifest != "" {
		fmt.Fprintf(&b, "Audit the manifest at %s.\n", manifest)
	} else {
		b.WriteString("Find the dependency manifest first: look for package.json, go.mod, Cargo.toml, requirements.txt or pyproject.toml, and Gemfile, in that order. Audit the first one present.\n")
	}
	if includeDev {
		b.WriteString("Include development/test-only dependencies in the audit.\n")
	} else {
		b.WriteString("Audit production dependencies only; skip development/test-only ones.\n")
	}
	b.WriteString("\nFor each direct dependency, establish:\n")
	b.WriteString("- Declared version vs. latest published version, and how many major versions behind.\n")
	b.WriteString("- Release recency: date of the latest release, and whether the project looks abandoned (no release in 2+ years).\n")
	b.WriteString("- Known vulnerabilities: run the ecosystem's own audit tool when available (npm audit, govulncheck, cargo audit, pip-audit) and fold its findings in.\n")
	b.WriteString("- Deprecation or archival notices from the registry or repository.\n\n")
	b.WriteString("Use the ecosystem's registry tooling (npm view, go list -m -u, cargo search, pip index) via Bash rather than guessing versions. When a lookup fails, say so in the report instead of inventing data.\n\n")
	b.WriteString("Rate each finding critical, high, moderate, or low:\n")
	b.WriteString("- critical: known exploited vulnerability, or an abandoned package with a known vulnerability\n")
	b.WriteString("- high: vulnerability with a fix available, or 2+ major versions behind on a core dependency\n")
	b.WriteString("- moderate: deprecated, abandoned, or 1 major version behind\n")
	b.WriteString("- low: minor/patch updates available\n\n")
	fmt.Fprintf(&b, "Write the report to %s: a summary table (dependency, declared, latest, status, severity), then one subsection per critical/high finding with the recommended upgrade path and any breaking changes to expect.\n", output)
	if failOn != "" {
		fmt.Fprintf(&b, "End the report with an explicit PASS/FAIL verdict line: FAIL when any finding is %s or worse, PASS otherwise.\n", failOn)
	}
	b.WriteString("Finish by printing a one-line summary: counts per severity.\n")

	return Request{
		Prompt:  b.String(),
		Runtime: repoRuntime(bctx.Policy),
		Dir:     dir,
		Env:     projectEnv(dir),
		Report:  output,
	}, nil
}
