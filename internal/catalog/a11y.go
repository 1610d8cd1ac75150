package catalog

import (
	"fmt"
	"strings"

	"agentpack/internal/argv"
)

func newA11yAuditAgent() Definition {
	return Definition{
		Name:      "a11y-audit",
		Short:     "Audit a live site for accessibility problems",
		ArgsUsage: "URL",
		Browser:   true,
		Flags: []argv.FlagSpec{
			{Name: "output", Kind: argv.KindString, Placeholder: "PATH", Help: "Report file (default a11y-audit-report.md under the report dir)"},
			{Name: "max-pages", Alias: "maxPages", Kind: argv.KindString, Placeholder: "N", Help: "Maximum pages to audit (default 10)"},
			{Name: "standard", Kind: argv.KindString, Placeholder: "LEVEL", Help: "Conformance target: wcag2a, wcag2aa, wcag2aaa (default wcag2aa)"},
			{Name: "include-warnings", Alias: "includeWarnings", Kind: argv.KindBool, Help: "Report best-practice warnings beyond conformance failures"},
		},
		Build: buildA11yAuditRequest,
	}
}

func buildA11yAuditRequest(bctx BuildContext, args *argv.Args) (Request, error) {
	target, err := requireURL(args, "site URL")
	if err != nil {
		return Request{}, err
	}
	output := bctx.Policy.ReportPath(args.ReadString("output", "a11y-audit-report.md"))
	maxPages := args.ReadNumber("max-pages", 10)
	standard := args.ReadString("standard", "wcag2aa")
	includeWarnings := args.ReadBool("include-warnings", false)
	switch standard {
	case "wcag2a", "wcag2aa", "wcag2aaa":
	default:
		return Request{}, fmt.Errorf("invalid --standard %q: want wcag2a, wcag2aa, or wcag2aaa", standard)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are auditing the accessibility of %s against %s.\n\n", target, strings.ToUpper(strings.Replace(standard, "wcag2", "WCAG 2.1 level ", 1)))
	fmt.Fprintf(&b, "Audit the landing page plus the most important pages reachable from it, up to %d pages total. Prefer pages with forms, tables, media, and navigation menus.\n\n", maxPages)
	b.WriteString("On every page, open it in the browser and check:\n")
	b.WriteString("- Page structure: one h1, heading levels that never skip, landmarks (header, nav, main, footer), a descriptive title, and the lang attribute.\n")
	b.WriteString("- Images and media: alt text that describes function, empty alt on decorative images, captions or transcripts on video/audio.\n")
	b.WriteString("- Forms: every control labeled (label, aria-label, or aria-labelledby), errors announced and associated with their field, required fields marked accessibly.\n")
	b.WriteString("- Keyboard: tab through the page; every interactive element reachable, visible focus indicator, no keyboard traps, skip link present and working.\n")
	b.WriteString("- Contrast: sample text/background pairs, including placeholder text and disabled-looking controls that are actually enabled. Compute the ratio, do not eyeball it.\n")
	b.WriteString("- ARIA: roles used correctly, no aria-hidden on focusable elements, live regions where content updates in place.\n")
	b.WriteString("- Motion: animations respect prefers-reduced-motion; nothing flashes more than three times per second.\n\n")
	b.WriteString("For every failure record: the page URL, the failing element (selector or snippet), the WCAG success criterion violated, who it blocks (screen reader, keyboard-only, low-vision user), and the concrete fix.\n")
	if includeWarnings {
		b.WriteString("Also record best-practice warnings that are not conformance failures, under a separate heading.\n")
	}
	fmt.Fprintf(&b, "\nWrite the report to %s: an executive summary with a pass/fail per page, then findings grouped by success criterion, ordered by how many users each blocks. End with the five fixes that would help most, in order.\n", output)
	b.WriteString("Finish by printing a one-line summary: failures found per page audited.\n")

	return Request{
		Prompt:  b.String(),
		Runtime: browserRuntime(bctx.Policy),
		Report:  output,
	}, nil
}
