package catalog

import (
	"fmt"
	"strings"

	"agentpack/internal/argv"
)

func newFontAuditAgent() Definition {
	return Definition{
		Name:      "font-audit",
		Short:     "Audit a site's web font loading and rendering",
		ArgsUsage: "URL",
		Browser:   true,
		Flags: []argv.FlagSpec{
			{Name: "output", Kind: argv.KindString, Placeholder: "PATH", Help: "Report file (default font-audit-report.md under the report dir)"},
		},
		Build: buildFontAuditRequest,
	}
}

func buildFontAuditRequest(bctx BuildContext, args *argv.Args) (Request, error) {
	target, err := requireURL(args, "site URL")
	if err != nil {
		return Request{}, err
	}
	output := bctx.Policy.ReportPath(args.ReadString("output", "font-audit-report.md"))

	var b strings.Builder
	fmt.Fprintf(&b, "You are auditing how %s loads and uses web fonts.\n\n", target)
	b.WriteString("Open the page in the browser with the network panel in mind and establish:\n\n")
	b.WriteString("Inventory:\n")
	b.WriteString("- Every font file requested: family, weight, style, format (woff2/woff/ttf), file size, and where it is served from (same origin, Google Fonts, another CDN).\n")
	b.WriteString("- Every @font-face rule: src order, unicode-range, font-display value, and whether the declared family is actually used by any rendered element.\n")
	b.WriteString("- The font stacks in use: computed font-family on body text, headings, code, and UI controls, and which fallbacks they name.\n\n")
	b.WriteString("Problems to check for:\n")
	b.WriteString("- Unused weights or families downloaded but never rendered.\n")
	b.WriteString("- Formats older than woff2 served to modern browsers, or no woff2 at all.\n")
	b.WriteString("- Missing font-display, or font-display: block causing invisible text on slow connections.\n")
	b.WriteString("- No preload for the font used above the fold, or preloads for fonts never used.\n")
	b.WriteString("- Layout shift when the web font swaps in: compare fallback and web font metrics, look for size-adjust/ascent-override mitigation.\n")
	b.WriteString("- Whole families loaded where a subset (unicode-range, variable font) would do. Estimate the bytes saved.\n")
	b.WriteString("- Third-party font hosts adding a connection setup on the critical path (no preconnect).\n\n")
	b.WriteString("Total the font bytes transferred and state what fraction of the page weight that is.\n\n")
	fmt.Fprintf(&b, "Write the report to %s: the inventory tables first, then findings ordered by user impact, each with the CSS or markup change that fixes it and the estimated byte or milliseconds saving. End with a recommended target set of font files.\n", output)
	b.WriteString("Finish by printing a one-line summary: families and files loaded, total font bytes, findings count.\n")

	return Request{
		Prompt:  b.String(),
		Runtime: browserRuntime(bctx.Policy),
		Report:  output,
	}, nil
}
