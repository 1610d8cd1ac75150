package catalog

import (
	"fmt"
	"strings"

	"agentpack/internal/argv"
)

func newPerfAuditAgent() Definition {
	return Definition{
		Name:      "perf-audit",
		Short:     "Audit a page's loading performance and weight",
		ArgsUsage: "URL",
		Browser:   true,
		Flags: []argv.FlagSpec{
			{Name: "output", Kind: argv.KindString, Placeholder: "PATH", Help: "Report file (default perf-audit-report.md under the report dir)"},
			{Name: "runs", Kind: argv.KindString, Placeholder: "N", Help: "Load the page N times and use the median (default 3)"},
			{Name: "mobile", Kind: argv.KindBool, Help: "Audit with a mobile viewport and throttled network profile"},
		},
		Build: buildPerfAuditRequest,
	}
}

func buildPerfAuditRequest(bctx BuildContext, args *argv.Args) (Request, error) {
	target, err := requireURL(args, "page URL")
	if err != nil {
		return Request{}, err
	}
	output := bctx.Policy.ReportPath(args.ReadString("output", "perf-audit-report.md"))
	runs := args.ReadNumber("runs", 3)
	mobile := args.ReadBool("mobile", false)
	if runs < 1 || runs > 9 {
		return Request{}, fmt.Errorf("invalid --runs %d: want 1-9", runs)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are auditing the loading performance of %s.\n\n", target)
	if mobile {
		b.WriteString("Audit as a mid-range phone: 390px viewport, mobile user agent, and note that timings reflect a throttled profile when you can apply one.\n")
	} else {
		b.WriteString("Audit as a desktop browser at 1280px.\n")
	}
	fmt.Fprintf(&b, "Load the page %d times with a cold cache and report median numbers; note the spread when runs disagree badly.\n\n", runs)
	b.WriteString("Measure per load, using the browser's performance and resource timing data:\n")
	b.WriteString("- Navigation: time to first byte, DOM content loaded, load event.\n")
	b.WriteString("- Paint: first contentful paint, largest contentful paint and which element it was, cumulative layout shift and which elements moved.\n")
	b.WriteString("- Weight: request count and transferred bytes, broken down by type (document, script, style, font, image, other) and by first- vs third-party.\n\n")
	b.WriteString("Then find the causes, reading the HTML and the network waterfall:\n")
	b.WriteString("- Render-blocking scripts and styles in the head; scripts without defer/async.\n")
	b.WriteString("- Images: uncompressed or oversized for their rendered size, missing width/height (layout shift), missing lazy loading below the fold, legacy formats where webp/avif would be smaller.\n")
	b.WriteString("- The LCP element's critical path: everything that must happen before it renders, and which steps are avoidable (preload the hero image, inline the critical CSS, drop a blocking tag).\n")
	b.WriteString("- Third-party scripts: what each costs in bytes and main-thread time, and which look removable.\n")
	b.WriteString("- Caching: responses with no or short cache lifetimes that rarely change.\n")
	b.WriteString("- Compression: text responses served without gzip/brotli.\n\n")
	fmt.Fprintf(&b, "Write the report to %s: the median metrics table first with a good/needs-improvement/poor rating per metric (LCP 2.5s/4s, CLS 0.1/0.25, TTFB 800ms/1800ms), then the weight breakdown, then findings ordered by estimated milliseconds saved, each with its concrete fix. End with the three changes to make first.\n", output)
	b.WriteString("Finish by printing a one-line summary: median LCP, CLS, total weight, findings count.\n")

	return Request{
		Prompt:  b.String(),
		Runtime: browserRuntime(bctx.Policy),
		Report:  output,
	}, nil
}
