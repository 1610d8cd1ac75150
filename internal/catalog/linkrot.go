package catalog

import (
	"fmt"
	"strings"

	"agentpack/internal/argv"
)

func newLinkrotAgent() Definition {
	return Definition{
		Name:      "linkrot",
		Short:     "Crawl a site and report broken, redirecting, and suspicious links",
		ArgsUsage: "URL",
		Browser:   true,
		Flags: []argv.FlagSpec{
			{Name: "output", Kind: argv.KindString, Placeholder: "PATH", Help: "Report file (default linkrot-report.md under the report dir)"},
			{Name: "max-pages", Alias: "maxPages", Kind: argv.KindString, Placeholder: "N", Help: "Maximum pages to crawl (default 50)"},
			{Name: "include-external", Alias: "includeExternal", Kind: argv.KindBool, Help: "Check links to other hosts too"},
			{Name: "timeout", Kind: argv.KindString, Placeholder: "SECONDS", Help: "Per-request timeout (default 15)"},
		},
		Build: buildLinkrotRequest,
	}
}

func buildLinkrotRequest(bctx BuildContext, args *argv.Args) (Request, error) {
	target, err := requireURL(args, "site URL")
	if err != nil {
		return Request{}, err
	}
	output := bctx.Policy.ReportPath(args.ReadString("output", "linkrot-report.md"))
	maxPages := args.ReadNumber("max-pages", 50)
	includeExternal := args.ReadBool("include-external", false)
	timeout := args.ReadNumber("timeout", 15)

	var b strings.Builder
	fmt.Fprintf(&b, "You are checking %s for link rot.\n\n", target)
	fmt.Fprintf(&b, "Crawl the site breadth-first from that URL, staying on the same host, visiting at most %d pages. Collect every link on each visited page: anchors, images, stylesheets, scripts, and canonical/alternate link tags.\n\n", maxPages)
	if includeExternal {
		b.WriteString("Check links to external hosts as well as internal ones, but never crawl past an external link: check it and stop.\n")
	} else {
		b.WriteString("Check internal links only; record external links without fetching them.\n")
	}
	fmt.Fprintf(&b, "Check each distinct link once, with a %d second timeout per request. Use HEAD first and retry once with GET when HEAD is rejected. Identify yourself with a normal browser user agent.\n\n", timeout)
	b.WriteString("Classify every checked link:\n")
	b.WriteString("- broken: 404, 410, 5xx, DNS failure, or timeout\n")
	b.WriteString("- redirecting: 301/302/308 chains; record the chain and the final URL, and flag chains longer than two hops or ending on a different host\n")
	b.WriteString("- suspicious: 200 responses that look like soft 404s (a tiny page, a title saying not found, a redirect to the home page)\n")
	b.WriteString("- ok: everything else\n\n")
	b.WriteString("For every broken or suspicious link record each page that references it, the link text, and the target URL, so a fix can be applied at the source. Suggest a replacement when an obvious one exists (the redirect target, an archive.org snapshot, an updated path on the same host).\n\n")
	fmt.Fprintf(&b, "Write the report to %s: totals first (pages crawled, links checked, broken/redirecting/suspicious counts), then a table per category ordered by number of referencing pages. Keep ok links out of the report.\n", output)
	b.WriteString("Finish by printing a one-line summary: broken count, redirect count, pages crawled.\n")

	return Request{
		Prompt:  b.String(),
		Runtime: browserRuntime(bctx.Policy),
		Report:  output,
	}, nil
}
