package catalog

import (
	"fmt"
	"strings"

	"agentpack/internal/argv"
)

func newSEOAuditAgent() Definition {
	return Definition{
		Name:      "seo-audit",
		Short:     "Audit a site's technical and on-page SEO",
		ArgsUsage: "URL",
		Browser:   true,
		Flags: []argv.FlagSpec{
			{Name: "output", Kind: argv.KindString, Placeholder: "PATH", Help: "Report file (default seo-audit-report.md under the report dir)"},
			{Name: "max-pages", Alias: "maxPages", Kind: argv.KindString, Placeholder: "N", Help: "Maximum pages to audit (default 15)"},
			{Name: "focus", Kind: argv.KindString, Placeholder: "AREA", Help: "Narrow the audit: technical, content, or all (default all)"},
		},
		Build: buildSEOAuditRequest,
	}
}

func buildSEOAuditRequest(bctx BuildContext, args *argv.Args) (Request, error) {
	target, err := requireURL(args, "site URL")
	if err != nil {
		return Request{}, err
	}
	output := bctx.Policy.ReportPath(args.ReadString("output", "seo-audit-report.md"))
	maxPages := args.ReadNumber("max-pages", 15)
	focus := args.ReadString("focus", "all")
	switch focus {
	case "technical", "content", "all":
	default:
		return Request{}, fmt.Errorf("invalid --focus %q: want technical, content, or all", focus)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are auditing the SEO of %s.\n\n", target)
	fmt.Fprintf(&b, "Audit the landing page and the most linked internal pages, up to %d pages.\n\n", maxPages)
	if focus == "technical" || focus == "all" {
		b.WriteString("Technical checks:\n")
		b.WriteString("- robots.txt: fetch it, confirm it exists, does not block important sections, and points at the sitemap.\n")
		b.WriteString("- sitemap.xml: fetch it, sample a few URLs, and verify they respond 200 and are canonical.\n")
		b.WriteString("- Per page: exactly one canonical tag pointing at the served URL, meta robots sane, https enforced, www/non-www consistent, no redirect chains into the page.\n")
		b.WriteString("- Structured data: validate any JSON-LD present (syntax and required fields for its type); note obvious missed opportunities (Article, Product, Organization, BreadcrumbList).\n")
		b.WriteString("- Rendering: compare raw HTML and the rendered DOM; flag primary content or links that exist only after JavaScript runs.\n")
		b.WriteString("- Status hygiene: internal links returning non-200, soft 404s.\n\n")
	}
	if focus == "content" || focus == "all" {
		b.WriteString("On-page checks, per page:\n")
		b.WriteString("- Title: present, unique across audited pages, 50-60 characters, leading with the page's distinct topic.\n")
		b.WriteString("- Meta description: present, unique, 120-160 characters, written to earn the click.\n")
		b.WriteString("- Headings: one h1 matching the page intent, a sensible outline below it.\n")
		b.WriteString("- Images: descriptive alt text and filenames on content images.\n")
		b.WriteString("- Internal linking: orphan pages (in the sitemap but never linked), anchor text quality, important pages more than three clicks from the home page.\n")
		b.WriteString("- Duplication: near-identical titles, descriptions, or body content across pages.\n\n")
	}
	b.WriteString("Rate every finding critical, high, moderate, or low by its likely ranking and click-through impact, and give the exact fix: the tag to change and the value to change it to.\n\n")
	fmt.Fprintf(&b, "Write the report to %s: a per-page summary table (url, title ok, description ok, canonical ok, issues), then findings grouped by check, ordered by severity. End with the ten highest-impact fixes across the site, in order.\n", output)
	b.WriteString("Finish by printing a one-line summary: pages audited and findings per severity.\n")

	return Request{
		Prompt:  b.String(),
		Runtime: browserRuntime(bctx.Policy),
		Report:  output,
	}, nil
}
