package catalog

import (
	"fmt"
	"strings"

	"agentpack/internal/argv"
)

func newChangelogAgent() Definition {
	return Definition{
		Name:      "changelog",
		Short:     "Generate a changelog from recent git history",
		ArgsUsage: "[DIR]",
		Flags: []argv.FlagSpec{
			{Name: "since", Kind: argv.KindString, Placeholder: "REF", Help: "Start of the range: a tag, ref, or date (default: last tag, else last 30 days)"},
			{Name: "output", Kind: argv.KindString, Placeholder: "PATH", Help: "Changelog file to write (default CHANGELOG-draft.md under the report dir)"},
			{Name: "audience", Kind: argv.KindString, Placeholder: "WHO", Help: "Write for this audience: users or developers (default users)"},
			{Name: "max-commits", Alias: "maxCommits", Kind: argv.KindString, Placeholder: "N", Help: "Cap the number of commits inspected (default 200)"},
		},
		Build: buildChangelogRequest,
	}
}

func buildChangelogRequest(bctx BuildContext, args *argv.Args) (Request, error) {
	dir, err := optionalDir(args)
	if err != nil {
		return Request{}, err
	}
	since := args.ReadString("since", "")
	output := bctx.Policy.ReportPath(args.ReadString("output", "CHANGELOG-draft.md"))
	audience := args.ReadString("audience", "users")
	maxCommits := args.ReadNumber("max-commits", 200)
	if audience != "users" && audience != "developers" {
		return Request{}, fmt.Errorf("invalid --audience %q: want users or developers", audience)
	}

	var b strings.Builder
	b.WriteString("You are preparing a changelog for the git repository in the current working directory.\n\n")
	if since != "" {
		fmt.Fprintf(&b, "Cover the range from %s to HEAD.\n", since)
	} else {
		b.WriteString("Cover the range since the most recent tag; if the repository has no tags, cover the last 30 days.\n")
	}
	fmt.Fprintf(&b, "Inspect at most %d commits.\n\n", maxCommits)
	b.WriteString("Steps:\n")
	b.WriteString("1. Run `git log` with `--stat` over the range to collect commits, authors, and touched files. Use `git tag --sort=-creatordate` to find the range start when none was given.\n")
	b.WriteString("2. Drop noise: merge commits, version bumps, lockfile-only changes, CI tweaks, and formatting-only commits.\n")
	b.WriteString("3. Group the remainder into: Added, Changed, Fixed, Deprecated, Removed, Security. Skip empty groups.\n")
	b.WriteString("4. For commits that reference an issue or PR number, keep the reference in the entry.\n")
	b.WriteString("5. When several commits belong to one feature, collapse them into a single entry describing the feature, not the commits.\n\n")
	if audience == "users" {
		b.WriteString("Write for end users: describe visible behavior, not internals. Never mention file paths, function names, or refactors unless they change behavior.\n")
	} else {
		b.WriteString("Write for developers: name the affected packages and APIs, call out breaking changes first, and include migration notes where an entry changes a public interface.\n")
	}
	fmt.Fprintf(&b, "\nWrite the changelog in Keep a Changelog style to %s. Start the file with an Unreleased heading and the date range covered.\n", output)
	b.WriteString("Finish by printing a one-line summary: the number of entries written per group.\n")

	return Request{
		Prompt:  b.String(),
		Runtime: repoRuntime(bctx.Policy),
		Dir:     dir,
		Env:     projectEnv(dir),
		Report:  output,
	}, nil
}
