package catalog

import (
	"fmt"
	"strings"

	"agentpack/internal/argv"
)

func newDupeCodeAgent() Definition {
	return Definition{
		Name:      "dupe-code",
		Short:     "Find duplicated and near-duplicated code worth consolidating",
		ArgsUsage: "[DIR]",
		Flags: []argv.FlagSpec{
			{Name: "min-lines", Alias: "minLines", Kind: argv.KindString, Placeholder: "N", Help: "Ignore duplicates shorter than N lines (default 10)"},
			{Name: "threshold", Kind: argv.KindString, Placeholder: "PCT", Help: "Similarity percentage for near-duplicates (default 85)"},
			{Name: "output", Kind: argv.KindString, Placeholder: "PATH", Help: "Report file (default dupe-code-report.md under the report dir)"},
			{Name: "include-tests", Alias: "includeTests", Kind: argv.KindBool, Help: "Scan test files too"},
		},
		Build: buildDupeCodeRequest,
	}
}

func buildDupeCodeRequest(bctx BuildContext, args *argv.Args) (Request, error) {
	dir, err := optionalDir(args)
	if err != nil {
		return Request{}, err
	}
	minLines := args.ReadNumber("min-lines", 10)
	threshold := args.ReadNumber("threshold", 85)
	output := bctx.Policy.ReportPath(args.ReadString("output", "dupe-code-report.md"))
	includeTests := args.ReadBool("include-tests", false)
	if threshold < 50 || threshold > 100 {
		return Request{}, fmt.Errorf("invalid --threshold %d: want 50-100", threshold)
	}

	var b strings.Builder
	b.WriteString("You are hunting duplicated code in the repository at the current working directory.\n\n")
	b.WriteString("Scope:\n")
	b.WriteString("- Scan source files only. Skip vendored code, generated files (look for generation headers), lockfiles, and anything ignored by git.\n")
	if includeTests {
		b.WriteString("- Include test files, but report test/test duplication separately from production duplication.\n")
	} else {
		b.WriteString("- Skip test files.\n")
	}
	fmt.Fprintf(&b, "- Ignore duplicated regions shorter than %d lines.\n\n", minLines)
	b.WriteString("Method:\n")
	b.WriteString("1. Map the repository layout first (languages, top-level packages or modules) so you know where parallel implementations are likely.\n")
	b.WriteString("2. Find exact duplicates: identical or whitespace-identical regions across files. Grep for distinctive lines to locate candidates, then read both sides to confirm.\n")
	fmt.Fprintf(&b, "3. Find near-duplicates: regions at least %d%% similar after renaming variables, such as copy-pasted functions with a type or field swapped.\n", threshold)
	b.WriteString("4. Find structural duplication: parallel switch statements or if-chains over the same cases in different files, repeated validation blocks, and copied error-handling boilerplate.\n\n")
	b.WriteString("For every duplicate group record: the files and line ranges involved, the size in lines, whether it is exact or near, and a concrete consolidation: the shared helper to extract, where it should live, and which call sites change. When consolidation would be worse than the duplication (two-line fragments, deliberately forked code), say so and mark the group as accepted.\n\n")
	fmt.Fprintf(&b, "Write the report to %s, ordered by duplicated line count descending: a summary table first (group, files, lines, kind, action), then one subsection per group with the evidence and the proposed refactor. Do not modify any source file.\n", output)
	b.WriteString("Finish by printing a one-line summary: groups found and total duplicated lines.\n")

	return Request{
		Prompt:  b.String(),
		Runtime: repoRuntime(bctx.Policy),
		Dir:     dir,
		Env:     projectEnv(dir),
		Report:  output,
	}, nil
}
