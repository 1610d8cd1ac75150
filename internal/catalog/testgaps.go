package catalog

import (
	"fmt"
	"strings"

	"agentpack/internal/argv"
)

func newTestGapsAgent() Definition {
	return Definition{
		Name:      "test-gaps",
		Short:     "Find untested behavior that most deserves a test",
		ArgsUsage: "[DIR]",
		Flags: []argv.FlagSpec{
			{Name: "output", Kind: argv.KindString, Placeholder: "PATH", Help: "Report file (default test-gaps-report.md under the report dir)"},
			{Name: "framework", Kind: argv.KindString, Placeholder: "NAME", Help: "Test framework in use (default: auto-detect)"},
			{Name: "max-files", Alias: "maxFiles", Kind: argv.KindString, Placeholder: "N", Help: "Cap the number of source files analyzed in depth (default 40)"},
		},
		Build: buildTestGapsRequest,
	}
}

func buildTestGapsRequest(bctx BuildContext, args *argv.Args) (Request, error) {
	dir, err := optionalDir(args)
	if err != nil {
		return Request{}, err
	}
	output := bctx.Policy.ReportPath(args.ReadString("output", "test-gaps-report.md"))
	framework := args.ReadString("framework", "")
	maxFiles := args.ReadNumber("max-files", 40)

	var b strings.Builder
	b.WriteString("You are analyzing this repository's test coverage to find the gaps that matter most.\n\n")
	if framework != "" {
		fmt.Fprintf(&b, "The test framework in use is %s.\n", framework)
	} else {
		b.WriteString("Detect the test framework first from the manifest and existing test files.\n")
	}
	b.WriteString("\nSteps:\n")
	b.WriteString("1. Map production source files to their test files by the project's own convention (parallel _test files, test/ or __tests__/ mirrors, spec files). List production files with no test file at all.\n")
	b.WriteString("2. If the ecosystem has a coverage tool already configured (go test -cover, jest --coverage, pytest --cov), run it and use real numbers; otherwise estimate from the file mapping and say the numbers are estimates.\n")
	fmt.Fprintf(&b, "3. Read the most important uncovered code in depth, up to %d files. Importance means: exported/public API, error-handling paths, anything parsing external input, money/time/permission logic, and code with many inbound references.\n", maxFiles)
	b.WriteString("4. For each gap, decide what the missing test should assert. Be concrete: name the function, the scenario, the inputs, and the expected behavior. Prefer the smallest test that would have caught a plausible bug.\n")
	b.WriteString("5. Call out existing tests that look like noise: tests asserting nothing, tests of trivial getters, snapshot tests nobody could review. These dilute real coverage.\n\n")
	b.WriteString("Rank gaps: critical (untested code that handles external input, errors, or security boundaries), high (untested public API with non-trivial logic), moderate (untested branches in covered files), low (everything else).\n\n")
	fmt.Fprintf(&b, "Write the report to %s: a coverage overview, the ranked gap list as a table (file, function, rank, missing scenario), then one subsection per critical/high gap with a sketch of the test to write (setup, call, assertion) in the project's own test style. Do not write or modify any test file.\n", output)
	b.WriteString("Finish by printing a one-line summary: gaps found per rank.\n")

	return Request{
		Prompt:  b.String(),
		Runtime: repoRuntime(bctx.Policy),
		Dir:     dir,
		Env:     projectEnv(dir),
		Report:  output,
	}, nil
}
