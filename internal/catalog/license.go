package catalog

import (
	"fmt"
	"strings"

	"agentpack/internal/argv"
)

func newLicenseAuditAgent() Definition {
	return Definition{
		Name:      "license-audit",
		Short:     "Check dependency licenses for compatibility with the project license",
		ArgsUsage: "[DIR]",
		Flags: []argv.FlagSpec{
			{Name: "project-license", Alias: "projectLicense", Kind: argv.KindString, Placeholder: "SPDX", Help: "Project license as an SPDX id (default: detect from LICENSE file)"},
			{Name: "output", Kind: argv.KindString, Placeholder: "PATH", Help: "Report file (default license-audit-report.md under the report dir)"},
			{Name: "strict", Kind: argv.KindBool, Help: "Treat unknown and undetectable licenses as violations"},
		},
		Build: buildLicenseAuditRequest,
	}
}

func buildLicenseAuditRequest(bctx BuildContext, args *argv.Args) (Request, error) {
	dir, err := optionalDir(args)
	if err != nil {
		return Request{}, err
	}
	projectLicense := args.ReadString("project-license", "")
	output := bctx.Policy.ReportPath(args.ReadString("output", "license-audit-report.md"))
	strict := args.ReadBool("strict", false)

	var b strings.Builder
	b.WriteString("You are auditing the licenses of this project's dependencies for compatibility with the project's own license.\n\n")
	if projectLicense != "" {
		fmt.Fprintf(&b, "The project license is %s.\n", projectLicense)
	} else {
		b.WriteString("Determine the project license first: read LICENSE, LICENSE.md, or COPYING at the repository root, and cross-check the license field in the package manifest. If they disagree, flag that as a finding on its own.\n")
	}
	b.WriteString("\nSteps:\n")
	b.WriteString("1. Enumerate direct dependencies from the manifest (package.json, go.mod, Cargo.toml, requirements.txt, Gemfile).\n")
	b.WriteString("2. Determine each dependency's license: prefer registry metadata via the ecosystem's tooling (npm view <pkg> license, go-licenses, cargo metadata, pip show), fall back to reading the dependency's LICENSE file in the local module cache or vendor dir.\n")
	b.WriteString("3. Normalize what you find to SPDX identifiers. Record the evidence source for each (registry field vs. license file).\n")
	b.WriteString("4. Classify each against the project license:\n")
	b.WriteString("   - compatible: permissive licenses (MIT, BSD, Apache-2.0, ISC) under any project license\n")
	b.WriteString("   - review: weak copyleft (LGPL, MPL-2.0, EPL), compatible with conditions worth a human read\n")
	b.WriteString("   - violation: strong copyleft (GPL, AGPL) inside a permissively-licensed or proprietary project, or any license that forbids the project's distribution model\n")
	if strict {
		b.WriteString("   - Treat dependencies whose license you cannot determine as violations.\n")
	} else {
		b.WriteString("   - List dependencies whose license you cannot determine under a separate unknown heading; do not count them as violations.\n")
	}
	b.WriteString("\nDual-licensed dependencies count as the most permissive option offered. Note dependencies whose license changed in a recent major version (relicensing events) when you can see it in the registry history.\n\n")
	fmt.Fprintf(&b, "Write the report to %s: the detected project license, a full table (dependency, version, license, evidence, classification), then one subsection per violation or review item explaining the obligation and a remediation (replace, isolate, upgrade, or obtain the alternative license). End with an explicit verdict line: VIOLATIONS FOUND or CLEAN.\n", output)
	b.WriteString("Finish by printing a one-line summary: counts per classification.\n")

	return Request{
		Prompt:  b.String(),
		Runtime: repoRuntime(bctx.Policy),
		Dir:     dir,
		Env:     projectEnv(dir),
		Report:  output,
	}, nil
}
