package catalog

import (
	"fmt"
	"strings"

	"agentpack/internal/argv"
)

func newFormFlowAgent() Definition {
	return Definition{
		Name:      "form-flow",
		Short:     "Walk a site's forms end to end and review the user experience",
		ArgsUsage: "URL",
		Browser:   true,
		Flags: []argv.FlagSpec{
			{Name: "output", Kind: argv.KindString, Placeholder: "PATH", Help: "Report file (default form-flow-report.md under the report dir)"},
			{Name: "max-forms", Alias: "maxForms", Kind: argv.KindString, Placeholder: "N", Help: "Maximum forms to walk (default 5)"},
		},
		Build: buildFormFlowRequest,
	}
}

func buildFormFlowRequest(bctx BuildContext, args *argv.Args) (Request, error) {
	target, err := requireURL(args, "site URL")
	if err != nil {
		return Request{}, err
	}
	output := bctx.Policy.ReportPath(args.ReadString("output", "form-flow-report.md"))
	maxForms := args.ReadNumber("max-forms", 5)

	var b strings.Builder
	fmt.Fprintf(&b, "You are reviewing the form experience on %s.\n\n", target)
	fmt.Fprintf(&b, "Find the forms a visitor actually meets: search, signup, login, contact, checkout, newsletter. Walk up to %d of them in the browser, most prominent first.\n\n", maxForms)
	b.WriteString("Hard rules:\n")
	b.WriteString("- Use obviously fake data (example.com email addresses, the name Test User, phone 555-0100).\n")
	b.WriteString("- Never complete a purchase, payment, or anything that charges money or sends email to a real person. Stop at the final confirmation step and record what the form asked for up to that point.\n")
	b.WriteString("- Never create more than one account on the same form.\n\n")
	b.WriteString("For each form, walk it three ways and record what happens:\n")
	b.WriteString("1. Empty submit: press submit with nothing filled in. Are errors shown next to the fields or only at the top? Is focus moved to the first error?\n")
	b.WriteString("2. Invalid data: wrong email shape, too-short password, letters in a phone field. Does validation fire on blur, on submit, or on every keystroke? Are messages specific (what is wrong, how to fix it) or generic?\n")
	b.WriteString("3. Valid data: fill everything correctly. Count the fields and the steps. Note which fields feel unnecessary for the purpose, whether the form survives a mistake without wiping the other fields, what the submit button says while working, and what the success state looks like.\n\n")
	b.WriteString("Also record per form: label quality, input types and autocomplete attributes (email keyboard on phones, current-password vs new-password), whether a password field has a reveal control, and whether any field silently rejects pasted input.\n\n")
	b.WriteString("Rate each finding: blocker (a user cannot finish the form), major (many users will abandon), minor (friction), polish.\n\n")
	fmt.Fprintf(&b, "Write the report to %s: one section per form with the three walkthroughs and findings, then a cross-form section for patterns repeated everywhere. Order findings by rating.\n", output)
	b.WriteString("Finish by printing a one-line summary: forms walked and blocker/major counts.\n")

	return Request{
		Prompt:  b.String(),
		Runtime: browserRuntime(bctx.Policy),
		Report:  output,
	}, nil
}
