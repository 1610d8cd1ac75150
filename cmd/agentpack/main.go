package main

import (
	"errors"
	"fmt"
	"os"

	"agentpack/internal/catalog"
	"agentpack/internal/runner"
)

var errCommandRequired = errors.New("command is required")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	if err := executeCLI(os.Args[1:]); err != nil {
		var exitErr runner.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("agentpack - run packaged LLM agents against sites and repositories")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  agentpack <agent> [target] [flags]")
	fmt.Println("  agentpack <command> [flags]")
	fmt.Println("")
	fmt.Println("Agents:")
	for _, def := range catalog.All() {
		fmt.Printf("  %-14s %s\n", def.Name, def.Short)
	}
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  agents list                 List the packaged agents")
	fmt.Println("  agents show --agent NAME    Show one agent's flags and defaults")
	fmt.Println("  runs list                   List recorded runs")
	fmt.Println("  runs show --run-id ID       Show one recorded run")
	fmt.Println("  runs prune                  Mark stale running rows as interrupted")
	fmt.Println("  policy-init                 Write a default policy file")
	fmt.Println("  doctor                      Check the local setup")
	fmt.Println("  serve                       Serve the catalog and run history over HTTP")
	fmt.Println("")
	fmt.Println("Run `agentpack <agent> --help` for per-agent flags, or")
	fmt.Println("`agentpack <command> --help` for command flags.")
	fmt.Println("")
	fmt.Println("Unrecognized agent flags are forwarded to the underlying agent CLI.")
}
