// speccov reports how much of a specification document tree is covered by
// Go tests that carry "// Scenario: <id>" marks.
//
// Usage:
//
//	speccov --sc-type sphinx --sc-only --sc-target 90
//	go test -json ./... | speccov --sc-type markdown
//
// Output modes (auto-detected):
//
//	terminal  styled Unicode output (default when TTY)
//	llm       terse plain text for AI consumption (default when piped)
//	json      structured JSON for automation
package main

import (
	"os"

	"github.com/dkoosis/speccov/pkg/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
