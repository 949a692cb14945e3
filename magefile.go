//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	modulePath = "github.com/dkoosis/speccov"
	binPath    = "./bin/speccov"
)

// Default target when running `mage` with no arguments.
var Default = Build

// Build compiles speccov into ./bin with version info stamped in.
func Build() error {
	ldflags := fmt.Sprintf("-s -w -X '%[1]s/internal/version.Version=%[2]s' -X '%[1]s/internal/version.CommitHash=%[3]s' -X '%[1]s/internal/version.BuildDate=%[4]s'",
		modulePath, gitVersion(), gitCommit(), time.Now().UTC().Format(time.RFC3339))
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath, "./cmd/speccov"); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	fmt.Println("Built:", binPath)
	return nil
}

// Clean removes build artifacts.
func Clean() error {
	if err := sh.Rm("./bin"); err != nil {
		return err
	}
	return sh.Rm("./allure-results")
}

// QA runs the full local gate: format, vet, lint, tests, then spec coverage.
func QA() error {
	mg.SerialDeps(Lint.Format, Lint.Vet, Lint.Golangci, Test.All, Build)
	return SpecCoverage()
}

// SpecCoverage checks that every spec under docs/specs is claimed by a test.
func SpecCoverage() error {
	mg.Deps(Build)
	if _, err := os.Stat("docs/specs"); os.IsNotExist(err) {
		fmt.Println("No docs/specs directory, skipping")
		return nil
	}
	return sh.RunV(binPath, "--sc-only", "--sc-type", "markdown", "--sc-target", "100")
}

// Lint namespace for linting commands
type Lint mg.Namespace

// Format fails if any file needs gofmt.
func (Lint) Format() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	var dirty []string
	for _, f := range strings.Split(out, "\n") {
		if f != "" && !strings.HasPrefix(f, "_examples/") {
			dirty = append(dirty, f)
		}
	}
	if len(dirty) > 0 {
		return fmt.Errorf("gofmt needed:\n  %s", strings.Join(dirty, "\n  "))
	}
	return nil
}

// Vet runs go vet
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Golangci runs golangci-lint when it is installed.
func (Lint) Golangci() error {
	if !onPath("golangci-lint") {
		fmt.Println("golangci-lint not installed, skipping")
		return nil
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Test namespace for testing commands
type Test mg.Namespace

// All runs all tests
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs tests with race detector
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Coverage runs tests with coverage
func (Test) Coverage() error {
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

func onPath(name string) bool {
	_, err := sh.Output("sh", "-c", "command -v "+name)
	return err == nil
}

func gitVersion() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty", "--match=v*")
	if err != nil || out == "" {
		return "dev"
	}
	return out
}

func gitCommit() string {
	out, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil || out == "" {
		return "unknown"
	}
	return out
}
