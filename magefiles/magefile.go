//go:build mage

// Package main contains Mage build targets for lamptest developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir     = "bin"
	binName    = "lamptest"
	cmdPkg     = "./cmd/cli"
	versionVar = "github.com/ccollicutt/lamptest/internal/cli/commands.Version"
)

// Default target when mage is run without arguments.
var Default = Build

// version returns LAMPTEST_VERSION, or the git description of HEAD.
func version() string {
	if v := os.Getenv("LAMPTEST_VERSION"); v != "" {
		return v
	}
	v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || v == "" {
		return "dev"
	}
	return v
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	ldflags := fmt.Sprintf("-s -w -X %s=%s", versionVar, version())
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests of the library and CLI packages.
func Test() error {
	mg.Deps(Vet)
	return sh.RunV("go", "test", "-race", "./pkg/...", "./internal/...")
}

// E2E runs the quality checks and end-to-end tests, which build their own binary.
func E2E() error {
	return sh.RunV("go", "test", "-count=1", "./test/...")
}

// All runs vet, unit tests, end-to-end tests and the build.
func All() {
	mg.SerialDeps(Test, E2E, Build)
}

// Clean removes build artifacts.
func Clean() error {
	fmt.Printf("Removing %s\n", binDir)
	return sh.Rm(binDir)
}
