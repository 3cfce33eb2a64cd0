//go:build mage

// Package main provides build targets for locallibrary using Mage.
//
// Usage:
//
//	mage build      Compile the locallibrary binary to bin/
//	mage test       Run all tests
//	mage demo       Generate the demo catalog
//	mage run        Build and start the server
//	mage clean      Remove build artifacts
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "locallibrary"
	binaryDir  = "bin"
	packageDir = "."
	demoDir    = "./cmd/generate_demo"
	modulePath = "main"
)

// Default target when mage runs without arguments.
var Default = Build

func ldflags() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "unknown"
	}
	return fmt.Sprintf("-X %s.Version=%s -X %s.Commit=%s", modulePath, version, modulePath, commit)
}

// Build compiles the locallibrary binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), packageDir)
}

// Test runs every package's tests with the race detector.
func Test() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, binGo, "test", "-race", "./...")
}

// Demo regenerates the demo catalog database.
func Demo() error {
	return sh.RunV(binGo, "run", demoDir)
}

// Run builds and starts the server with the local environment.
func Run() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binaryDir, binaryName), "serve")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}
