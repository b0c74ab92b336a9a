// Package main is the kotae CLI entry point.
package main

import (
	"os"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/joho/godotenv"
)

// Build variables set by ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	cmd := cli.NewRootCommand(version, commit, date)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
