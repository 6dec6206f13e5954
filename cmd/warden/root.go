package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden - fingerprinted content-rule enforcement with a tamper-evident audit trail",
	Long: `Warden evaluates text against a versioned, cryptographically fingerprinted
ruleset and records every decision in an append-only audit log whose Merkle
roots are anchored to an external witness.

It provides:
  - Deterministic pattern and checksum checks with bounded evidence
  - Semantic intent checks through an embedding provider
  - strict, sync_light and regex_only evaluation modes
  - Inclusion proofs for any logged decision`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
