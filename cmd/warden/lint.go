package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sentra-hq/warden/pkg/cli"
	"sentra-hq/warden/pkg/ruleset"
)

var (
	lintRules  string
	lintStrict bool
	lintOutput string
)

type lintResult struct {
	Version     string   `json:"version"`
	Directives  int      `json:"directives"`
	Fingerprint string   `json:"fingerprint"`
	Warnings    []string `json:"warnings,omitempty"`
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate a ruleset file and print its fingerprint",
	Long: `Lint loads a ruleset file, reports schema problems and prints the
canonical fingerprint on success. Pin that fingerprint as
ruleset.reference_fingerprint to enable integrity verification.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := ruleset.LoadFile(lintRules, ruleset.LoadOptions{Strict: lintStrict})
		if err != nil {
			return err
		}

		result := lintResult{
			Version:     rs.Version,
			Directives:  len(rs.Directives),
			Fingerprint: rs.Fingerprint(),
			Warnings:    rs.Warnings,
		}

		if cli.OutputFormat(lintOutput) == cli.FormatJSON {
			return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, result)
		}

		for _, warning := range result.Warnings {
			fmt.Printf("warning: %s\n", warning)
		}
		fmt.Printf("version:     %s\n", result.Version)
		fmt.Printf("directives:  %d\n", result.Directives)
		fmt.Printf("fingerprint: %s\n", result.Fingerprint)
		return nil
	},
}

func init() {
	lintCmd.Flags().StringVar(&lintRules, "rules", "rules.yaml", "ruleset file to validate")
	lintCmd.Flags().BoolVar(&lintStrict, "strict", true, "reject unknown check kinds")
	lintCmd.Flags().StringVarP(&lintOutput, "output", "o", "text", "output format (text, json)")
	rootCmd.AddCommand(lintCmd)
}
