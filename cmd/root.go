// Package cmd implements the ciril command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ciril",
	Short: "Ciril - a portfolio chatbot that speaks for its candidate",
	Long: `Ciril serves a recruiter-facing chatbot backed by a single
candidate's profile. Visitor questions are answered in the candidate's
voice, grounded on profile facts retrieved from a pgvector knowledge
base.

Run "ciril serve" to start the HTTP API server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
