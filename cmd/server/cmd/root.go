// Package cmd holds the gatorauth command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gatorauth",
	Short: "gatorauth is a JWT authentication service",
	Long: `A user credential and session service: sign-up, login, RS256 access and
refresh tokens with silent rotation, and a revocation blacklist.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
