package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the WorkloadHub CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workloadhub",
		Short: "WorkloadHub credential lifecycle service",
		Long: `WorkloadHub manages account credentials on top of an identity
provider: self-service password resets with one-time email tokens, and
admin-driven provisioning of temporary login credentials.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())

	return cmd
}
