package main

import (
	"fmt"

	"github.com/metalagman/verdict/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	domainsDir string
	debug      bool
	rootCmd    = &cobra.Command{
		Use:   "verdict",
		Short: "verdict validates agent task completion in simulated domains",
	}
)

// Execute runs the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringVar(&domainsDir, "domains-dir", ".", "directory scanned for domain descriptors")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	if err := viper.BindPFlag("domains-dir", rootCmd.PersistentFlags().Lookup("domains-dir")); err != nil {
		return fmt.Errorf("bind domains-dir flag: %w", err)
	}
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.Init(debug)
	}
	rootCmd.AddCommand(domainsCmd())
	rootCmd.AddCommand(checkCmd())
	return rootCmd.Execute()
}
