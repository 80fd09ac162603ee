package main

import (
	"fmt"

	"github.com/metalagman/verdict/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func domainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "domains",
		Short:        "List domains discovered under the domains directory",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := domain.NewRegistry()
			_, warnings, err := registry.Discover(viper.GetString("domains-dir"))
			if err != nil {
				return err
			}
			for _, w := range warnings {
				log.Warn().Str("path", w.Path).Err(w.Err).Msg("descriptor skipped")
			}

			names := registry.List()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no domains found")
				return nil
			}
			for _, name := range names {
				d := registry.Get(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", d.Name, d.Version, d.Description)
			}
			return nil
		},
	}
}
