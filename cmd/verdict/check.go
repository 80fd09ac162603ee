package main

import (
	"fmt"

	"github.com/metalagman/verdict/internal/domain"
	"github.com/metalagman/verdict/internal/resolve"
	"github.com/metalagman/verdict/internal/reward"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func checkCmd() *cobra.Command {
	var split string
	cmd := &cobra.Command{
		Use:          "check [domain ...]",
		Short:        "Self-validate domains: replay each task's ground truth and expect full reward",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := viper.GetString("domains-dir")
			registry := domain.NewRegistry()
			_, warnings, err := registry.Discover(dir)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				log.Warn().Str("path", w.Path).Err(w.Err).Msg("descriptor skipped")
			}

			names := args
			if len(names) == 0 {
				names = registry.List()
			}
			if len(names) == 0 {
				return fmt.Errorf("no domains found under %s", dir)
			}

			ns := resolve.NewNamespace()
			failed := 0
			for _, name := range names {
				if err := checkDomain(cmd, registry, ns, dir, name, split); err != nil {
					log.Error().Err(err).Str("domain", name).Msg("check failed")
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d domains failed", failed, len(names))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&split, "split", "test", "task split to validate")
	return cmd
}

// checkDomain replays every task's ground truth as if it were the agent's
// own run; a well-formed domain must score full reward against itself.
func checkDomain(cmd *cobra.Command, registry *domain.Registry, ns *resolve.Namespace, dir, name, split string) error {
	d := registry.Get(name)
	if d == nil {
		return fmt.Errorf("domain %q not registered", name)
	}
	components, err := resolve.Bind(d, ns, dir, registry.Origin(name), split)
	if err != nil {
		return err
	}

	validator := &reward.Validator{
		Load:           components.DataLoader,
		Tools:          components.Tools,
		TerminateTools: components.TerminateTools,
	}

	failures := 0
	for i, t := range components.Tasks {
		final, err := validator.Load()
		if err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
		for _, action := range t.Actions {
			if action.IsRespond() {
				continue
			}
			if _, terminal := components.TerminateTools[action.Name]; terminal {
				continue
			}
			impl, ok := components.Tools.Get(action.Name)
			if !ok {
				continue
			}
			if _, err := impl.Invoke(final, action.Kwargs); err != nil {
				log.Debug().Err(err).Str("action", action.Name).Int("task", i).Msg("ground-truth tool error")
			}
		}
		res, err := validator.Validate(t, t.Actions, final)
		if err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
		if res.Reward < 1.0 {
			failures++
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s task %d: actions_match=%v outputs=%v\n",
				name, i, res.ActionsMatch, res.Outputs)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d tasks failed self-validation", failures, len(components.Tasks))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK %s: %d tasks\n", name, len(components.Tasks))
	return nil
}
