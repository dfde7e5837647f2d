package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinel-metrics/sentinel/internal/config"
)

// newConfigCmd implements `config {show|validate|path}`. File-based config
// parsing is a Non-goal, so these subcommands operate on the environment-
// derived config structs directly (§A "Configuration").
func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective agent/server/worker configuration resolved from the environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentCfg, err := config.LoadAgentConfig()
			if err != nil {
				return err
			}
			serverCfg, err := config.LoadServerConfig()
			if err != nil {
				return err
			}
			workerCfg, err := config.LoadWorkerConfig()
			if err != nil {
				return err
			}
			out := map[string]interface{}{"agent": agentCfg, "server": serverCfg, "worker": workerCfg}
			return printResult(flags, out, func() {
				fmt.Fprintf(cmdOut, "agent:  %+v\n", agentCfg)
				fmt.Fprintf(cmdOut, "server: %+v\n", serverCfg)
				fmt.Fprintf(cmdOut, "worker: %+v\n", workerCfg)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate that the environment can be loaded into a config struct",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadAgentConfig(); err != nil {
				return fmt.Errorf("agent config: %w", err)
			}
			if _, err := config.LoadServerConfig(); err != nil {
				return fmt.Errorf("server config: %w", err)
			}
			if _, err := config.LoadWorkerConfig(); err != nil {
				return fmt.Errorf("worker config: %w", err)
			}
			fmt.Fprintln(cmdOut, "ok")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the --config flag value (no file loader reads it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmdOut, flags.configPath)
			return nil
		},
	})

	return cmd
}
