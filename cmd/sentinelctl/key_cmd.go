package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinel-metrics/sentinel/internal/registry"
)

func newKeyCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Rotate, list, or delete an agent's signing keys",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rotate [agent-id]",
		Short: "Rotate an agent's current signing key (§4.6)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags)
			var out struct {
				KeyID  string `json:"key_id"`
				Secret []byte `json:"secret"`
			}
			if err := client.do("POST", "/v1/agents/"+args[0]+"/keys/rotate", nil, &out); err != nil {
				return err
			}
			return printResult(flags, out, func() {
				fmt.Fprintf(cmdOut, "new key_id=%s\n", out.KeyID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list [agent-id]",
		Short: "List an agent's current and deprecated keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags)
			var out registry.AgentRecord
			if err := client.do("GET", "/v1/agents/"+args[0], nil, &out); err != nil {
				return err
			}
			return printResult(flags, out, func() {
				fmt.Fprintf(cmdOut, "current: %s\n", out.CurrentKey.KeyID)
				for _, dk := range out.DeprecatedKeys {
					fmt.Fprintf(cmdOut, "deprecated: %s (deprecated_at_ms=%d)\n", dk.KeyID, dk.DeprecatedAtMs)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [agent-id] [key-id]",
		Short: "Delete one of an agent's deprecated keys",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags)
			path := fmt.Sprintf("/v1/agents/%s/keys/%s", args[0], args[1])
			if err := client.do("DELETE", path, nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmdOut, "deleted")
			return nil
		},
	})

	return cmd
}
