package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type agentRecordView struct {
	AgentID        string `json:"agent_id"`
	HwID           string `json:"hw_id"`
	AgentVersion   string `json:"agent_version"`
	RegisteredAtMs int64  `json:"registered_at_ms"`
}

func newAgentsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List or inspect registered agents",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every registered agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags)
			var out []agentRecordView
			if err := client.do("GET", "/v1/agents", nil, &out); err != nil {
				return err
			}
			return printResult(flags, out, func() {
				for _, a := range out {
					fmt.Fprintf(cmdOut, "%s\thw_id=%s\tversion=%s\n", a.AgentID, a.HwID, a.AgentVersion)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [agent-id]",
		Short: "Show one agent's registration record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags)
			var out agentRecordView
			if err := client.do("GET", "/v1/agents/"+args[0], nil, &out); err != nil {
				return err
			}
			return printResult(flags, out, func() {
				fmt.Fprintf(cmdOut, "agent_id=%s hw_id=%s version=%s registered_at_ms=%d\n",
					out.AgentID, out.HwID, out.AgentVersion, out.RegisteredAtMs)
			})
		},
	})

	return cmd
}
