package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type registerResponse struct {
	AgentID string `json:"agent_id"`
	Secret  string `json:"secret"`
	IsNew   bool   `json:"is_new"`
}

func newRegisterCmd(flags *globalFlags) *cobra.Command {
	var hwID, agentVersion string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register this host with the server, or fetch an existing agent's credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hwID == "" {
				return fmt.Errorf("--hw-id is required")
			}
			client := newAPIClient(flags)
			var out registerResponse
			if err := client.do("POST", "/v1/agents/register", map[string]string{
				"hw_id":         hwID,
				"agent_version": agentVersion,
			}, &out); err != nil {
				return err
			}
			return printResult(flags, out, func() {
				fmt.Fprintf(cmdOut, "agent_id=%s is_new=%t\nsecret=%s\n", out.AgentID, out.IsNew, out.Secret)
				fmt.Fprintln(cmdOut, "export SENTINEL_AGENT_ID=" + out.AgentID)
				fmt.Fprintln(cmdOut, "export SENTINEL_AGENT_SECRET=" + out.Secret)
			})
		},
	}

	cmd.Flags().StringVar(&hwID, "hw-id", "", "hardware identifier for this host")
	cmd.Flags().StringVar(&agentVersion, "agent-version", "dev", "agent build version to report")
	return cmd
}
