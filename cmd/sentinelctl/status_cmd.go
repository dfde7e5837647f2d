package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newStatusCmd implements `status`: a richer view than `health`, combining
// reachability with the agent count the server currently tracks.
func newStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize server reachability and registered agent count",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags)
			var agents []agentRecordView
			err := client.do("GET", "/v1/agents", nil, &agents)

			out := map[string]interface{}{
				"server":      flags.serverAddr,
				"reachable":   err == nil,
				"agent_count": len(agents),
			}
			if err != nil {
				out["error"] = err.Error()
			}

			return printResult(flags, out, func() {
				if err != nil {
					fmt.Fprintf(cmdOut, "server %s unreachable: %v\n", flags.serverAddr, err)
					return
				}
				fmt.Fprintf(cmdOut, "server %s reachable, %d agents registered\n", flags.serverAddr, len(agents))
			})
		},
	}
}
