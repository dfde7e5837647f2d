package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check a server/agent/worker's /health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get(flags.serverAddr + "/health")
			if err != nil {
				return fmt.Errorf("sentinelctl: health check: %w", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			healthy := resp.StatusCode == http.StatusOK
			out := map[string]interface{}{"healthy": healthy, "status_code": resp.StatusCode, "body": string(body)}
			if err := printResult(flags, out, func() {
				if healthy {
					fmt.Fprintln(cmdOut, "ok")
				} else {
					fmt.Fprintf(cmdOut, "unhealthy: %d %s\n", resp.StatusCode, body)
				}
			}); err != nil {
				return err
			}
			if !healthy {
				return fmt.Errorf("sentinelctl: unhealthy")
			}
			return nil
		},
	}
}
