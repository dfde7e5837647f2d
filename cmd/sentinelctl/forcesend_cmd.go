package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/sentinel-metrics/sentinel/internal/retry"
	"github.com/sentinel-metrics/sentinel/internal/sendloop"
	"github.com/sentinel-metrics/sentinel/internal/wal"
)

// newForceSendCmd implements `force-send`: run one send-loop cycle against
// an agent's existing WAL directory immediately, rather than waiting for
// the running agent's own ticker (§4.4).
func newForceSendCmd(flags *globalFlags) *cobra.Command {
	var dir, agentID, keyID, secretB64 string

	cmd := &cobra.Command{
		Use:   "force-send",
		Short: "Immediately run one send-loop cycle against a WAL directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = os.Getenv("SENTINEL_WAL_DIR")
			}
			if dir == "" {
				return fmt.Errorf("--dir (or SENTINEL_WAL_DIR) is required")
			}
			if agentID == "" {
				agentID = os.Getenv("SENTINEL_AGENT_ID")
			}

			w, err := wal.Open(dir, wal.Options{AgentID: agentID})
			if err != nil {
				return err
			}
			defer w.Close()

			secret, err := base64.StdEncoding.DecodeString(secretB64)
			if err != nil {
				// Accept a raw (non-base64) secret too, as keystore.EnvKeyStore does.
				secret = []byte(secretB64)
			}
			keys := sendloop.NewStaticKeySource(keyID, secret)
			client := sendloop.NewHTTPClient(flags.serverAddr)
			loop := sendloop.New(w, client, keys, retry.DefaultPolicy(), log.NewNopLogger())

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := loop.RunCycle(ctx); err != nil {
				return fmt.Errorf("sentinelctl: send cycle: %w", err)
			}
			if err := w.SaveMeta(); err != nil {
				return err
			}
			fmt.Fprintln(cmdOut, "send cycle complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "WAL directory")
	cmd.Flags().StringVar(&agentID, "agent-id", "", "agent id")
	cmd.Flags().StringVar(&keyID, "key-id", "", "current signing key id")
	cmd.Flags().StringVar(&secretB64, "secret", "", "signing secret (base64, as issued by register; raw text also accepted)")
	return cmd
}
