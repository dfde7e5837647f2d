package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sentinel-metrics/sentinel/internal/wal"
)

// walMeta mirrors wal.Meta's on-disk schema (§3 "WAL Meta"); read directly
// here rather than importing the package's unexported loader, since
// `wal meta` is an operator inspection tool, not a WAL client.
type walMeta struct {
	HeadSeq     uint64   `json:"head_seq"`
	TailSeq     uint64   `json:"tail_seq"`
	LastSegment uint64   `json:"last_segment"`
	AckedIDs    []uint64 `json:"acked_ids"`
}

func readWALMeta(dir string) (*walMeta, error) {
	data, err := os.ReadFile(filepath.Join(dir, "wal.meta.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var m walMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("sentinelctl: parse wal.meta.json: %w", err)
	}
	return &m, nil
}

func newWALCmd(flags *globalFlags) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "wal",
		Short: "Inspect and maintain an agent's write-ahead log directory",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", os.Getenv("SENTINEL_WAL_DIR"), "WAL directory")

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print unacked record count and total on-disk size",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("--dir (or SENTINEL_WAL_DIR) is required")
			}
			w, err := wal.Open(dir, wal.Options{})
			if err != nil {
				return err
			}
			defer w.Close()

			records, err := w.IterUnacked()
			if err != nil {
				return err
			}
			bytes, err := w.DiskBytes()
			if err != nil {
				return err
			}

			out := map[string]interface{}{"unacked_count": len(records), "disk_bytes": bytes}
			return printResult(flags, out, func() {
				fmt.Fprintf(cmdOut, "unacked=%d disk_bytes=%d\n", len(records), bytes)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "List every unacked record's id and payload size",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("--dir (or SENTINEL_WAL_DIR) is required")
			}
			w, err := wal.Open(dir, wal.Options{})
			if err != nil {
				return err
			}
			defer w.Close()

			records, err := w.IterUnacked()
			if err != nil {
				return err
			}

			type recordSummary struct {
				ID          uint64 `json:"id"`
				PayloadSize int    `json:"payload_size"`
			}
			summaries := make([]recordSummary, 0, len(records))
			for _, r := range records {
				summaries = append(summaries, recordSummary{ID: r.ID, PayloadSize: len(r.Payload)})
			}

			return printResult(flags, summaries, func() {
				for _, s := range summaries {
					fmt.Fprintf(cmdOut, "id=%d payload_size=%d\n", s.ID, s.PayloadSize)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "compact",
		Short: "Rewrite the WAL to contain only unacked records (§4.1 compact)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("--dir (or SENTINEL_WAL_DIR) is required")
			}
			w, err := wal.Open(dir, wal.Options{})
			if err != nil {
				return err
			}
			defer w.Close()

			meta, err := w.Compact()
			if err != nil {
				return err
			}
			return printResult(flags, meta, func() {
				fmt.Fprintf(cmdOut, "compacted: head_seq=%d tail_seq=%d last_segment=%d\n",
					meta.HeadSeq, meta.TailSeq, meta.LastSegment)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "meta",
		Short: "Print the WAL's persisted meta side-file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("--dir (or SENTINEL_WAL_DIR) is required")
			}
			meta, err := readWALMeta(dir)
			if err != nil {
				return err
			}
			if meta == nil {
				fmt.Fprintln(cmdOut, "no meta file present")
				return nil
			}
			return printResult(flags, meta, func() {
				fmt.Fprintf(cmdOut, "head_seq=%d tail_seq=%d last_segment=%d acked=%d\n",
					meta.HeadSeq, meta.TailSeq, meta.LastSegment, len(meta.AckedIDs))
			})
		},
	})

	return cmd
}
