package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func waitForMore() {
	time.Sleep(500 * time.Millisecond)
}

// newTailLogsCmd implements `tail-logs`: follow a logfmt log file a binary
// is writing to, the simplest useful thing to do without a log-shipping
// Non-goal creeping in. Sentinel binaries log to stderr by default; this
// command is for the case an operator has redirected that to a file.
func newTailLogsCmd(flags *globalFlags) *cobra.Command {
	var path string
	var follow bool

	cmd := &cobra.Command{
		Use:   "tail-logs",
		Short: "Print (optionally follow) a Sentinel binary's log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("sentinelctl: open log file: %w", err)
			}
			defer f.Close()

			reader := bufio.NewReader(f)
			for {
				line, err := reader.ReadString('\n')
				if len(line) > 0 {
					fmt.Fprint(cmdOut, line)
				}
				if err != nil {
					if err != io.EOF {
						return err
					}
					if !follow {
						return nil
					}
					waitForMore()
				}
			}
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "path to the log file")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep reading as the file grows")
	return cmd
}
