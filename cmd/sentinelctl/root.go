package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// globalFlags holds the persistent flags every subcommand reads (§6 "A
// global --json flag switches to machine-readable output; --server and
// --config override discovery").
type globalFlags struct {
	jsonOutput bool
	serverAddr string
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "sentinelctl",
		Short:         "Operate a Sentinel agent, server, or worker deployment",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "emit machine-readable JSON output")
	root.PersistentFlags().StringVar(&flags.serverAddr, "server", "http://localhost:8080", "Sentinel server REST address")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a config file (unused: file-based config is not implemented)")

	root.AddCommand(
		newRegisterCmd(flags),
		newConfigCmd(flags),
		newWALCmd(flags),
		newForceSendCmd(flags),
		newAgentsCmd(flags),
		newRulesCmd(flags),
		newNotifiersCmd(flags),
		newKeyCmd(flags),
		newHealthCmd(flags),
		newStatusCmd(flags),
		newTailLogsCmd(flags),
		newVersionCmd(flags),
	)

	return root
}

// apiClient is the thin REST client every admin subcommand uses to reach
// sentinel-server's admission/admin routes.
type apiClient struct {
	baseURL string
	http    *http.Client
	token   string
}

func newAPIClient(flags *globalFlags) *apiClient {
	return &apiClient{baseURL: flags.serverAddr, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *apiClient) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sentinelctl: marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("sentinelctl: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sentinelctl: request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sentinelctl: %s %s returned %d: %s", method, path, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// printResult renders v as JSON when --json was passed, otherwise falls
// back to a plain line via the caller-supplied human formatter.
func printResult(flags *globalFlags, v interface{}, human func()) error {
	if flags.jsonOutput {
		enc := json.NewEncoder(cmdOut)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human()
	return nil
}

// cmdOut is a package-level indirection over stdout so tests can capture
// output by reassigning it.
var cmdOut io.Writer = os.Stdout
