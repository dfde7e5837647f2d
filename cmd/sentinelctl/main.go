// Command sentinelctl is the operator-facing admin binary (§6 "CLI
// surface"): register/config/wal/force-send/agents/rules/notifiers/key/
// health/status/tail-logs/version, all thin wrappers over the internal
// packages and the server's REST admin surface.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
