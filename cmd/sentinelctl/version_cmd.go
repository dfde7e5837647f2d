package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags "-X main.version=...";
// defaults to "dev" for local builds.
var version = "dev"

func newVersionCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print sentinelctl's version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(flags, map[string]string{"version": version}, func() {
				fmt.Fprintln(cmdOut, version)
			})
		},
	}
}
