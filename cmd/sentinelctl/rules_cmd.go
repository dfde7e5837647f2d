package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentinel-metrics/sentinel/internal/rules"
)

func newRulesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "CRUD operations against the server's alert rule store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every alert rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags)
			var out []rules.Rule
			if err := client.do("GET", "/v1/rules", nil, &out); err != nil {
				return err
			}
			return printResult(flags, out, func() {
				for _, r := range out {
					fmt.Fprintf(cmdOut, "%s\t%s\t%s %s %v\tenabled=%t\n", r.ID, r.Name, r.MetricName, r.Condition, r.Threshold, r.Enabled)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [rule-id]",
		Short: "Show one rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags)
			var out rules.Rule
			if err := client.do("GET", "/v1/rules/"+args[0], nil, &out); err != nil {
				return err
			}
			return printResult(flags, out, func() {
				fmt.Fprintf(cmdOut, "%+v\n", out)
			})
		},
	})

	var ruleFile string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a rule from a JSON file (or stdin with --file -)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in rules.Rule
			if err := readRuleJSON(ruleFile, &in); err != nil {
				return err
			}
			client := newAPIClient(flags)
			var out rules.Rule
			if err := client.do("POST", "/v1/rules", in, &out); err != nil {
				return err
			}
			return printResult(flags, out, func() {
				fmt.Fprintf(cmdOut, "created %s\n", out.ID)
			})
		},
	}
	create.Flags().StringVar(&ruleFile, "file", "-", "path to a JSON rule document, - for stdin")
	cmd.AddCommand(create)

	update := &cobra.Command{
		Use:   "update [rule-id]",
		Short: "Replace a rule's fields from a JSON file (or stdin with --file -)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in rules.Rule
			if err := readRuleJSON(ruleFile, &in); err != nil {
				return err
			}
			client := newAPIClient(flags)
			var out rules.Rule
			if err := client.do("PUT", "/v1/rules/"+args[0], in, &out); err != nil {
				return err
			}
			return printResult(flags, out, func() {
				fmt.Fprintf(cmdOut, "updated %s\n", out.ID)
			})
		},
	}
	update.Flags().StringVar(&ruleFile, "file", "-", "path to a JSON rule document, - for stdin")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [rule-id]",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(flags)
			if err := client.do("DELETE", "/v1/rules/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmdOut, "deleted %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func readRuleJSON(path string, out *rules.Rule) error {
	var r = os.Stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("sentinelctl: open rule file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(out)
}
