package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"housingreview/internal/rules"
	"housingreview/internal/rules/housing"
)

var rulesJSON bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the built-in eligibility rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRules(os.Stdout, housing.NewRegistry(), rulesJSON)
	},
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false, "print rules as JSON")
	rootCmd.AddCommand(rulesCmd)
}

type ruleRow struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Contexts []string `json:"contexts"`
}

func printRules(out io.Writer, registry *rules.Registry, asJSON bool) error {
	var rows []ruleRow
	for _, r := range registry.All() {
		row := ruleRow{ID: r.ID(), Name: r.Name(), Category: string(r.Category()), Contexts: []string{}}
		for _, t := range r.Contexts() {
			row.Contexts = append(row.Contexts, string(t))
		}
		rows = append(rows, row)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tNAME\tCONTEXTS")
	for _, r := range rows {
		contexts := strings.Join(r.Contexts, ",")
		if contexts == "" {
			contexts = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Category, r.Name, contexts)
	}
	return tw.Flush()
}
