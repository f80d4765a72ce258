package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var templateFlag string

	cmd := &cobra.Command{
		Use:   "parse <path>",
		Short: "Resolve a path back into its template and tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.ensureEngine()
			if err != nil {
				return err
			}

			var names []string
			if templateFlag != "" {
				names = []string{templateFlag}
			}
			match, err := engine.Parse(args[0], names...)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"template": match.Template.Name,
					"tokens":   match.Data,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Template: %s\n", match.Template.Name)
			rows := make([][]string, 0, len(match.Data))
			for _, key := range sortedKeys(match.Data) {
				rows = append(rows, []string{key, match.Data[key]})
			}
			fmt.Fprintln(out, renderTable(out, []string{"TOKEN", "VALUE"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateFlag, "template", "t", "", "Restrict parsing to one template")
	return cmd
}
