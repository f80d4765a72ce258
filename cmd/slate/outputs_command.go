package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"slate/internal/pipeline"
)

func newOutputsCommand(ctx *commandContext) *cobra.Command {
	var typeFlag, task string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "outputs <entity-path>",
		Short: "List an entity's published and rendered outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := ctx.ensurePipeline()
			if err != nil {
				return err
			}
			e, err := pipe.EntityFromPath(args[0])
			if err != nil {
				return err
			}
			outputs, err := pipe.Outputs(cmd.Context(), e, refresh)
			if err != nil {
				return err
			}

			filtered := make([]*pipeline.Output, 0, len(outputs))
			for _, o := range outputs {
				if typeFlag != "" && o.Type != typeFlag {
					continue
				}
				if task != "" && o.Task != task {
					continue
				}
				filtered = append(filtered, o)
			}
			outputs = filtered

			if ctx.jsonOutput() {
				records := make([]map[string]any, 0, len(outputs))
				for _, o := range outputs {
					records = append(records, map[string]any{
						"type":     o.Type,
						"task":     o.Task,
						"name":     o.Name,
						"ver":      o.Ver,
						"sequence": o.Seq,
						"source":   o.Source,
						"path":     o.Path,
					})
				}
				return writeJSON(cmd, records)
			}

			rows := make([][]string, 0, len(outputs))
			for _, o := range outputs {
				rows = append(rows, []string{
					o.Type, o.Task, o.Name, strconv.Itoa(o.Ver),
					yesNo(o.Seq), o.Source, o.Path,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"TYPE", "TASK", "NAME", "VER", "SEQ", "SOURCE", "PATH"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "Filter by output type (publish, render, mov, cache)")
	cmd.Flags().StringVar(&task, "task", "", "Filter by task")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the cache and rescan")
	return cmd
}
