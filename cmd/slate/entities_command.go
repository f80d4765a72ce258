package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slate/internal/pipeline"
)

func newEntitiesCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "entities <job-path>",
		Short: "List a job's assets and shots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := ctx.ensurePipeline()
			if err != nil {
				return err
			}
			job, err := pipe.JobFromPath(args[0])
			if err != nil {
				return err
			}

			kinds := []pipeline.EntityKind{pipeline.KindAsset, pipeline.KindShot}
			switch kindFlag {
			case "":
			case "asset":
				kinds = kinds[:1]
			case "shot":
				kinds = kinds[1:]
			default:
				return fmt.Errorf("unknown kind %q (want asset or shot)", kindFlag)
			}

			var entities []*pipeline.Entity
			for _, kind := range kinds {
				found, err := pipe.Entities(cmd.Context(), job, kind, refresh)
				if err != nil {
					return err
				}
				entities = append(entities, found...)
			}

			if ctx.jsonOutput() {
				records := make([]map[string]string, 0, len(entities))
				for _, e := range entities {
					records = append(records, map[string]string{
						"kind": string(e.Kind),
						"name": e.Name(),
						"path": e.Path,
					})
				}
				return writeJSON(cmd, records)
			}

			rows := make([][]string, 0, len(entities))
			for _, e := range entities {
				rows = append(rows, []string{string(e.Kind), e.Name(), e.Path})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"KIND", "NAME", "PATH"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Limit to one kind (asset or shot)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the cache and rescan")
	return cmd
}
