package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slate/internal/pipeline"
)

// workDirFromFlags resolves the entity and task-scoped work dir shared by
// the works and next-version commands.
func workDirFromFlags(ctx *commandContext, entityPath, task, dcc, user string) (*pipeline.Pipeline, *pipeline.WorkDir, error) {
	pipe, err := ctx.ensurePipeline()
	if err != nil {
		return nil, nil, err
	}
	e, err := pipe.EntityFromPath(entityPath)
	if err != nil {
		return nil, nil, err
	}
	wd, err := pipe.WorkDir(e, task, dcc, user)
	if err != nil {
		return nil, nil, err
	}
	return pipe, wd, nil
}

func newWorksCommand(ctx *commandContext) *cobra.Command {
	var task, dcc, user, tag string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "works <entity-path>",
		Short: "List the versioned work files for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, wd, err := workDirFromFlags(ctx, args[0], task, dcc, user)
			if err != nil {
				return err
			}
			works, err := pipe.Works(cmd.Context(), wd, refresh)
			if err != nil {
				return err
			}
			if tag != "" {
				filtered := make([]*pipeline.Work, 0, len(works))
				for _, w := range works {
					if w.Tag == tag {
						filtered = append(filtered, w)
					}
				}
				works = filtered
			}

			if ctx.jsonOutput() {
				records := make([]map[string]any, 0, len(works))
				for _, w := range works {
					records = append(records, map[string]any{
						"ver":  w.Ver,
						"tag":  w.Tag,
						"user": w.User,
						"path": w.Path,
					})
				}
				return writeJSON(cmd, records)
			}

			rows := make([][]string, 0, len(works))
			for _, w := range works {
				rows = append(rows, []string{w.VerPadded(), w.Tag, w.User, w.Path})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"VER", "TAG", "USER", "PATH"}, rows,
				[]columnAlignment{alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVar(&task, "task", "", "Task name (required)")
	cmd.Flags().StringVar(&dcc, "dcc", "", "DCC name (required)")
	cmd.Flags().StringVar(&user, "user", "", "Limit the work dir to one user")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by tag")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the cache and rescan")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("dcc")
	return cmd
}

func newNextVersionCommand(ctx *commandContext) *cobra.Command {
	var task, dcc, user, tag string

	cmd := &cobra.Command{
		Use:   "next-version <entity-path>",
		Short: "Resolve the next free version number for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, wd, err := workDirFromFlags(ctx, args[0], task, dcc, user)
			if err != nil {
				return err
			}
			ver, err := pipe.FindNextVersion(cmd.Context(), wd, tag, false)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]int{"next_version": ver})
			}
			fmt.Fprintln(cmd.OutOrStdout(), ver)
			return nil
		},
	}

	cmd.Flags().StringVar(&task, "task", "", "Task name (required)")
	cmd.Flags().StringVar(&dcc, "dcc", "", "DCC name (required)")
	cmd.Flags().StringVar(&user, "user", "", "Resolve within one user's work dir")
	cmd.Flags().StringVar(&tag, "tag", "", "Version stream tag (default stream when empty)")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("dcc")
	return cmd
}
