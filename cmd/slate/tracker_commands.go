package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errTrackerDisabled = errors.New("tracker is not enabled; set tracker.enabled in the project config")

func newTrackerCommand(ctx *commandContext) *cobra.Command {
	trackerCmd := &cobra.Command{
		Use:   "tracker",
		Short: "Production tracker utilities",
	}

	trackerCmd.AddCommand(newTrackerSyncCommand(ctx))
	trackerCmd.AddCommand(newTrackerTasksCommand(ctx))

	return trackerCmd
}

func newTrackerTasksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks <entity-path>",
		Short: "List an entity's task assignments from the tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := ctx.ensurePipeline()
			if err != nil {
				return err
			}
			if ctx.client == nil {
				return errTrackerDisabled
			}
			e, err := pipe.EntityFromPath(args[0])
			if err != nil {
				return err
			}

			tasks, err := ctx.client.FindTasks(cmd.Context(), e.Path)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, tasks)
			}

			rows := make([][]string, 0, len(tasks))
			for _, task := range tasks {
				rows = append(rows, []string{task.Name, task.Assignee, task.Status})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"TASK", "ASSIGNEE", "STATUS"}, rows, nil))
			return nil
		},
	}
}

// newTrackerSyncCommand walks a job through the tracker so every result
// lands in the mirror store. Run it before going somewhere the tracker
// is unreachable.
func newTrackerSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <job-path>",
		Short: "Warm the mirror store from the tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := ctx.ensurePipeline()
			if err != nil {
				return err
			}
			if ctx.source == nil {
				return errTrackerDisabled
			}
			job, err := pipe.JobFromPath(args[0])
			if err != nil {
				return err
			}

			entityPaths, err := ctx.source.EntityPaths(cmd.Context(), job.Path)
			if err != nil {
				return err
			}
			published := 0
			for _, entityPath := range entityPaths {
				paths, err := ctx.source.PublishedFilePaths(cmd.Context(), entityPath)
				if err != nil {
					return fmt.Errorf("sync %s: %w", entityPath, err)
				}
				published += len(paths)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]int{
					"entities":        len(entityPaths),
					"published_files": published,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d entities and %d published files for %s\n",
				len(entityPaths), published, job.Name)
			return nil
		},
	}
}
