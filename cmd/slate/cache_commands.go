package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errMirrorDisabled = errors.New("no mirror store configured; set cache.store_path in the project config")

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the persistent tracker mirror",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show mirrored set counts per kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			summary, err := store.Summary(cmd.Context())
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, summary)
			}

			rows := make([][]string, 0, len(summary))
			for _, ks := range summary {
				rows = append(rows, []string{
					ks.Kind,
					fmt.Sprintf("%d", ks.Sets),
					fmt.Sprintf("%d", ks.Paths),
					ks.LastFetched.Format("2006-01-02 15:04:05"),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"KIND", "SETS", "PATHS", "LAST FETCHED"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight}))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var under string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop mirrored tracker results",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if under != "" {
				if err := store.DeleteUnder(cmd.Context(), under); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared mirrored sets under %s\n", under)
				return nil
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared the mirror store")
			return nil
		},
	}

	cmd.Flags().StringVar(&under, "under", "", "Only clear sets keyed at or below this path")
	return cmd
}
