package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"slate/internal/watcher"
)

// newWatchCommand keeps a long-lived process's cache honest: it watches
// a tree and prints every eviction pass until interrupted. Mostly a
// debugging aid for template and cache-key problems.
func newWatchCommand(ctx *commandContext) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a tree and report cache evictions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensurePipeline(); err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()

			root := cfg.JobRoot
			if len(args) == 1 {
				root = args[0]
			}

			out := cmd.OutOrStdout()
			w, err := watcher.New(ctx.cache, ctx.logger,
				watcher.WithDebounce(debounce),
				watcher.WithFlushFunc(func(keys []string) {
					for _, key := range keys {
						fmt.Fprintf(out, "evicted %s\n", key)
					}
				}))
			if err != nil {
				return err
			}
			defer w.Close()

			if err := w.WatchTree(root); err != nil {
				return err
			}
			fmt.Fprintf(out, "Watching %s (ctrl-c to stop)\n", root)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			w.Run(runCtx)
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before evicting changed paths")
	return cmd
}
