package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alucardeht/wayleave/internal/batch"
	"github.com/alucardeht/wayleave/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Write letters as agreements arrive in a folder",
	Long: `Watch the folder (default: the configured inbox) and write a letter for each
agreement that is added or changed. Removed agreements are dropped from the
registry. A full rescan runs on the configured schedule to catch missed events.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		root := cfg.Batch.Inbox
		if len(args) == 1 {
			root = args[0]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stopWatching, err := startWatching(ctx, a, root)
		if err != nil {
			return err
		}
		defer stopWatching()

		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s, letters go to %s\n", root, cfg.Batch.Outbox)
		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// startWatching feeds root into a worker pool until the returned stop
// function is called.
func startWatching(ctx context.Context, a *app, root string) (func(), error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", root, err)
	}

	worker := batch.NewWorker(a.processor, a.workerConfig())
	worker.Start()

	w, err := watcher.New(watcher.FromConfig(cfg.Watch), a.processor, worker)
	if err != nil {
		worker.Stop()
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		worker.Stop()
		return nil, err
	}
	if err := w.AddRoot(root); err != nil {
		w.Stop()
		worker.Stop()
		return nil, err
	}

	return func() {
		w.Stop()
		worker.Stop()
	}, nil
}
