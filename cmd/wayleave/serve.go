package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alucardeht/wayleave/internal/daemon"
	"github.com/alucardeht/wayleave/internal/logger"
	"github.com/alucardeht/wayleave/internal/mcp"
)

var daemonWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the letter tools as JSON-RPC over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		registry, err := a.toolRegistry()
		if err != nil {
			return err
		}

		logger.Info("serving tools on stdio", "tools", len(registry.Names()))
		return mcp.NewServer(registry).ProcessStream(os.Stdin, os.Stdout)
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Serve the letter tools as JSON-RPC over a unix socket",
	Long: `Serve the letter tools on the configured unix socket until interrupted.
Only one daemon runs per data directory. With --watch the daemon also watches
the inbox and writes letters as agreements arrive.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}

		lifecycle := daemon.NewLifecycleManager(cfg.DataDir, cfg.SocketPath)
		if lifecycle.Running() {
			fmt.Fprintln(cmd.ErrOrStderr(), "daemon already running")
			return nil
		}
		if err := lifecycle.Acquire(); err != nil {
			return err
		}
		defer lifecycle.Cleanup()

		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		registry, err := a.toolRegistry()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if daemonWatch {
			stopWatching, err := startWatching(ctx, a, cfg.Batch.Inbox)
			if err != nil {
				return err
			}
			defer stopWatching()
		}

		return daemon.NewDaemon(cfg.SocketPath, registry).Run(ctx)
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonWatch, "watch", false, "Also watch the configured inbox")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(daemonCmd)
}
