package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alucardeht/wayleave/internal/registry"
)

var (
	scanJSON    bool
	statusLimit int
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Write letters for every new or changed agreement in a folder",
	Long: `Scan the folder (default: the configured inbox) for agreements matching the
include patterns, write a letter to the outbox for each new or changed one, and
record every outcome in the registry.`,
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

		report, err := a.processor.Scan(cmd.Context(), root)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if scanJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, o := range report.Outcomes {
			detail := o.LetterPath
			if o.Status != registry.StatusGenerated {
				detail = o.Reason
				if len(o.Problems) > 0 {
					detail = fmt.Sprintf("%s: %s", o.Problems[0].Field, o.Problems[0].Reason)
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", o.Status, o.Path, detail)
		}
		w.Flush()

		fmt.Fprintf(out, "\n%d generated, %d failed, %d skipped in %s\n",
			report.Generated, report.Failed, report.Skipped, report.Duration.Round(time.Millisecond))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry counts and recent failures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.store.Stats()
		if err != nil {
			return err
		}
		failures, err := a.store.ListByStatus(registry.StatusFailed, statusLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Documents: %d (%d generated, %d failed, %d skipped)\n",
			stats.TotalDocuments, stats.Generated, stats.Failed, stats.Skipped)
		fmt.Fprintf(out, "Runs:      %d\n", stats.Runs)
		if stats.LastRun != nil {
			fmt.Fprintf(out, "Last run:  %s  %s\n", stats.LastRun.StartedAt.Local().Format("2006-01-02 15:04"), stats.LastRun.Root)
		}
		if len(failures) > 0 {
			fmt.Fprintln(out, "\nRecent failures:")
			for _, doc := range failures {
				fmt.Fprintf(out, "  %s\n    %s\n", doc.Path, doc.ErrorMessage)
			}
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the scan report as JSON")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Recent failures to list")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
}
