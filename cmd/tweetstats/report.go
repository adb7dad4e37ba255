package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"tweetstats/pkg/config"
	"tweetstats/pkg/stats"
	"tweetstats/pkg/storage"
	"tweetstats/pkg/ui"
)

var reportArchiveDir string

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect archived collection reports",
	Long: `Inspect reports archived by the JSON archive sink.

Enable the archive sink with --archive-dir on 'collect' or with
sinks.archive in the configuration file.`,
}

// reportListCmd represents the report list command
var reportListCmd = &cobra.Command{
	Use:   "list [username]",
	Short: "List archived reports, newest first",
	Long: `List archived collection reports, newest first.

With a username only that account's reports are shown; without one the
whole archive is listed.`,
	Example: `  # Every archived report
  tweetstats report list

  # Reports for one account
  tweetstats report list jack

  # A different archive directory
  tweetstats report list --archive-dir ./reports`,
	Args: cobra.MaximumNArgs(1),
	Run:  runReportList,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportListCmd)

	reportListCmd.Flags().StringVar(&reportArchiveDir, "archive-dir", "", "directory of archived JSON reports")
}

func runReportList(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if reportArchiveDir != "" {
		flags["archive-dir"] = reportArchiveDir
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	manager, err := storage.NewManager(cfg.Sinks.Archive.Directory)
	if err != nil {
		ui.PrintError("Failed to open archive", err.Error())
		os.Exit(1)
	}

	username := ""
	if len(args) == 1 {
		username = strings.TrimSpace(args[0])
	}

	snapshots, err := manager.ListSnapshots(username)
	if err != nil {
		ui.PrintError("Failed to list reports", err.Error())
		os.Exit(1)
	}

	if len(snapshots) == 0 {
		ui.PrintInfo("No archived reports in", manager.ArchiveDir())
		return
	}

	renderSnapshotList(os.Stdout, snapshots)
	fmt.Printf("\n%d report(s) in %s\n", len(snapshots), manager.ArchiveDir())
}

// renderSnapshotList prints one line per archived run
func renderSnapshotList(w io.Writer, snapshots []*stats.Snapshot) {
	fmt.Fprintf(w, "%-16s %-22s %-20s %10s %8s\n",
		"USERNAME", "RUN", "COLLECTED", "FOLLOWERS", "METRICS")

	for _, s := range snapshots {
		fmt.Fprintf(w, "%-16s %-22s %-20s %10d %8d\n",
			s.Username,
			s.RunID,
			s.CollectedAt.Format("2006-01-02 15:04:05"),
			s.Metrics[stats.MetricFollowers],
			len(s.Metrics))
	}
}
