package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"tweetstats/internal/fanout"
	"tweetstats/pkg/auth"
	"tweetstats/pkg/collector"
	"tweetstats/pkg/config"
	"tweetstats/pkg/logger"
	"tweetstats/pkg/sink"
	"tweetstats/pkg/ui"
)

var (
	// Collect command flags
	bearerToken   string
	accountLabel  string
	rateLimit     int
	maxRetries    int
	timelinePages int
	archiveDir    string
	outputFormat  string
	resumeRun     bool
	forceRestart  bool
	allAccounts   bool
	workers       int
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect <username>",
	Short: "Collect statistics for a Twitter account",
	Long: `Collect follower, timeline and engagement statistics for a Twitter account.

This command requires a valid API bearer token configured through one of:
  - Stored credentials (use 'tweetstats auth login' to store)
  - The TWEETSTATS_BEARER_TOKEN environment variable
  - Configuration file

Results are printed to the terminal and delivered to every other sink
enabled in the configuration. Interrupted runs leave a checkpoint behind
and can be resumed with --resume.`,
	Example: `  # Collect using default settings
  tweetstats collect jack

  # Archive the report as JSON and print it as JSON too
  tweetstats collect jack --archive-dir ./reports --format json

  # Use a specific stored credential
  tweetstats collect jack --account work

  # Resume an interrupted run
  tweetstats collect jack --resume

  # Start over, discarding the existing checkpoint
  tweetstats collect jack --force-restart

  # Collect every account listed in the config file
  tweetstats collect --all --workers 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runCollect(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&bearerToken, "bearer-token", "", "API bearer token (overrides stored credentials)")
	collectCmd.Flags().StringVarP(&accountLabel, "account", "a", "", "use specific stored credential")
	collectCmd.Flags().IntVar(&rateLimit, "rate-limit", 900, "requests per 15 minute window")
	collectCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "maximum number of retry attempts")
	collectCmd.Flags().IntVar(&timelinePages, "timeline-pages", 10, "maximum timeline pages to fetch")
	collectCmd.Flags().StringVar(&archiveDir, "archive-dir", "", "directory for archived JSON reports")
	collectCmd.Flags().StringVar(&outputFormat, "format", "", "terminal output format (table or json)")
	collectCmd.Flags().BoolVar(&resumeRun, "resume", false, "resume from last checkpoint")
	collectCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "force restart, ignoring existing checkpoint")
	collectCmd.Flags().BoolVar(&allAccounts, "all", false, "collect every account listed in the configuration")
	collectCmd.Flags().IntVar(&workers, "workers", 2, "concurrent account runs when using --all")
}

func runCollect(cmd *cobra.Command, args []string) {
	// Build flags map from command line
	flags := make(map[string]interface{})
	if bearerToken != "" {
		flags["bearer-token"] = bearerToken
	}
	if rateLimit != 900 {
		flags["rate-limit"] = rateLimit
	}
	if maxRetries != 3 {
		flags["max-retries"] = maxRetries
	}
	if timelinePages != 10 {
		flags["timeline-pages"] = timelinePages
	}
	if archiveDir != "" {
		flags["archive-dir"] = archiveDir
	}
	if outputFormat != "" {
		flags["format"] = outputFormat
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)
	logger.WithField("version", version).Info("tweetstats starting")

	resolveCredentials(cfg)

	if err := cfg.ValidateCredentials(); err != nil {
		ui.PrintError("Invalid credentials", err.Error())
		os.Exit(1)
	}

	targets := collectTargets(cfg, args)
	if len(targets) == 0 {
		ui.PrintError("No account to collect", "Pass a username, set twitter.username in the config, or use --all with twitter.accounts")
		os.Exit(1)
	}

	coll, err := collector.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize collector", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := collector.Options{Resume: resumeRun, ForceRestart: forceRestart}

	if len(targets) == 1 {
		ui.PrintInfo("Target account", targets[0])

		snapshot, err := coll.CollectWithOptions(ctx, targets[0], opts)
		if err != nil {
			logger.WithError(err).WithField("username", targets[0]).Error("collection failed")

			// Show what was collected before the failure; the checkpoint
			// stays behind so --resume can pick up from here
			if snapshot != nil && snapshot.Partial && cfg.Sinks.Stdout.Enabled {
				sink.NewStdoutSink(cfg.Sinks.Stdout.Format).Publish(ctx, snapshot)
			}

			ui.PrintError("Collection failed", err.Error())
			os.Exit(1)
		}

		logger.WithField("username", targets[0]).Info("collection completed")
		ui.PrintSuccess("Collection completed: " + targets[0])
		return
	}

	// Fan out over the configured accounts; the signal context reaches
	// every worker so Ctrl-C cancels in-flight runs
	pool := fanout.NewWorkerPool(ctx, workers, coll, logger.GetLogger())
	pool.Start()

	go func() {
		for _, username := range targets {
			if err := pool.Submit(fanout.CollectJob{Username: username, Options: opts}); err != nil {
				logger.WithError(err).WithField("username", username).Error("failed to submit account")
			}
		}
		pool.Stop()
	}()

	failed := 0
	for result := range pool.Results() {
		if result.Success {
			ui.PrintSuccess("Collection completed: " + result.Job.Username)
		} else {
			failed++
			ui.PrintError("Collection failed: "+result.Job.Username, result.Error.Error())
		}
	}

	if failed > 0 {
		ui.PrintError("Some accounts failed", "")
		os.Exit(1)
	}
}

// resolveCredentials fills in the bearer token from stored credentials when
// the configuration does not already carry one
func resolveCredentials(cfg *config.Config) {
	if accountLabel == "" && cfg.Twitter.BearerToken != "" {
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if err := applyStoredCredentials(cfg, manager, accountLabel); err != nil {
		if accountLabel != "" {
			ui.PrintError("Credential not found", accountLabel)
			ui.PrintInfo("Stored credentials", "Use 'tweetstats auth list' to see what is stored")
		} else {
			logger.Error("no credentials found")
			ui.PrintError("No API credentials found", "")
			ui.PrintInfo("To store a bearer token securely", "tweetstats auth login")
			ui.PrintInfo("Or set an environment variable", "export TWEETSTATS_BEARER_TOKEN=your_token")
		}
		os.Exit(1)
	}
}

// applyStoredCredentials copies the bearer token of the selected stored
// account into the configuration. An empty label picks the default account.
func applyStoredCredentials(cfg *config.Config, manager *auth.Manager, label string) error {
	var account *auth.Account
	var err error

	if label != "" {
		account, err = manager.Retrieve(label)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		return err
	}

	cfg.Twitter.BearerToken = account.BearerToken
	logger.WithField("credential", account.Label).Info("using stored credentials")
	ui.PrintInfo("Using credential", account.Label)
	return nil
}

// collectTargets resolves the list of accounts for this invocation
func collectTargets(cfg *config.Config, args []string) []string {
	if allAccounts {
		return cfg.Twitter.Accounts
	}
	if len(args) == 1 {
		return []string{strings.TrimSpace(args[0])}
	}
	if cfg.Twitter.Username != "" {
		return []string{cfg.Twitter.Username}
	}
	return nil
}
