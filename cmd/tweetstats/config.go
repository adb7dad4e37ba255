package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"tweetstats/pkg/config"
	"tweetstats/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tweetstats configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'tweetstats.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Sensitive values like the bearer token will be masked.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.`,
	Run:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "tweetstats.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# Tweetstats Configuration File
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with TWEETSTATS_
# For example: TWEETSTATS_BEARER_TOKEN, TWEETSTATS_USERNAME

# Twitter API credentials and targets
twitter:
  # App-only bearer token (recommended: store it with 'tweetstats auth login'
  # or the TWEETSTATS_BEARER_TOKEN env var instead of writing it here)
  bearer_token: ""

  # Default account to collect when none is given on the command line
  username: ""

  # Accounts for 'tweetstats collect --all'
  accounts: []

  # API base URL, override for testing
  base_url: "https://api.twitter.com"

# Client-side rate limiting
rate_limit:
  # Requests allowed per window; the API grants 900 for most app-only
  # endpoints per 15 minutes
  requests_per_window: 900
  window: 15m

# Retry configuration
retry:
  max_attempts: 3
  base_delay: 1s
  max_delay: 60s

# Collection depth
collect:
  # Timeline pages to walk (up to 200 tweets each)
  timeline_pages: 10
  page_size: 200

  # Follower ID pages to sample (up to 5000 IDs each)
  follower_pages: 5

  request_timeout: 30s

# Report sinks
sinks:
  stdout:
    enabled: true
    # "table" or "json"
    format: "table"

  archive:
    enabled: false
    directory: "./reports"

  # InfluxDB 1.x line protocol writer; also configurable via the
  # INFLUXDB_HOST / INFLUXDB_DATABASE / INFLUXDB_USER / INFLUXDB_PASSWORD
  # environment variables
  influx:
    enabled: false
    host: "localhost"
    database: "tweetstats"
    username: ""
    password: ""

  redis:
    enabled: false
    addr: "localhost:6379"
    password: ""
    db: 0
    history_size: 100

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional), stderr only when empty
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your bearer token with 'tweetstats auth login'")
	fmt.Println("2. Run 'tweetstats config validate' to check the configuration")
	fmt.Println("3. Start collecting with 'tweetstats collect <username>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Mask sensitive values for display
	displayCfg := *cfg
	if displayCfg.Twitter.BearerToken != "" {
		displayCfg.Twitter.BearerToken = maskToken(displayCfg.Twitter.BearerToken)
	}
	if displayCfg.Sinks.Influx.Password != "" {
		displayCfg.Sinks.Influx.Password = "***"
	}
	if displayCfg.Sinks.Redis.Password != "" {
		displayCfg.Sinks.Redis.Password = "***"
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (TWEETSTATS_*, INFLUXDB_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		possiblePaths := []string{
			"tweetstats.yaml",
			"tweetstats.yml",
			".tweetstats.yaml",
			".tweetstats.yml",
			filepath.Join(os.Getenv("HOME"), ".tweetstats.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "tweetstats", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	problems := []string{}

	if cfg.Twitter.BearerToken == "" {
		warnings = append(warnings, "bearer token not configured; stored credentials or TWEETSTATS_BEARER_TOKEN will be tried at run time")
	}
	if cfg.Twitter.Username == "" && len(cfg.Twitter.Accounts) == 0 {
		warnings = append(warnings, "no default account configured; a username must be passed on the command line")
	}

	if cfg.Sinks.Archive.Enabled {
		if err := os.MkdirAll(cfg.Sinks.Archive.Directory, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create archive directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Rate limit: %d requests per %s\n", cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)
	fmt.Printf("  Timeline pages: %d\n", cfg.Collect.TimelinePages)
	fmt.Printf("  Follower pages: %d\n", cfg.Collect.FollowerPages)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
