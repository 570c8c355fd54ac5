package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gbgrab/cache"
	"gbgrab/config"
	"gbgrab/giantbomb"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	store   *cache.Cache
	client  *giantbomb.Client

	version   = "dev"
	buildTime = "unknown"

	// Command flags
	showID     int
	scheme     string
	filterExpr string
	dryRun     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gbgrab",
	Short: "Download and organize Giant Bomb show archives",
	Long: `gbgrab builds a season catalog for a Giant Bomb video show and
downloads episode ranges from it. Seasons are derived from release
years or from the game each episode covers, and ranges are addressed
by episode name, number, or season/episode pairs.`,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
}

// SetVersion stores build information for the version command.
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", v, bt)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()

	// The post-run hook does not fire when a command fails; flush
	// again so an interrupted run still persists cache state. A clean
	// cache makes this a no-op.
	if store != nil {
		if ferr := store.Flush(); ferr != nil {
			logger.Warn().Err(ferr).Msg("Failed to flush response cache")
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(testCmd)
}

// initializeApp initializes the configuration, cache, and API client
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	if cfg.Cache.Enabled {
		store = cache.New(cfg.Cache.Path, logger,
			cache.WithTTL(cfg.CacheTTL()),
			cache.WithFlushDelay(cfg.FlushDelay()),
		)
	}

	client, err = giantbomb.NewClient(cfg.API.BaseURL, cfg.API.Key, store, logger,
		giantbomb.WithRateLimit(cfg.RateLimit()))
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	return nil
}

// shutdownApp flushes pending cache state before the process exits
func shutdownApp(cmd *cobra.Command, args []string) error {
	if store == nil {
		return nil
	}

	if err := store.Flush(); err != nil {
		logger.Warn().Err(err).Msg("Failed to flush response cache")
	}
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; color only when stderr is a terminal
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the API connection",
	Long:  `Test the connection to the Giant Bomb API and report cache status.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Printf("Testing connection to %s...\n", cfg.API.BaseURL)

	if err := client.TestConnection(cmd.Context()); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	fmt.Println("✓ Connection successful!")

	if store != nil {
		fmt.Printf("\nResponse cache: %s\n", cfg.Cache.Path)
		fmt.Printf("- Cached responses: %d\n", store.Len())
		fmt.Printf("- TTL: %s\n", cfg.CacheTTL())
	} else {
		fmt.Println("\nResponse cache: Disabled")
	}

	return nil
}
