package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/libgate/config"
	"github.com/s0up4200/libgate/opac"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	service *opac.Service

	// Command flags
	studentID string
	verbose   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "libgate",
	Short: "A session-keeping gateway in front of a library OPAC",
	Long: `libgate logs students into a university library OPAC, keeps their
sessions alive and exposes catalog search, loans, renewals and a
per-student watch list over a JSON API and this CLI.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&studentID, "student", "s", "", "student id (default $LIBGATE_STUDENT)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// initializeApp loads the configuration and builds the OPAC service
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}
	logger = setupLogger(cfg.Logging)

	service, err = opac.New(cfg.OPAC.BaseURL, logger, cfg.OPAC.Options()...)
	if err != nil {
		return fmt.Errorf("failed to create OPAC client: %w", err)
	}

	logger.Debug().
		Str("opac", cfg.OPAC.BaseURL).
		Dur("timeout", cfg.OPAC.Timeout).
		Msg("OPAC client ready")

	return nil
}

// skipInit is used by commands that work without a configuration
func skipInit(*cobra.Command, []string) error {
	logger = setupLogger(config.LoggingConfig{Level: "info", Format: "console", Color: true})
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
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

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format, colored only on a terminal
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
