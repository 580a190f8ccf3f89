package tdee

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/saadjs/tdee-cli/internal/config"
	"github.com/saadjs/tdee-cli/internal/logger"
)

var (
	dbPath    string
	logLevel  string
	logFormat string
)

var (
	cfg *config.Config
	log = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "tdee",
	Short: "tdee tracks weight and intake to estimate daily energy expenditure",
	Long:  "tdee is a local-first nutrition log. Record one weight and intake entry per day, group days into periods, and follow an energy expenditure estimate as the log changes.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			loaded.LogFormat = logFormat
		}
		l, err := logger.New("tdee", loaded.LogLevel, loaded.LogFormat, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		cfg, log = loaded, l
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (env TDEE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level: debug|info|warn|error (env TDEE_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Diagnostic log format: json|console (env TDEE_LOG_FORMAT)")
}
