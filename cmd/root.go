// Package cmd implements the eml-vectorizer command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/felo/eml-vectorizer/internal/config"
	"github.com/felo/eml-vectorizer/internal/db"
)

// rootOptions are the flags shared by every command
type rootOptions struct {
	configPath string
	logLevel   string
	dbPath     string
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "eml-vectorizer",
		Short:         "Turn email corpora into sparse word-count feature vectors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file (defaults and EMLVEC_* env vars otherwise)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite database path")

	rootCmd.AddCommand(
		newFitCmd(opts),
		newFitsCmd(opts),
		newStructuresCmd(opts),
		newVectorizeCmd(opts),
		newPredictCmd(opts),
		newServeCmd(opts),
	)

	return rootCmd
}

// Execute runs the command line and exits non-zero on error
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// load reads the configuration, applies root flags, validates it and
// installs the default logger.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// openDB opens the configured database
func openDB(cfg *config.Config, logger *slog.Logger) (*db.DB, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", cfg.DBPath)
	return database, nil
}

// setupLogger builds a text logger writing to w. Logs go to stderr so that
// command output on stdout stays machine readable.
func setupLogger(w io.Writer, level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelInfo)

	switch level {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "info":
		lvl.Set(slog.LevelInfo)
	case "warn":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
