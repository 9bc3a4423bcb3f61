package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshuapare/heapkit/internal/logutil"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string
	logLevel   string

	// Set by the root pre-run hook.
	cfg    = defaultConfig()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Replay and inspect allocation traces",
	Long: `heapctl drives the heapkit segregated-fit allocator with allocation
traces. It replays traces with payload and heap verification, checks heap
consistency after every operation, generates random traces, and reports
allocator statistics.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if verbose && !cmd.Flags().Changed("log-level") {
			c.Log.Level = "debug"
		}
		if cmd.Flags().Changed("log-level") {
			c.Log.Level = logLevel
		}
		l, err := logutil.New(c.Log)
		if err != nil {
			return err
		}
		cfg, logger = c, l.Named("heapctl")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Helper functions for output

// out is where command output goes; tests swap it.
var out io.Writer = os.Stdout

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(out, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(out, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
