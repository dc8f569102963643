// Package main provides the cv_tailor command line: one-shot CV analysis, the
// HTTP API server and knowledge topic maintenance.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "cv_tailor",
	Short: "CV Optimization Assistant",
	Long: `cv_tailor compares a CV against a job posting, rates the match and ATS readiness,
and proposes fact-preserving rewrites of the summary, skills and recent roles.

Configuration is read from defaults, an optional JSON or YAML file (--config),
CV_TAILOR_* environment variables and command-line flags, in increasing order of precedence.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print stage summaries and debug logs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
