package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "titan",
	Short: "Titan - asynchronous content generation queue",
	Long: `Titan is an asynchronous generation job queue with multi-provider
LLM routing for content generation workloads.

It provides:
  - Durable job queueing with priority ordering (PREMIUM, STANDARD, BATCH)
  - Multi-provider LLM routing (OpenAI, Anthropic, OpenAI-compatible)
  - Health-aware provider selection with pluggable strategies
  - Automatic retries with exponential backoff
  - Real-time job status notifications over WebSocket

For more information, visit: https://github.com/copyforge-hq/titan`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
