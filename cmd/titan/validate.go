package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/copyforge-hq/titan/pkg/cli"
	"github.com/copyforge-hq/titan/pkg/config"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a Titan configuration file without starting the server.

The validate command loads the configuration, applies defaults and
environment variable overrides, and reports every validation error it
finds rather than stopping at the first one. It checks:
  - Server listen address and timeouts
  - Queue worker count, retry budget, TTL, and cron schedules
  - Provider types, base URLs, and API key references
  - Routing strategy and weights

Examples:
  # Validate the default config
  titan validate

  # Validate a specific file
  titan validate --config /etc/titan/config.yaml

  # Machine-readable output
  titan validate --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

type validationReport struct {
	Valid  bool     `json:"valid"`
	Config string   `json:"config"`
	Errors []string `json:"errors,omitempty"`
}

func validateConfig(cmd *cobra.Command, args []string) error {
	report := validationReport{Valid: true, Config: cfgFile}

	_, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		report.Valid = false

		var validationErr config.ValidationError
		if errors.As(err, &validationErr) {
			for _, fieldErr := range validationErr.Errors {
				report.Errors = append(report.Errors, fieldErr.Error())
			}
		} else {
			report.Errors = append(report.Errors, err.Error())
		}
	}

	if validateFlags.format == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		if err := formatter.FormatTo(os.Stdout, report); err != nil {
			return cli.NewCommandError("validate", err)
		}
	} else {
		if report.Valid {
			fmt.Println("✓ Configuration valid")
		} else {
			fmt.Printf("Configuration invalid (%d error(s)):\n", len(report.Errors))
			for _, msg := range report.Errors {
				fmt.Printf("  - %s\n", msg)
			}
		}
	}

	if !report.Valid {
		return cli.NewConfigError("", "configuration validation failed")
	}
	return nil
}
