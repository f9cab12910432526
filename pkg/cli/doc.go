/*
Package cli provides shared helpers for the titan command.

Output Formatting:

Commands that report structured results (validate --format json) render
them through a Formatter:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Signal Handling:

The run command derives its root context here; cancelling it shuts every
subsystem down:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors:

ConfigError and CommandError carry enough context for the top-level error
report without forcing commands to format their own prefixes.
*/
package cli
