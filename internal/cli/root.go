// Package cli provides the command-line interface for apq.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "apq",
		Short: "Parse the Postfix mail queue and return a filtered list",
		Long: `apq parses the output of postqueue -p into structured records,
applies operator-selected filters, and prints the result as JSON (default),
YAML, a bare count, or the flattened schema of postqueue -j (Postfix 3.1).

Filters select whole records by delay reason, sender, recipient, age, and
active status; they never change record order.

Exit codes:
  0 - Success
  1 - Parse error, configuration error, or interrupted run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueue(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.JSON, "json", "j", false, "JSON output (default)")
	flags.BoolVarP(&opts.YAML, "yaml", "y", false, "YAML output")
	flags.BoolVarP(&opts.Count, "count", "c", false, "Return only the count of matching items")
	flags.BoolVar(&opts.Postfix3, "postfix3", false, "Output compatible with 'postqueue -j' (Postfix 3.1)")
	flags.BoolVar(&opts.Log, "log", false, "Experimental: scan the mail log for message metadata as well")
	flags.StringVar(&opts.MailqData, "mailq-data", "", "Use this file's contents instead of calling mailq")
	flags.StringVarP(&opts.Reason, "reason", "m", "", "Select messages with a delay reason matching this regex")
	flags.StringVarP(&opts.Recipient, "recipient", "r", "", "Select messages with a recipient matching this regex")
	flags.StringVarP(&opts.Sender, "sender", "s", "", "Select messages with a sender matching this regex")
	flags.BoolVar(&opts.ParseDate, "parse-date", false, "Resolve dates into absolute times (implied by minage/maxage)")
	flags.StringVarP(&opts.MaxAge, "maxage", "n", "", "Select messages younger than the given age. Format: age[dhms], eg: 3600, 1h")
	flags.StringVarP(&opts.MinAge, "minage", "o", "", "Select messages older than the given age. Format: age[dhms], eg: 3600, 1h")
	flags.BoolVarP(&opts.ExcludeActive, "exclude-active", "x", false, "Exclude items in the queue that are active")
	flags.BoolVar(&opts.OnlyActive, "only-active", false, "Only include items in the queue that are active")
	flags.StringVar(&opts.Config, "config", "", "Path to a YAML config file")

	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
