package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/antoniovl/apq/pkg/config"
	"github.com/antoniovl/apq/pkg/filter"
	"github.com/antoniovl/apq/pkg/maillog"
	"github.com/antoniovl/apq/pkg/mailq"
	"github.com/antoniovl/apq/pkg/output"
)

// Options holds the root command's flag values.
type Options struct {
	JSON     bool
	YAML     bool
	Count    bool
	Postfix3 bool

	Log       bool
	MailqData string

	Reason    string
	Recipient string
	Sender    string
	ParseDate bool
	MaxAge    string
	MinAge    string

	ExcludeActive bool
	OnlyActive    bool

	Config string
}

// runQueue is the scan pipeline: acquire listing, parse, optionally
// enrich and resolve dates, filter, format.
func runQueue(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}

	// Configuration problems must surface before any parsing work.
	f, err := filter.New(filter.Options{
		Reason:        opts.Reason,
		Sender:        opts.Sender,
		Recipient:     opts.Recipient,
		MinAge:        opts.MinAge,
		MaxAge:        opts.MaxAge,
		ExcludeActive: opts.ExcludeActive,
		OnlyActive:    opts.OnlyActive,
	})
	if err != nil {
		return err
	}

	now := time.Now()
	formatter, err := output.New(selectFormat(opts, cfg), now)
	if err != nil {
		return err
	}

	var source mailq.Source
	if opts.MailqData != "" {
		source = mailq.NewFileSource(opts.MailqData)
	} else {
		source = mailq.NewCommandSource(cfg.MailqCommand, cmd.ErrOrStderr())
	}

	text, err := source.Listing(ctx)
	if err != nil {
		return err
	}

	recs, err := mailq.Parse(text)
	if err != nil {
		return err
	}

	if opts.Log {
		entries, err := maillog.Scan(ctx, cfg.MailLogPath, cmd.ErrOrStderr())
		if err != nil {
			// Enrichment is best-effort and never fails the run.
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: mail log scan failed: %v\n", err)
		} else {
			maillog.Enrich(recs, entries)
		}
	}

	if opts.ParseDate || f.NeedsDates() {
		if err := recs.ResolveDates(now); err != nil {
			return err
		}
	}

	recs = f.Apply(recs, now)

	return formatter.Format(ctx, recs, cmd.OutOrStdout())
}

// selectFormat picks the output shape: explicit flags beat the
// configured default, count beats everything.
func selectFormat(opts *Options, cfg *config.Config) string {
	switch {
	case opts.Count:
		return "count"
	case opts.YAML:
		return "yaml"
	case opts.Postfix3:
		return "postfix3"
	case opts.JSON:
		return "json"
	}
	return cfg.Output
}
