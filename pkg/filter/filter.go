// Package filter narrows a parsed queue to records matching operator
// criteria. Filters are pure predicates: they select whole records and
// never mutate or reorder them.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/antoniovl/apq/pkg/mailq"
)

// Options captures the filtering configuration. Regex patterns are
// matched case-insensitively anywhere in the field. Age values use the
// age[s|m|h|d] literal form.
type Options struct {
	Reason    string
	Sender    string
	Recipient string
	MinAge    string
	MaxAge    string

	ExcludeActive bool
	OnlyActive    bool
}

// Filter holds the compiled filter chain.
type Filter struct {
	reason    *regexp.Regexp
	sender    *regexp.Regexp
	recipient *regexp.Regexp

	minAge    time.Duration
	maxAge    time.Duration
	hasMinAge bool
	hasMaxAge bool

	excludeActive bool
	onlyActive    bool
}

// New compiles the options into a Filter. All problems reported here
// are configuration errors, surfaced before any parsing work.
func New(opts Options) (*Filter, error) {
	if opts.ExcludeActive && opts.OnlyActive {
		return nil, errors.New("exclude-active and only-active are mutually exclusive")
	}

	f := &Filter{
		excludeActive: opts.ExcludeActive,
		onlyActive:    opts.OnlyActive,
	}

	var err error
	if f.reason, err = compilePattern(opts.Reason); err != nil {
		return nil, fmt.Errorf("reason: %w", err)
	}
	if f.sender, err = compilePattern(opts.Sender); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if f.recipient, err = compilePattern(opts.Recipient); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	if opts.MinAge != "" {
		if f.minAge, err = ParseAge(opts.MinAge); err != nil {
			return nil, fmt.Errorf("minage: %w", err)
		}
		f.hasMinAge = true
	}
	if opts.MaxAge != "" {
		if f.maxAge, err = ParseAge(opts.MaxAge); err != nil {
			return nil, fmt.Errorf("maxage: %w", err)
		}
		f.hasMaxAge = true
	}

	return f, nil
}

// NeedsDates reports whether applying the filter requires resolved
// arrival times on the records.
func (f *Filter) NeedsDates() bool {
	return f.hasMinAge || f.hasMaxAge
}

// Apply runs the filter chain in its fixed order: reason, sender,
// recipient, minage, maxage, active selection. Age comparisons use now
// as the reference time.
func (f *Filter) Apply(recs mailq.Records, now time.Time) mailq.Records {
	if f.reason != nil {
		recs = selectRecords(recs, f.matchReason)
	}
	if f.sender != nil {
		recs = selectRecords(recs, func(r *mailq.Record) bool {
			return f.sender.MatchString(r.Sender)
		})
	}
	if f.recipient != nil {
		recs = selectRecords(recs, f.matchRecipient)
	}
	if f.hasMinAge {
		recs = selectRecords(recs, func(r *mailq.Record) bool {
			return r.Resolved != nil && now.Sub(*r.Resolved) >= f.minAge
		})
	}
	if f.hasMaxAge {
		recs = selectRecords(recs, func(r *mailq.Record) bool {
			return r.Resolved != nil && now.Sub(*r.Resolved) <= f.maxAge
		})
	}
	if f.excludeActive {
		recs = selectRecords(recs, func(r *mailq.Record) bool {
			return r.Status != mailq.StatusActive
		})
	} else if f.onlyActive {
		recs = selectRecords(recs, func(r *mailq.Record) bool {
			return r.Status == mailq.StatusActive
		})
	}
	return recs
}

// matchReason keeps non-active records with at least one group whose
// reason matches.
func (f *Filter) matchReason(r *mailq.Record) bool {
	if r.Status == mailq.StatusActive {
		return false
	}
	for _, g := range r.Recipients {
		if g.Reason != "" && f.reason.MatchString(g.Reason) {
			return true
		}
	}
	return false
}

func (f *Filter) matchRecipient(r *mailq.Record) bool {
	for _, g := range r.Recipients {
		for _, addr := range g.Addresses {
			if f.recipient.MatchString(addr) {
				return true
			}
		}
	}
	return false
}

func selectRecords(recs mailq.Records, keep func(*mailq.Record) bool) mailq.Records {
	out := make(mailq.Records, 0, len(recs))
	for _, r := range recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// ParseAge parses an age literal: an integer with an optional unit
// suffix s, m, h, or d. Bare digits mean seconds.
func ParseAge(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("empty age")
	}

	unit := time.Second
	digits := s
	switch s[len(s)-1] {
	case 's':
		digits = s[:len(s)-1]
	case 'm':
		unit = time.Minute
		digits = s[:len(s)-1]
	case 'h':
		unit = time.Hour
		digits = s[:len(s)-1]
	case 'd':
		unit = 24 * time.Hour
		digits = s[:len(s)-1]
	default:
		if !strings.ContainsAny(s[len(s)-1:], "0123456789") {
			return 0, fmt.Errorf("invalid age %q (examples: 1800s, 30m)", s)
		}
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid age %q (examples: 1800s, 30m)", s)
	}
	return time.Duration(n) * unit, nil
}
