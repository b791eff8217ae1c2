// Package output renders a record collection in one of the supported
// serialization shapes.
package output

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/antoniovl/apq/pkg/mailq"
)

// Formatter renders a record collection in a specific format.
type Formatter interface {
	// Format writes the records to w.
	Format(ctx context.Context, recs mailq.Records, w io.Writer) error

	// Name returns the format name (json, yaml, count, postfix3).
	Name() string
}

// New returns the formatter for the given format name. The postfix3
// formatter resolves arrival times against now.
func New(format string, now time.Time) (Formatter, error) {
	switch format {
	case "json":
		return NewJSONFormatter(), nil
	case "yaml":
		return NewYAMLFormatter(), nil
	case "count":
		return NewCountFormatter(), nil
	case "postfix3":
		return NewPostfix3Formatter(now), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use json, yaml, count, or postfix3)", format)
	}
}
