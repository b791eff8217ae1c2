package output

import (
	"context"
	"fmt"
	"io"

	"github.com/antoniovl/apq/pkg/mailq"
)

// CountFormatter emits only the number of records, skipping record
// serialization entirely.
type CountFormatter struct{}

// NewCountFormatter creates a new count formatter.
func NewCountFormatter() *CountFormatter {
	return &CountFormatter{}
}

// Name returns the format name.
func (f *CountFormatter) Name() string {
	return "count"
}

// Format writes the record count and a newline.
func (f *CountFormatter) Format(_ context.Context, recs mailq.Records, w io.Writer) error {
	_, err := fmt.Fprintln(w, len(recs))
	return err
}
