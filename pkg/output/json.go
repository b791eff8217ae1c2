package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/antoniovl/apq/pkg/mailq"
)

// JSONFormatter renders the full record mapping as indented JSON. This
// is the default output shape.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format renders the records as an ordered JSON object keyed by queue ID.
func (f *JSONFormatter) Format(_ context.Context, recs mailq.Records, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(recs)
}
