package output

import (
	"context"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/antoniovl/apq/pkg/mailq"
)

// YAMLFormatter renders the full record mapping as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Name returns the format name.
func (f *YAMLFormatter) Name() string {
	return "yaml"
}

// Format renders the records as an ordered YAML mapping keyed by queue ID.
func (f *YAMLFormatter) Format(_ context.Context, recs mailq.Records, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	return encoder.Encode(recs)
}
