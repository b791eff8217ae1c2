package output

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/antoniovl/apq/pkg/mailq"
)

func testRecords() mailq.Records {
	return mailq.Records{
		{
			QueueID: "29E9C1202B5", Size: "5024", RawDate: "Tue Feb 10 10:35:41",
			Sender: "bounce@example.com", Status: mailq.StatusDeferred,
			Recipients: []mailq.RecipientGroup{
				{Reason: "connection timed out", Addresses: []string{"a@example.org", "b@example.org"}},
			},
		},
		{
			QueueID: "3A1BB120417", Size: "1862", RawDate: "Tue Feb 10 11:02:10",
			Sender: "alice@example.com", Status: mailq.StatusActive,
			Recipients: []mailq.RecipientGroup{},
		},
	}
}

func TestNew(t *testing.T) {
	now := time.Now()
	for _, name := range []string{"json", "yaml", "count", "postfix3"} {
		f, err := New(name, now)
		if err != nil {
			t.Fatalf("New(%q) error = %v", name, err)
		}
		if f.Name() != name {
			t.Errorf("Name() = %q, want %q", f.Name(), name)
		}
	}

	if _, err := New("xml", now); err == nil {
		t.Error("New(xml) expected error")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter().Format(context.Background(), testRecords(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("Got %d entries, want 2", len(parsed))
	}
	if parsed["29E9C1202B5"]["sender"] != "bounce@example.com" {
		t.Errorf("sender = %v", parsed["29E9C1202B5"]["sender"])
	}
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter().Format(context.Background(), mailq.Records{}, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "{}" {
		t.Errorf("Format() = %q, want {}", got)
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := NewYAMLFormatter().Format(context.Background(), testRecords(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed map[string]struct {
		Sender string `yaml:"sender"`
		Status string `yaml:"status"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if parsed["3A1BB120417"].Status != "active" {
		t.Errorf("status = %q", parsed["3A1BB120417"].Status)
	}
}

func TestCountFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCountFormatter().Format(context.Background(), testRecords(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got := buf.String(); got != "2\n" {
		t.Errorf("Format() = %q, want %q", got, "2\n")
	}
}

func TestCountFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCountFormatter().Format(context.Background(), mailq.Records{}, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got := buf.String(); got != "0\n" {
		t.Errorf("Format() = %q, want %q", got, "0\n")
	}
}

func TestPostfix3Formatter_Format(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)
	var buf bytes.Buffer
	if err := NewPostfix3Formatter(now).Format(context.Background(), testRecords(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// One JSON object per line.
	scanner := bufio.NewScanner(&buf)
	var lines []postfix3Record
	for scanner.Scan() {
		var rec postfix3Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		lines = append(lines, rec)
	}
	if len(lines) != 2 {
		t.Fatalf("Got %d lines, want 2", len(lines))
	}

	first := lines[0]
	if first.QueueName != mailq.StatusDeferred {
		t.Errorf("queue_name = %q", first.QueueName)
	}
	if first.QueueID != "29E9C1202B5" {
		t.Errorf("queue_id = %q", first.QueueID)
	}
	if first.MessageSize != "5024" {
		t.Errorf("message_size = %q", first.MessageSize)
	}

	// Two addresses under one reason flatten to two entries sharing it.
	if len(first.Recipients) != 2 {
		t.Fatalf("Got %d recipients, want 2", len(first.Recipients))
	}
	for _, r := range first.Recipients {
		if r.DelayReason != "connection timed out" {
			t.Errorf("delay_reason = %q", r.DelayReason)
		}
	}

	want := time.Date(2024, 2, 10, 10, 35, 41, 0, time.Local).Unix()
	if first.ArrivalTime != want {
		t.Errorf("arrival_time = %d, want %d", first.ArrivalTime, want)
	}

	if len(lines[1].Recipients) != 0 {
		t.Errorf("active record recipients = %v, want none", lines[1].Recipients)
	}
}

func TestPostfix3Formatter_MalformedDate(t *testing.T) {
	recs := mailq.Records{{QueueID: "X", RawDate: "bogus"}}
	var buf bytes.Buffer
	if err := NewPostfix3Formatter(time.Now()).Format(context.Background(), recs, &buf); err == nil {
		t.Error("Format() expected error for malformed date")
	}
}
