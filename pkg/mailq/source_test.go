package mailq

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSource_Listing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mailq.txt")
	if err := os.WriteFile(path, []byte("Mail queue is empty\n"), 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource(path)
	got, err := source.Listing(context.Background())
	if err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	if got != "Mail queue is empty" {
		t.Errorf("Listing() = %q", got)
	}
}

func TestFileSource_Missing(t *testing.T) {
	source := NewFileSource("/nonexistent/mailq.txt")
	if _, err := source.Listing(context.Background()); err == nil {
		t.Error("Listing() expected error for missing file")
	}
}

func TestCommandSource_Success(t *testing.T) {
	var stderr bytes.Buffer
	source := NewCommandSource([]string{"sh", "-c", "echo 'Mail queue is empty'"}, &stderr)

	got, err := source.Listing(context.Background())
	if err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	if got != "Mail queue is empty" {
		t.Errorf("Listing() = %q", got)
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected warning: %q", stderr.String())
	}
}

func TestCommandSource_Exit69Tolerated(t *testing.T) {
	var stderr bytes.Buffer
	source := NewCommandSource([]string{"sh", "-c", "echo 'Mail queue is empty'; exit 69"}, &stderr)

	got, err := source.Listing(context.Background())
	if err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	if got != "Mail queue is empty" {
		t.Errorf("Listing() = %q", got)
	}
	if stderr.Len() != 0 {
		t.Errorf("exit 69 should not warn, got %q", stderr.String())
	}
}

func TestCommandSource_FailureWithOutput(t *testing.T) {
	var stderr bytes.Buffer
	source := NewCommandSource([]string{"sh", "-c", "echo partial; echo broken >&2; exit 1"}, &stderr)

	got, err := source.Listing(context.Background())
	if err != nil {
		t.Fatalf("Listing() should degrade to captured output, got error %v", err)
	}
	if got != "partial" {
		t.Errorf("Listing() = %q, want %q", got, "partial")
	}
	if !strings.Contains(stderr.String(), "broken") {
		t.Errorf("warning = %q, want command stderr included", stderr.String())
	}
}

func TestCommandSource_FailureWithoutOutput(t *testing.T) {
	var stderr bytes.Buffer
	source := NewCommandSource([]string{"sh", "-c", "exit 1"}, &stderr)

	if _, err := source.Listing(context.Background()); err == nil {
		t.Error("Listing() expected error when nothing was captured")
	}
}

func TestCommandSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := NewCommandSource([]string{"sh", "-c", "sleep 5"}, &bytes.Buffer{})
	if _, err := source.Listing(ctx); err == nil {
		t.Error("Listing() expected error for cancelled context")
	}
}
