package mailq

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// DefaultCommand lists the deferred and active queues.
var DefaultCommand = []string{"/usr/sbin/postqueue", "-p"}

// Source supplies the raw text of one queue listing.
type Source interface {
	// Listing returns the complete listing text, trimmed of
	// surrounding whitespace.
	Listing(ctx context.Context) (string, error)
}

// CommandSource obtains the listing by running the queue-status command.
type CommandSource struct {
	command []string
	stderr  io.Writer
}

// NewCommandSource creates a CommandSource. Warnings about unexpected
// command exit statuses go to stderr; nil means os.Stderr.
func NewCommandSource(command []string, stderr io.Writer) *CommandSource {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &CommandSource{command: command, stderr: stderr}
}

// Listing runs the command and returns its stdout. Exit status 69
// (EX_UNAVAILABLE, the mail system is down) still produces a usable
// listing and is tolerated. Any other failure is reported as a warning
// and parsing proceeds on whatever output was captured; it becomes an
// error only when nothing was captured at all.
func (s *CommandSource) Listing(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, s.command[0], s.command[1:]...) // #nosec G204 -- operator-configured command is expected
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		exitErr, ok := err.(*exec.ExitError)
		if !ok || exitErr.ExitCode() != 69 {
			fmt.Fprintf(s.stderr, "Warning: %s failed: %q\n",
				s.command[0], strings.TrimSpace(stderr.String()))
			if stdout.Len() == 0 {
				return "", fmt.Errorf("running %s: %w", s.command[0], err)
			}
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// FileSource reads a pre-captured listing from a file.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Listing returns the file contents, trimmed of surrounding whitespace.
func (s *FileSource) Listing(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path) // #nosec G304 -- user-provided data path is expected
	if err != nil {
		return "", fmt.Errorf("reading listing file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
