// Package maillog scans a syslog-format mail log for metadata about
// queued messages. The scan is best-effort: malformed lines are
// reported as warnings and skipped, never failing the run.
package maillog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/antoniovl/apq/pkg/mailq"
)

// DefaultPath is where Postfix's syslog output usually lands.
const DefaultPath = "/var/log/mail.log"

// progressInterval is how many lines pass between progress notes.
const progressInterval = 100000

// Entry is the metadata collected for one queue ID.
type Entry struct {
	// SourceIP is the client address that submitted the message.
	SourceIP string

	// Sender is the envelope sender recorded by the queue manager.
	Sender string

	// DeliveryStatus is the most recent smtp delivery status seen.
	DeliveryStatus string

	// Seen is when the message first appeared in the log.
	Seen time.Time
}

// Scan reads the mail log at path and returns entries keyed by queue
// ID. Warnings and progress notes go to warn.
func Scan(ctx context.Context, path string, warn io.Writer) (map[string]Entry, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-configured log path is expected
	if err != nil {
		return nil, fmt.Errorf("opening mail log: %w", err)
	}
	defer f.Close()

	return scanReader(ctx, f, warn)
}

func scanReader(ctx context.Context, r io.Reader, warn io.Writer) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	now := time.Now()
	lines := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		lines++
		if lines%progressInterval == 0 {
			fmt.Fprintf(warn, "Processed %d lines (%d messages)...\n", lines, len(entries))
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := scanLine(line, entries, now); err != nil {
			fmt.Fprintf(warn, "Warning: could not parse log line: %q\n", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading mail log: %w", err)
	}

	fmt.Fprintf(warn, "Processed %d lines (%d messages)...\n", lines, len(entries))
	return entries, nil
}

// scanLine extracts metadata from one syslog line. Fields:
//
//	Mon DD HH:MM:SS host postfix/prog[pid]: QUEUEID: key=value ...
//
// Lines from other programs are silently ignored; lines that look like
// Postfix output but cannot be parsed return an error.
func scanLine(line string, entries map[string]Entry, now time.Time) error {
	fields := strings.Fields(line)
	if len(fields) < 7 {
		return nil
	}

	prog := fields[4]
	queueID := strings.TrimSuffix(fields[5], ":")

	switch {
	case strings.HasPrefix(prog, "postfix/smtpd") && strings.HasPrefix(fields[6], "client="):
		if _, ok := entries[queueID]; ok {
			return nil
		}
		seen, err := mailq.ResolveSyslogDate(strings.Join(fields[0:3], " "), now)
		if err != nil {
			return err
		}
		entries[queueID] = Entry{
			SourceIP: clientAddress(fields[6]),
			Seen:     seen,
		}

	case strings.HasPrefix(prog, "postfix/qmgr") && strings.HasPrefix(fields[6], "from="):
		e, ok := entries[queueID]
		if !ok {
			return nil
		}
		sender, err := envelopeSender(fields[6])
		if err != nil {
			return err
		}
		e.Sender = sender
		entries[queueID] = e

	case strings.HasPrefix(prog, "postfix/smtp["):
		status := ""
		for _, f := range fields[6:] {
			if strings.HasPrefix(f, "status=") {
				status = strings.TrimSuffix(strings.TrimPrefix(f, "status="), ",")
				break
			}
		}
		if status == "" {
			return nil
		}
		if e, ok := entries[queueID]; ok {
			e.DeliveryStatus = status
			entries[queueID] = e
		}
	}

	return nil
}

// clientAddress pulls the IP out of "client=hostname[1.2.3.4]".
func clientAddress(field string) string {
	if i := strings.LastIndex(field, "["); i >= 0 {
		return strings.TrimSuffix(field[i+1:], "]")
	}
	return strings.TrimPrefix(field, "client=")
}

// envelopeSender pulls the address out of "from=<user@example.com>,".
func envelopeSender(field string) (string, error) {
	start := strings.Index(field, "<")
	if start < 0 {
		return "", fmt.Errorf("no sender in %q", field)
	}
	rest := field[start+1:]
	end := strings.LastIndex(rest, ">")
	if end < 0 {
		return "", fmt.Errorf("no sender in %q", field)
	}
	return rest[:end], nil
}

// Enrich copies scanned metadata onto the queue records it correlates
// with. Records without a log entry are left untouched.
func Enrich(recs mailq.Records, entries map[string]Entry) {
	for _, r := range recs {
		e, ok := entries[r.QueueID]
		if !ok {
			continue
		}
		r.SourceIP = e.SourceIP
		r.DeliveryStatus = e.DeliveryStatus
	}
}
