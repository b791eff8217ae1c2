package mailq

import (
	"fmt"
	"strings"
)

// emptySentinel is what postqueue prints when nothing is queued.
const emptySentinel = "mail queue is empty"

// bannerPrefix starts the column header line of a listing.
const bannerPrefix = "-Queue ID-"

// parseState tracks what the parser expects next.
type parseState int

const (
	// stateHeader: nothing parsed yet; banner or first record expected.
	stateHeader parseState = iota
	// stateMessage: between records; next record or footer expected.
	stateMessage
	// stateRecipients: collecting addresses for the open group.
	stateRecipients
	// stateReason: a delay reason must follow (held/deferred record).
	stateReason
	// stateDone: footer seen; no further input is valid.
	stateDone
)

func (s parseState) String() string {
	switch s {
	case stateHeader:
		return "header"
	case stateMessage:
		return "message boundary"
	case stateRecipients:
		return "recipient list"
	case stateReason:
		return "delay reason"
	case stateDone:
		return "end of listing"
	}
	return "unknown"
}

// ParseError is a fatal mismatch between an input line and the parser
// state. Line holds the offending input, State the parser's expectation
// at the time.
type ParseError struct {
	Line   string
	State  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (state %s): %q", e.Reason, e.State, e.Line)
}

// parser carries the implicit per-record scope of a mailq listing.
type parser struct {
	state   parseState
	records Records
	cur     *Record

	// pending recipient group for the current record
	reason    string
	addresses []string
}

// Parse converts the full text of a queue listing into an ordered record
// collection. Truncated listings (no footer) are accepted; input with no
// records and no empty-queue sentinel is not.
func Parse(text string) (Records, error) {
	p := &parser{state: stateHeader, records: Records{}}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		// A wrapped parenthetical spans physical lines; rejoin it
		// before classification.
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "(") && !strings.HasSuffix(trimmed, ")") {
			for i+1 < len(lines) {
				i++
				next := strings.TrimSpace(lines[i])
				trimmed += " " + next
				if strings.HasSuffix(next, ")") {
					break
				}
			}
			line = trimmed
		}

		done, err := p.feed(line)
		if err != nil {
			return nil, err
		}
		if done {
			return p.records, nil
		}
	}

	return p.finish()
}

// feed handles one input line. It returns true when the empty-queue
// sentinel ends parsing early with success.
func (p *parser) feed(line string) (bool, error) {
	trimmed := strings.TrimSpace(line)

	switch {
	case p.state == stateDone:
		return false, p.errorf(line, "input after end of listing")

	case trimmed == "" || strings.HasPrefix(line, bannerPrefix):
		if p.state == stateRecipients {
			p.closeGroup()
			p.state = stateMessage
		}
		return false, nil

	case strings.EqualFold(trimmed, emptySentinel):
		if p.state != stateHeader {
			return false, p.errorf(line, "unexpected empty-queue sentinel")
		}
		p.state = stateDone
		return true, nil

	case strings.HasPrefix(line, "--"):
		if p.state != stateReason && p.state != stateMessage {
			return false, p.errorf(line, "unexpected footer")
		}
		p.state = stateDone
		return false, nil

	case isHexDigit(line[0]):
		return false, p.startRecord(line)

	case strings.HasPrefix(trimmed, "("):
		return false, p.openReason(line, trimmed)

	case strings.Contains(line, "@"):
		if p.state != stateRecipients {
			return false, p.errorf(line, "unexpected recipient address")
		}
		p.addresses = append(p.addresses, trimmed)
		return false, nil

	default:
		return false, p.errorf(line, "unrecognized input line")
	}
}

// startRecord parses a record header line and opens its scope.
func (p *parser) startRecord(line string) error {
	if p.state == stateRecipients {
		p.closeGroup()
	}

	fields := strings.Fields(line)
	if len(fields) < 6 {
		return p.errorf(line, "short record header")
	}

	id := fields[0]
	status := StatusDeferred
	switch id[len(id)-1] {
	case '*':
		status = StatusActive
		id = id[:len(id)-1]
	case '|':
		status = StatusHeld
		id = id[:len(id)-1]
	}

	p.cur = &Record{
		QueueID:    id,
		Size:       fields[1],
		RawDate:    strings.Join(fields[2:6], " "),
		Sender:     fields[len(fields)-1],
		Status:     status,
		Recipients: []RecipientGroup{},
	}
	p.records = append(p.records, p.cur)

	p.reason = ""
	p.addresses = nil
	if status == StatusActive {
		p.state = stateRecipients
	} else {
		p.state = stateReason
	}
	return nil
}

// openReason starts a new recipient group under the given delay reason.
func (p *parser) openReason(line, trimmed string) error {
	if p.state != stateReason && p.state != stateRecipients {
		return p.errorf(line, "unexpected delay reason")
	}
	if p.state == stateRecipients {
		p.closeGroup()
	}
	p.reason = strings.TrimSuffix(strings.TrimPrefix(trimmed, "("), ")")
	p.addresses = nil
	p.state = stateRecipients
	return nil
}

// closeGroup appends the pending reason and addresses, if any, to the
// current record.
func (p *parser) closeGroup() {
	if len(p.addresses) == 0 {
		return
	}
	p.cur.Recipients = append(p.cur.Recipients, RecipientGroup{
		Reason:    p.reason,
		Addresses: p.addresses,
	})
	p.addresses = nil
}

// finish handles end of input. Postfix tolerates truncated listings, so
// any state past the header is a success with the open group flushed.
func (p *parser) finish() (Records, error) {
	if p.state == stateHeader {
		return nil, p.errorf("", "no listing content")
	}
	if p.state == stateRecipients {
		p.closeGroup()
	}
	return p.records, nil
}

func (p *parser) errorf(line, reason string) error {
	return &ParseError{Line: line, State: p.state.String(), Reason: reason}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')
}
