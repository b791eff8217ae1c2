// Package mailq parses the textual queue listing produced by Postfix's
// postqueue -p (mailq) into structured records.
package mailq

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// Status classifies a queued message by the marker trailing its queue ID.
type Status string

const (
	// StatusActive marks messages currently being delivered (trailing *).
	StatusActive Status = "active"
	// StatusHeld marks messages placed on hold (trailing |).
	StatusHeld Status = "held"
	// StatusDeferred marks messages awaiting retry (no marker).
	StatusDeferred Status = "deferred"
)

// DateLayout is how resolved arrival times are rendered in output.
const DateLayout = "2006-01-02 15:04:05"

// RecipientGroup is a run of recipient addresses sharing one delay reason.
// Active messages may carry groups with an empty reason.
type RecipientGroup struct {
	Reason    string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Addresses []string `json:"addresses" yaml:"addresses"`
}

// Record is one entry in the mail queue.
type Record struct {
	// QueueID is the hex identifier, with any status marker stripped.
	QueueID string

	// Size is the message size as printed by mailq, kept verbatim.
	Size string

	// RawDate is the four-token arrival date exactly as printed
	// (weekday, month, day, time), with no year.
	RawDate string

	Sender     string
	Status     Status
	Recipients []RecipientGroup

	// Resolved is the absolute arrival time, set only after date
	// resolution.
	Resolved *time.Time

	// SourceIP and DeliveryStatus are filled by the optional mail log
	// enrichment path.
	SourceIP       string
	DeliveryStatus string
}

// recordView is the serialized shape of a Record. The queue ID is the
// enclosing map key and is not repeated here.
type recordView struct {
	Size           string           `json:"size" yaml:"size"`
	RawDate        string           `json:"rawdate" yaml:"rawdate"`
	Sender         string           `json:"sender" yaml:"sender"`
	Status         Status           `json:"status" yaml:"status"`
	SourceIP       string           `json:"source_ip,omitempty" yaml:"source_ip,omitempty"`
	DeliveryStatus string           `json:"delivery_status,omitempty" yaml:"delivery_status,omitempty"`
	Recipients     []RecipientGroup `json:"recipients" yaml:"recipients"`
	Date           string           `json:"date,omitempty" yaml:"date,omitempty"`
}

func (r *Record) view() recordView {
	v := recordView{
		Size:           r.Size,
		RawDate:        r.RawDate,
		Sender:         r.Sender,
		Status:         r.Status,
		SourceIP:       r.SourceIP,
		DeliveryStatus: r.DeliveryStatus,
		Recipients:     r.Recipients,
	}
	if v.Recipients == nil {
		v.Recipients = []RecipientGroup{}
	}
	if r.Resolved != nil {
		v.Date = r.Resolved.Local().Format(DateLayout)
	}
	return v
}

// MarshalJSON renders the record without its queue ID.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.view())
}

// MarshalYAML renders the record without its queue ID.
func (r *Record) MarshalYAML() (interface{}, error) {
	return r.view(), nil
}

// Records is an insertion-ordered collection of queue records.
// It serializes as a mapping keyed by queue ID, preserving order.
type Records []*Record

// Get returns the record with the given queue ID, or nil.
func (rs Records) Get(queueID string) *Record {
	for _, r := range rs {
		if r.QueueID == queueID {
			return r
		}
	}
	return nil
}

// ArrivalTime returns the record's absolute arrival time, using the
// already-resolved value when present and resolving RawDate against now
// otherwise.
func (r *Record) ArrivalTime(now time.Time) (time.Time, error) {
	if r.Resolved != nil {
		return *r.Resolved, nil
	}
	return ResolveQueueDate(r.RawDate, now)
}

// ResolveDates fills in Resolved for every record that lacks it, using
// now as the reference time for year disambiguation.
func (rs Records) ResolveDates(now time.Time) error {
	for _, r := range rs {
		if r.Resolved != nil {
			continue
		}
		t, err := ResolveQueueDate(r.RawDate, now)
		if err != nil {
			return err
		}
		r.Resolved = &t
	}
	return nil
}

// MarshalJSON emits an ordered JSON object keyed by queue ID.
func (rs Records) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, r := range rs {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(r.QueueID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// MarshalYAML emits an ordered YAML mapping keyed by queue ID.
func (rs Records) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range rs {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: r.QueueID}
		val := &yaml.Node{}
		if err := val.Encode(r.view()); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}
