package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/antoniovl/apq/pkg/mailq"
)

// Postfix3Formatter emits records in the flattened schema of postqueue
// -j from Postfix 3.1: one compact JSON object per record per line.
type Postfix3Formatter struct {
	now time.Time
}

// NewPostfix3Formatter creates a postfix3 formatter. Arrival times are
// resolved against now.
func NewPostfix3Formatter(now time.Time) *Postfix3Formatter {
	return &Postfix3Formatter{now: now}
}

// Name returns the format name.
func (f *Postfix3Formatter) Name() string {
	return "postfix3"
}

type postfix3Recipient struct {
	DelayReason string `json:"delay_reason"`
	Address     string `json:"address"`
}

type postfix3Record struct {
	QueueName   mailq.Status        `json:"queue_name"`
	QueueID     string              `json:"queue_id"`
	ArrivalTime int64               `json:"arrival_time"`
	MessageSize string              `json:"message_size"`
	Sender      string              `json:"sender"`
	Recipients  []postfix3Recipient `json:"recipients"`
}

// Format writes one flattened JSON object per record. Each recipient
// group is cross-multiplied: its reason is repeated for every address.
func (f *Postfix3Formatter) Format(_ context.Context, recs mailq.Records, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for _, r := range recs {
		arrival, err := r.ArrivalTime(f.now)
		if err != nil {
			return fmt.Errorf("record %s: %w", r.QueueID, err)
		}

		out := postfix3Record{
			QueueName:   r.Status,
			QueueID:     r.QueueID,
			ArrivalTime: arrival.Unix(),
			MessageSize: r.Size,
			Sender:      r.Sender,
			Recipients:  []postfix3Recipient{},
		}
		for _, g := range r.Recipients {
			for _, addr := range g.Addresses {
				out.Recipients = append(out.Recipients, postfix3Recipient{
					DelayReason: g.Reason,
					Address:     addr,
				})
			}
		}

		if err := encoder.Encode(out); err != nil {
			return err
		}
	}
	return nil
}
