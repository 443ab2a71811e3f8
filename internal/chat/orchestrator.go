// Package chat composes user input, the extraction client and the
// conversation timeline into chat turns.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"remi/internal/note"
	"remi/internal/timeline"
)

// DefaultSender is the assistant's display name.
const DefaultSender = "AI"

// Processor turns freeform text into a structured note.
type Processor interface {
	Process(ctx context.Context, text string, now time.Time) (note.Note, error)
}

// Pending is the deferred extraction for one submitted turn. Run it off
// the owning goroutine and hand the result to Deliver.
type Pending func(ctx context.Context) timeline.Message

// Orchestrator owns the conversation flow. It must be driven from a
// single goroutine; extraction runs elsewhere but its result re-enters
// through Deliver.
type Orchestrator struct {
	tl     *timeline.Timeline
	client Processor
	sender string
	now    func() time.Time
	newID  func() uuid.UUID
}

// New builds an orchestrator over the given timeline and client.
func New(tl *timeline.Timeline, client Processor) *Orchestrator {
	return &Orchestrator{
		tl:     tl,
		client: client,
		sender: DefaultSender,
		now:    time.Now,
		newID:  uuid.New,
	}
}

// Timeline returns the conversation this orchestrator appends to.
func (o *Orchestrator) Timeline() *timeline.Timeline { return o.tl }

// Submit appends the user's turn immediately and returns the pending
// extraction. Whitespace-only input is a no-op: nothing is appended, no
// call is made, and nil is returned. The user message always lands
// before its assistant response because the response only enters via
// Deliver.
func (o *Orchestrator) Submit(text string) Pending {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	o.tl.Append(timeline.Message{
		ID:        o.newID(),
		Timestamp: o.now(),
		IsUser:    true,
		Body:      timeline.Text(text),
	})

	return func(ctx context.Context) timeline.Message {
		n, err := o.client.Process(ctx, text, o.now())
		msg := timeline.Message{
			ID:        o.newID(),
			Timestamp: o.now(),
			Sender:    o.sender,
		}
		if err != nil {
			// Failures are first-class conversation turns, not alerts.
			msg.Body = timeline.Text(err.Error())
		} else {
			msg.Body = timeline.NoteBody{Note: n}
		}
		return msg
	}
}

// Deliver appends a completed assistant turn. Call it from the same
// goroutine that calls Submit.
func (o *Orchestrator) Deliver(m timeline.Message) {
	o.tl.Append(m)
}
