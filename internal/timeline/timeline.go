// Package timeline holds the in-memory, append-only conversation for
// one session and derives its day-grouped view for display.
package timeline

import (
	"time"

	"github.com/google/uuid"

	"remi/internal/note"
)

// Body is a message payload. Exactly one variant exists per message;
// the sealed interface makes two-payloads-at-once unrepresentable.
type Body interface {
	isBody()
}

// Text is a plain chat turn (user input or an error surfaced as a turn).
type Text string

func (Text) isBody() {}

// NoteBody wraps a structured note returned by the extraction service.
type NoteBody struct {
	Note note.Note
}

func (NoteBody) isBody() {}

// Message is one conversation turn. Messages are never mutated or
// removed once appended.
type Message struct {
	ID        uuid.UUID
	Timestamp time.Time
	IsUser    bool
	Sender    string
	Body      Body
}

// DayGroup is all messages whose local day matches Day, in insertion
// order.
type DayGroup struct {
	Day      time.Time
	Messages []Message
}

// Timeline is the append-only message sequence. Not safe for
// concurrent writers; a single goroutine owns it.
type Timeline struct {
	msgs []Message
	seq  uint64
}

// New returns an empty timeline.
func New() *Timeline {
	return &Timeline{}
}

// Append adds a message at the end and bumps the sequence, which
// observers use as the scroll-to-newest signal.
func (t *Timeline) Append(m Message) {
	t.msgs = append(t.msgs, m)
	t.seq++
}

// Seq increases by one per append.
func (t *Timeline) Seq() uint64 { return t.seq }

// Len is the number of messages.
func (t *Timeline) Len() int { return len(t.msgs) }

// Messages returns a copy of the sequence in insertion order.
func (t *Timeline) Messages() []Message {
	out := make([]Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// GroupedByDay derives (day, messages) pairs ordered by ascending day,
// each day's messages in insertion order. Recomputed on every call;
// conversations are small enough that caching would buy nothing.
func (t *Timeline) GroupedByDay() []DayGroup {
	byDay := make(map[time.Time]int)
	var groups []DayGroup
	for _, m := range t.msgs {
		day := dayOf(m.Timestamp)
		idx, ok := byDay[day]
		if !ok {
			idx = len(groups)
			byDay[day] = idx
			groups = append(groups, DayGroup{Day: day})
		}
		groups[idx].Messages = append(groups[idx].Messages, m)
	}
	// Insertion order is almost always day order already; sort to keep
	// the ascending-day guarantee when it is not.
	for i := 1; i < len(groups); i++ {
		for j := i; j > 0 && groups[j].Day.Before(groups[j-1].Day); j-- {
			groups[j], groups[j-1] = groups[j-1], groups[j]
		}
	}
	return groups
}

func dayOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}
