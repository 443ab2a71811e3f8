package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"remi/internal/note"
	"remi/internal/timeline"
)

type fakeProcessor struct {
	calls []string
	note  note.Note
	err   error
}

func (f *fakeProcessor) Process(ctx context.Context, text string, now time.Time) (note.Note, error) {
	f.calls = append(f.calls, text)
	return f.note, f.err
}

func TestSubmitEmptyIsNoOp(t *testing.T) {
	tl := timeline.New()
	proc := &fakeProcessor{}
	o := New(tl, proc)

	for _, input := range []string{"", "   ", "\n\t  "} {
		if pending := o.Submit(input); pending != nil {
			t.Errorf("Submit(%q) returned pending work", input)
		}
	}
	if tl.Len() != 0 {
		t.Errorf("timeline len = %d, want 0", tl.Len())
	}
	if len(proc.calls) != 0 {
		t.Errorf("processor called %d times, want 0", len(proc.calls))
	}
}

func TestSubmitAppendsUserBeforeResponse(t *testing.T) {
	tl := timeline.New()
	proc := &fakeProcessor{note: note.Note{ID: uuid.New(), Text: "x", CategoryType: "OTHER"}}
	o := New(tl, proc)

	pending := o.Submit("напомни позвонить маме завтра в 10")
	if pending == nil {
		t.Fatal("expected pending work")
	}

	// The user turn is already visible before the extraction resolves.
	if tl.Len() != 1 {
		t.Fatalf("timeline len = %d, want 1", tl.Len())
	}
	user := tl.Messages()[0]
	if !user.IsUser {
		t.Error("first message should be the user's")
	}
	if user.Body.(timeline.Text) != "напомни позвонить маме завтра в 10" {
		t.Errorf("user text = %q", user.Body)
	}
	if len(proc.calls) != 0 {
		t.Error("no call may happen before pending runs")
	}

	o.Deliver(pending(context.Background()))

	if tl.Len() != 2 {
		t.Fatalf("timeline len = %d, want 2", tl.Len())
	}
	reply := tl.Messages()[1]
	if reply.IsUser {
		t.Error("second message should be the assistant's")
	}
	if reply.Sender != DefaultSender {
		t.Errorf("sender = %q", reply.Sender)
	}
	if _, ok := reply.Body.(timeline.NoteBody); !ok {
		t.Errorf("reply body = %T, want NoteBody", reply.Body)
	}
	if len(proc.calls) != 1 || proc.calls[0] != "напомни позвонить маме завтра в 10" {
		t.Errorf("processor calls = %v", proc.calls)
	}
}

func TestSubmitErrorBecomesAssistantTurn(t *testing.T) {
	tl := timeline.New()
	proc := &fakeProcessor{err: errors.New("server error: нет связи")}
	o := New(tl, proc)

	pending := o.Submit("что-нибудь")
	o.Deliver(pending(context.Background()))

	reply := tl.Messages()[1]
	text, ok := reply.Body.(timeline.Text)
	if !ok {
		t.Fatalf("reply body = %T, want Text", reply.Body)
	}
	if string(text) != "server error: нет связи" {
		t.Errorf("error text = %q", text)
	}
	if reply.IsUser {
		t.Error("error turn belongs to the assistant")
	}
}

func TestEndToEndOneTimeTrigger(t *testing.T) {
	tl := timeline.New()
	when := time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)
	proc := &fakeProcessor{note: note.Note{
		ID:           uuid.New(),
		Text:         "позвонить маме",
		CategoryType: "CALL",
		Triggers: []note.Trigger{
			{ID: uuid.New(), Type: "TIME", IsReady: true, Time: &when},
		},
	}}
	o := New(tl, proc)

	pending := o.Submit("напомни позвонить маме завтра в 10")
	o.Deliver(pending(context.Background()))

	if tl.Len() != 2 {
		t.Fatalf("timeline len = %d, want 2", tl.Len())
	}
	body, ok := tl.Messages()[1].Body.(timeline.NoteBody)
	if !ok {
		t.Fatalf("body = %T", tl.Messages()[1].Body)
	}
	if len(body.Note.Triggers) != 1 {
		t.Fatalf("triggers = %d, want 1", len(body.Note.Triggers))
	}
	if body.Note.Triggers[0].CanonicalType() != note.TriggerTime {
		t.Errorf("trigger type = %q, want TIME", body.Note.Triggers[0].Type)
	}
}
