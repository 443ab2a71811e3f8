// Package note defines the structured reminder model returned by the
// extraction service and the strict decoder for it.
package note

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Decode failure causes. Wrapped with field context; check with errors.Is.
var (
	ErrInvalidID        = errors.New("invalid uuid")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrMissingField     = errors.New("missing field")
)

// Trigger types the server is known to emit. The set is open: a value
// outside it is preserved verbatim and displayed as its raw string.
const (
	TriggerTime     = "TIME"
	TriggerLocation = "LOCATION"
	TriggerEvent    = "EVENT"
	TriggerShopping = "SHOPPING"
	TriggerCall     = "CALL"
	TriggerMeeting  = "MEETING"
	TriggerDeadline = "DEADLINE"
	TriggerHealth   = "HEALTH"
	TriggerRoutine  = "ROUTINE"
	TriggerOther    = "OTHER"
)

var knownTriggerTypes = []string{
	TriggerTime, TriggerLocation, TriggerEvent, TriggerShopping,
	TriggerCall, TriggerMeeting, TriggerDeadline, TriggerHealth,
	TriggerRoutine, TriggerOther,
}

// Trigger is a condition attached to a Note for scheduling or recall.
type Trigger struct {
	ID       uuid.UUID
	Type     string
	IsReady  bool
	Time     *time.Time
	Location *string
}

// CanonicalType returns the upper-case known form of the trigger type,
// matched case-insensitively, or the raw string when unrecognized.
func (t Trigger) CanonicalType() string {
	for _, known := range knownTriggerTypes {
		if strings.EqualFold(t.Type, known) {
			return known
		}
	}
	return t.Type
}

// Note is a structured reminder with text, category and zero or more
// triggers. Trigger order is the server's; it is never re-sorted.
type Note struct {
	ID           uuid.UUID
	Text         string
	CategoryType string
	Triggers     []Trigger
}

// Decode parses a server Note payload. It fails with ErrInvalidID when
// any id is not a well-formed UUID string, ErrInvalidTimestamp when a
// trigger time is present but not ISO-8601, and ErrMissingField for an
// absent required field. Text, category and location accept any string.
func Decode(data []byte) (Note, error) {
	var n Note
	if err := json.Unmarshal(data, &n); err != nil {
		return Note{}, err
	}
	return n, nil
}

type triggerWire struct {
	ID      *string `json:"id"`
	Type    *string `json:"triggerType"`
	IsReady *bool   `json:"isReady"`
	Time    *string `json:"time"`
	Loc     *string `json:"location"`
}

type noteWire struct {
	ID           *string           `json:"id"`
	Text         *string           `json:"text"`
	CategoryType *string           `json:"categoryType"`
	Triggers     []json.RawMessage `json:"triggers"`
}

// UnmarshalJSON implements the strict decode contract, so that Note
// slices and envelopes unmarshal with the same rules as Decode.
func (n *Note) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	var w noteWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == nil {
		return fmt.Errorf("note id: %w", ErrMissingField)
	}
	if w.Text == nil {
		return fmt.Errorf("note text: %w", ErrMissingField)
	}
	if w.CategoryType == nil {
		return fmt.Errorf("note categoryType: %w", ErrMissingField)
	}
	if _, ok := probe["triggers"]; !ok {
		return fmt.Errorf("note triggers: %w", ErrMissingField)
	}
	id, err := uuid.Parse(*w.ID)
	if err != nil {
		return fmt.Errorf("note id %q: %w", *w.ID, ErrInvalidID)
	}
	triggers := make([]Trigger, 0, len(w.Triggers))
	for i, raw := range w.Triggers {
		t, err := decodeTrigger(raw)
		if err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
		triggers = append(triggers, t)
	}
	n.ID = id
	n.Text = *w.Text
	n.CategoryType = *w.CategoryType
	n.Triggers = triggers
	return nil
}

func decodeTrigger(data []byte) (Trigger, error) {
	var w triggerWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Trigger{}, err
	}
	if w.ID == nil {
		return Trigger{}, fmt.Errorf("id: %w", ErrMissingField)
	}
	if w.Type == nil {
		return Trigger{}, fmt.Errorf("triggerType: %w", ErrMissingField)
	}
	if w.IsReady == nil {
		return Trigger{}, fmt.Errorf("isReady: %w", ErrMissingField)
	}
	id, err := uuid.Parse(*w.ID)
	if err != nil {
		return Trigger{}, fmt.Errorf("id %q: %w", *w.ID, ErrInvalidID)
	}
	t := Trigger{
		ID:       id,
		Type:     *w.Type,
		IsReady:  *w.IsReady,
		Location: w.Loc,
	}
	if w.Time != nil {
		parsed, err := time.Parse(time.RFC3339, *w.Time)
		if err != nil {
			return Trigger{}, fmt.Errorf("time %q: %w", *w.Time, ErrInvalidTimestamp)
		}
		t.Time = &parsed
	}
	return t, nil
}
