// Package extract wraps the round-trip to the remote extraction
// service that turns freeform text into a structured note.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"remi/internal/note"
)

// TimeLayout is how current_time is formatted on the wire.
const TimeLayout = "2006-01-02 15:04"

// Extraction failures. ServerError and TransportError carry detail;
// the rest are sentinels.
var (
	ErrUnauthenticated = errors.New("no auth token; log in first")
	ErrNoData          = errors.New("server response contains no data")
	ErrInvalidResponse = errors.New("malformed server response")
)

// ServerError is a failure the server reported, either through the
// response envelope or a non-2xx status.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "server error: " + e.Message
}

// TransportError is a failure to complete the HTTP round-trip at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// TokenSource supplies the current bearer token, if any.
type TokenSource interface {
	CurrentToken() (string, bool)
}

// Client talks to the extraction endpoint. One attempt per call; retry
// policy, if any, belongs to the caller. Timeouts are whatever the
// underlying transport defaults to.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

// NewClient builds a client for the given base URL.
func NewClient(base string, tokens TokenSource) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{},
		tokens: tokens,
	}
}

type envelope struct {
	NoteDto *note.Note `json:"noteDto"`
	Status  *string    `json:"status"`
	Message *string    `json:"message"`
}

// Process sends the user's text and the current time to the extraction
// service and decodes the resulting note.
func (c *Client) Process(ctx context.Context, text string, now time.Time) (note.Note, error) {
	token, ok := c.tokens.CurrentToken()
	if !ok {
		return note.Note{}, ErrUnauthenticated
	}

	body, err := json.Marshal(map[string]string{
		"user_text":    text,
		"current_time": now.Format(TimeLayout),
	})
	if err != nil {
		return note.Note{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/webhook/note", bytes.NewReader(body))
	if err != nil {
		return note.Note{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return note.Note{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return note.Note{}, &TransportError{Err: err}
	}
	log.Debug().Int("status", resp.StatusCode).Int("bytes", len(data)).Msg("extraction response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = resp.Status
		}
		return note.Note{}, &ServerError{Message: msg}
	}
	if len(data) == 0 {
		return note.Note{}, ErrNoData
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return note.Note{}, fmt.Errorf("decode response: %w", err)
	}
	if env.Status != nil && *env.Status == "error" {
		msg := ""
		if env.Message != nil {
			msg = *env.Message
		}
		return note.Note{}, &ServerError{Message: msg}
	}
	if env.NoteDto == nil {
		return note.Note{}, ErrInvalidResponse
	}
	return *env.NoteDto, nil
}

// Update replaces a note's category, text and one trigger's value on
// the server. 2xx is success; anything else surfaces the raw body.
func (c *Client) Update(ctx context.Context, noteID uuid.UUID, categoryType, text string, triggerID uuid.UUID, triggerValue string) error {
	token, ok := c.tokens.CurrentToken()
	if !ok {
		return ErrUnauthenticated
	}

	body, err := json.Marshal(map[string]string{
		"categoryType": categoryType,
		"text":         text,
		"triggerId":    triggerID.String(),
		"triggerValue": triggerValue,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/note/%s/update", c.base, noteID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	data, _ := io.ReadAll(resp.Body)
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = resp.Status
	}
	return &ServerError{Message: msg}
}
