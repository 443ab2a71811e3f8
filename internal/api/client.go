// Package api holds the thin HTTP clients for the assistant backend:
// auth, reminder listing and saved locations. The extraction endpoint
// lives in package extract.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"remi/internal/note"
)

var (
	ErrUnauthenticated = errors.New("no auth token; log in first")
	ErrNoData          = errors.New("server response contains no data")
)

// ServerError is a non-2xx response; Message is the raw body when the
// server sent one.
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

// Client calls the backend. Single attempt per call, transport-default
// timeouts, same as every other client in this codebase.
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

// do runs one request and returns the body for 2xx responses.
func (c *Client) do(ctx context.Context, method, path string, payload any, authed bool) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token, ok := c.tokens.CurrentToken()
		if !ok {
			return nil, ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	log.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("api response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = resp.Status
		}
		return nil, &ServerError{Message: msg}
	}
	return data, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.tokenRequest(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account and returns its bearer token.
func (c *Client) Register(ctx context.Context, email, fullName, password string) (string, error) {
	return c.tokenRequest(ctx, "/auth/register", map[string]string{
		"email":    email,
		"fullName": fullName,
		"password": password,
	})
}

func (c *Client) tokenRequest(ctx context.Context, path string, payload map[string]string) (string, error) {
	data, err := c.do(ctx, http.MethodPost, path, payload, false)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.Token == "" {
		return "", ErrNoData
	}
	return parsed.Token, nil
}

// MyNotes fetches the user's reminders. Decoding follows the strict
// note contract: one malformed element fails the whole list.
func (c *Client) MyNotes(ctx context.Context) ([]note.Note, error) {
	data, err := c.do(ctx, http.MethodGet, "/note/my", nil, true)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoData
	}
	var notes []note.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return notes, nil
}

// UserLocation is a saved place a LOCATION trigger can point at.
type UserLocation struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Coords string `json:"coords"`
}

// Locations fetches the user's saved locations.
func (c *Client) Locations(ctx context.Context) ([]UserLocation, error) {
	data, err := c.do(ctx, http.MethodGet, "/location", nil, true)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoData
	}
	var locations []UserLocation
	if err := json.Unmarshal(data, &locations); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	return locations, nil
}

// SaveLocation stores a named place.
func (c *Client) SaveLocation(ctx context.Context, name, coords string) error {
	_, err := c.do(ctx, http.MethodPost, "/location", map[string]string{
		"name":   name,
		"coords": coords,
	}, true)
	return err
}
