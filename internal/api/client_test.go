package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"remi/internal/note"
)

type staticTokens struct {
	token string
	ok    bool
}

func (s staticTokens) CurrentToken() (string, bool) { return s.token, s.ok }

func TestLoginReturnsToken(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login should not carry an Authorization header")
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.Write([]byte(`{"token":"tok-123"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens{})
	token, err := c.Login(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "tok-123" {
		t.Errorf("token = %q, want tok-123", token)
	}
	if gotBody["email"] != "a@b.c" || gotBody["password"] != "secret" {
		t.Errorf("request body = %v", gotBody)
	}
}

func TestRegisterReturnsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["fullName"] != "Ann" {
			t.Errorf("fullName = %q", body["fullName"])
		}
		w.Write([]byte(`{"token":"fresh"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens{})
	token, err := c.Register(context.Background(), "a@b.c", "Ann", "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token != "fresh" {
		t.Errorf("token = %q", token)
	}
}

func TestLoginEmptyTokenIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, staticTokens{}).Login(context.Background(), "a@b.c", "x")
	if !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, staticTokens{}).Login(context.Background(), "a@b.c", "wrong")
	var serr *ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want ServerError", err)
	}
	if serr.Message != "invalid credentials" {
		t.Errorf("message = %q", serr.Message)
	}
}

func TestMyNotesCarriesBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/note/my" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`[{"id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","text":"позвонить маме","categoryType":"REMINDER","triggers":[]}]`))
	}))
	defer srv.Close()

	notes, err := NewClient(srv.URL, staticTokens{token: "tok", ok: true}).MyNotes(context.Background())
	if err != nil {
		t.Fatalf("MyNotes: %v", err)
	}
	if len(notes) != 1 || notes[0].Text != "позвонить маме" {
		t.Errorf("notes = %+v", notes)
	}
}

func TestMyNotesWithoutTokenSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, staticTokens{}).MyNotes(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
	if called {
		t.Error("request reached the server without a token")
	}
}

func TestMyNotesMalformedElementFailsList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"not-a-uuid","text":"x","categoryType":"REMINDER","triggers":[]}]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, staticTokens{token: "tok", ok: true}).MyNotes(context.Background())
	if !errors.Is(err, note.ErrInvalidID) {
		t.Errorf("err = %v, want note.ErrInvalidID", err)
	}
}

func TestUnreachableServerIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, staticTokens{token: "tok", ok: true}).MyNotes(context.Background())
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if terr.Unwrap() == nil {
		t.Error("TransportError should carry its cause")
	}
}

func TestLocationsRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"loc-1","name":"Дом","coords":"55.75,37.61"}]`))
	}))
	defer srv.Close()

	locs, err := NewClient(srv.URL, staticTokens{token: "tok", ok: true}).Locations(context.Background())
	if err != nil {
		t.Fatalf("Locations: %v", err)
	}
	if len(locs) != 1 || locs[0].Name != "Дом" || locs[0].Coords != "55.75,37.61" {
		t.Errorf("locations = %+v", locs)
	}
}

func TestSaveLocationPostsNameAndCoords(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/location" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, staticTokens{token: "tok", ok: true}).SaveLocation(context.Background(), "Работа", "55.70,37.50")
	if err != nil {
		t.Fatalf("SaveLocation: %v", err)
	}
	if body["name"] != "Работа" || body["coords"] != "55.70,37.50" {
		t.Errorf("body = %v", body)
	}
}
