package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "remi.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTokenRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, ok := s.CurrentToken(); ok {
		t.Fatal("fresh store should have no token")
	}

	if err := s.PutToken("tok-1"); err != nil {
		t.Fatalf("PutToken: %v", err)
	}
	token, ok := s.CurrentToken()
	if !ok || token != "tok-1" {
		t.Errorf("CurrentToken = %q, %v; want tok-1, true", token, ok)
	}
}

func TestPutTokenReplaces(t *testing.T) {
	s := openTestStore(t)

	s.PutToken("old")
	if err := s.PutToken("new"); err != nil {
		t.Fatalf("PutToken: %v", err)
	}

	token, ok := s.CurrentToken()
	if !ok || token != "new" {
		t.Errorf("CurrentToken = %q, %v; want new, true", token, ok)
	}
}

func TestDeleteToken(t *testing.T) {
	s := openTestStore(t)

	s.PutToken("tok")
	if err := s.DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if _, ok := s.CurrentToken(); ok {
		t.Error("token survived deletion")
	}

	// Deleting twice is not an error.
	if err := s.DeleteToken(); err != nil {
		t.Errorf("second DeleteToken: %v", err)
	}
}

func TestRecentUtterancesNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 6, 17, 9, 0, 0, 0, time.UTC)
	s.AppendUtterance("первая", base)
	s.AppendUtterance("вторая", base.Add(time.Minute))
	s.AppendUtterance("третья", base.Add(2*time.Minute))

	got, err := s.RecentUtterances(10)
	if err != nil {
		t.Fatalf("RecentUtterances: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d utterances, want 3", len(got))
	}
	if got[0].Text != "третья" || got[2].Text != "первая" {
		t.Errorf("order = %q, %q, %q", got[0].Text, got[1].Text, got[2].Text)
	}
	if !got[0].RecordedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("RecordedAt = %v, want %v", got[0].RecordedAt, base.Add(2*time.Minute))
	}
}

func TestRecentUtterancesLimit(t *testing.T) {
	s := openTestStore(t)

	base := time.Now()
	for i := 0; i < 5; i++ {
		s.AppendUtterance("x", base.Add(time.Duration(i)*time.Second))
	}

	got, err := s.RecentUtterances(2)
	if err != nil {
		t.Fatalf("RecentUtterances: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d utterances, want 2", len(got))
	}
}

func TestRecentUtterancesEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.RecentUtterances(10)
	if err != nil {
		t.Fatalf("RecentUtterances: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d utterances, want 0", len(got))
	}
}

func TestOpenCreatesDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "remi.sqlite")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.PutToken("tok"); err != nil {
		t.Errorf("PutToken after nested open: %v", err)
	}
}
