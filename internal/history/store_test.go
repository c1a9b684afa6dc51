package history

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "chat_history.json"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return s
}

func TestAppendRecentClear(t *testing.T) {
	s := newTestStore(t)
	for i := int64(0); i < 5; i++ {
		s.Append("a", Message{Sender: "u", Content: "msg", Timestamp: i})
	}
	s.Append("b", Message{Sender: "v", Content: "other", Timestamp: 9})

	recent := s.Recent("a", 3)
	if len(recent) != 3 {
		t.Fatalf("want 3 recent, got %d", len(recent))
	}
	if recent[0].Timestamp != 2 || recent[2].Timestamp != 4 {
		t.Fatalf("recent window wrong: %+v", recent)
	}

	// limit larger than the log returns everything, and never trims storage
	if got := len(s.Recent("a", 100)); got != 5 {
		t.Fatalf("want full log of 5, got %d", got)
	}

	s.Clear("a")
	if len(s.Recent("a", 10)) != 0 {
		t.Fatalf("clear did not empty session a")
	}
	if len(s.Recent("b", 10)) != 1 {
		t.Fatalf("clear affected another session")
	}
}

func TestRecent_CopySemantics(t *testing.T) {
	s := newTestStore(t)
	s.Append("a", Message{Sender: "u", Content: "hello", Timestamp: 1})
	got := s.Recent("a", 10)
	got[0].Content = "mutated"
	if s.Recent("a", 10)[0].Content != "hello" {
		t.Fatalf("internal state mutated via returned slice")
	}
}

func TestOnChange_FiresOnMutationsOnly(t *testing.T) {
	s := newTestStore(t)
	calls := 0
	s.SetOnChange(func() { calls++ })
	s.Append("a", Message{Sender: "u", Content: "x", Timestamp: 1})
	s.Recent("a", 10)
	s.Clear("a")
	if calls != 2 {
		t.Fatalf("want 2 change notifications, got %d", calls)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "chat_history.json")
	s, err := NewStore(p)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	s.Append("a", Message{Sender: "u", Content: "hello", Timestamp: 1})
	s.Append("a", Message{Sender: "v", Content: "hi", Timestamp: 2})
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := NewStore(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(s.Recent("a", 0), reloaded.Recent("a", 0)) {
		t.Fatalf("round trip mismatch")
	}
}

func TestLoad_CorruptFileYieldsEmptyStore(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "chat_history.json")
	if err := os.WriteFile(p, []byte("[oops"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := NewStore(p)
	if err != nil {
		t.Fatalf("corrupt file must not be fatal: %v", err)
	}
	if len(s.Sessions()) != 0 {
		t.Fatalf("want empty store, got %v", s.Sessions())
	}
}
