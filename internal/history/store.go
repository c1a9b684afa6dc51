package history

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Message is a single chat message kept for later style analysis.
type Message struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Store owns the per-session chat log and its backing file. Writes never
// trim: the log grows until analysis clears it. Like styles.Store it only
// reports changes; the caller decides when to persist.
type Store struct {
	path     string
	mu       sync.RWMutex
	sessions map[string][]Message
	onChange func()
}

func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	s := &Store{
		path:     path,
		sessions: make(map[string][]Message),
	}
	s.load()
	return s, nil
}

// SetOnChange installs the callback invoked after every mutating call.
func (s *Store) SetOnChange(fn func()) { s.onChange = fn }

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Append adds a message to the session's log.
func (s *Store) Append(session string, msg Message) {
	s.mu.Lock()
	s.sessions[session] = append(s.sessions[session], msg)
	s.mu.Unlock()
	s.notify()
}

// Recent returns a copy of the last limit messages without trimming the log.
func (s *Store) Recent(session string, limit int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sessions[session]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Clear empties a session's log.
func (s *Store) Clear(session string) {
	s.mu.Lock()
	delete(s.sessions, session)
	s.mu.Unlock()
	s.notify()
}

// Sessions returns the identifiers of all sessions holding messages.
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for session := range s.sessions {
		out = append(out, session)
	}
	return out
}

// Save serializes the full history map to the backing file.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.sessions); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return nil
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("failed to read history file %s: %v", s.path, err)
		}
		return
	}
	var sessions map[string][]Message
	if err := json.Unmarshal(data, &sessions); err != nil {
		log.Printf("failed to parse history file %s, starting empty: %v", s.path, err)
		return
	}
	if sessions != nil {
		s.sessions = sessions
	}
}
