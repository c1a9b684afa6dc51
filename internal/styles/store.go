package styles

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const secondsPerDay = 86400

// Store owns the per-session style records and their backing file.
// Mutating calls report a change through onChange so persistence can be
// coalesced by the caller; the store itself never writes on mutation.
type Store struct {
	path     string
	mu       sync.RWMutex
	sessions map[string][]Record
	now      func() time.Time
	onChange func()
}

func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	s := &Store{
		path:     path,
		sessions: make(map[string][]Record),
		now:      time.Now,
	}
	s.load()
	return s, nil
}

// SetOnChange installs the callback invoked after every mutating call.
func (s *Store) SetOnChange(fn func()) { s.onChange = fn }

// SetNowFunc replaces the clock, for tests.
func (s *Store) SetNowFunc(fn func() time.Time) { s.now = fn }

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Upsert reinforces an existing (content, type) record or creates a new one.
// Proficiency grows by 10 per reinforcement, capped at 100.
func (s *Store) Upsert(session, content, typ string) {
	s.mu.Lock()
	now := s.now().Unix()
	records := s.sessions[session]
	updated := false
	for i := range records {
		if records[i].Content == content && records[i].Type == typ {
			records[i].Proficiency = min(maxProficiency, records[i].Proficiency+proficiencyGain)
			records[i].LastUpdated = now
			updated = true
			break
		}
	}
	if !updated {
		records = append(records, Record{
			Content:     content,
			Type:        typ,
			Proficiency: initialProficiency,
			CreatedAt:   now,
			LastUpdated: now,
		})
	}
	s.sessions[session] = records
	s.mu.Unlock()
	s.notify()
}

// Get returns a copy of the session's records, in insertion order.
func (s *Store) Get(session string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.sessions[session]
	out := make([]Record, len(records))
	copy(out, records)
	return out
}

// Clear empties a session's record list.
func (s *Store) Clear(session string) {
	s.mu.Lock()
	delete(s.sessions, session)
	s.mu.Unlock()
	s.notify()
}

// Sessions returns the identifiers of all sessions holding records.
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for session := range s.sessions {
		out = append(out, session)
	}
	return out
}

// Maintain applies one maintenance pass to a single session: time-based
// proficiency decay, eviction of exhausted records, then capacity eviction
// keeping the maxPerSession strongest. Decay resets LastUpdated, so a record
// decays at most once per pass however stale it is. Returns the number of
// records that decayed and the number evicted.
func (s *Store) Maintain(session string, decayRate, maxPerSession int) (decayed, evicted int) {
	s.mu.Lock()
	now := s.now().Unix()
	records := s.sessions[session]

	for i := range records {
		elapsed := now - records[i].LastUpdated
		amount := int(elapsed/secondsPerDay) * decayRate
		if amount > 0 {
			records[i].Proficiency = max(0, records[i].Proficiency-amount)
			records[i].LastUpdated = now
			decayed++
		}
	}

	kept := records[:0]
	for _, r := range records {
		if r.Proficiency > 0 {
			kept = append(kept, r)
		} else {
			evicted++
		}
	}
	records = kept

	if maxPerSession > 0 && len(records) > maxPerSession {
		// Stable ascending sort, then drop the weakest: ties keep the
		// earlier-inserted record.
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Proficiency < records[j].Proficiency
		})
		evicted += len(records) - maxPerSession
		records = records[len(records)-maxPerSession:]
	}

	s.sessions[session] = records
	s.mu.Unlock()

	if decayed > 0 || evicted > 0 {
		s.notify()
	}
	return decayed, evicted
}

// Save serializes the full styles map to the backing file. Concurrent
// mutations are excluded for the duration of the write.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open styles file: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.sessions); err != nil {
		return fmt.Errorf("encode styles: %w", err)
	}
	return nil
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("failed to read styles file %s: %v", s.path, err)
		}
		return
	}
	var sessions map[string][]Record
	if err := json.Unmarshal(data, &sessions); err != nil {
		// malformed file -> start fresh
		log.Printf("failed to parse styles file %s, starting empty: %v", s.path, err)
		return
	}
	if sessions != nil {
		s.sessions = sessions
	}
}
