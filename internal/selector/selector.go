// Package selector samples learned style traits for prompt injection,
// weighted by proficiency.
package selector

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"style-learner/internal/styles"
)

// Selection holds the two independent per-kind draws used by the injection
// path.
type Selection struct {
	LanguageStyles  []string
	GrammarFeatures []string
}

func (s Selection) Empty() bool {
	return len(s.LanguageStyles) == 0 && len(s.GrammarFeatures) == 0
}

// Selector reads the style store and never mutates it. The draw source is
// injectable so tests can pin exact outcomes.
type Selector struct {
	store *styles.Store
	draw  func() float64 // uniform in [0, 1)
}

func New(store *styles.Store) *Selector {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Selector{store: store, draw: r.Float64}
}

// NewWithDraw builds a selector with a deterministic draw source.
func NewWithDraw(store *styles.Store, draw func() float64) *Selector {
	return &Selector{store: store, draw: draw}
}

// Select samples up to maxCount trait contents of the given kind from a
// session, considering only records at or above minProficiency. An empty typ
// matches both kinds.
func (s *Selector) Select(session, typ string, maxCount, minProficiency int) []string {
	return s.pick(eligible(s.store.Get(session), typ, minProficiency), maxCount)
}

// SelectForSession performs the two independent per-kind draws.
func (s *Selector) SelectForSession(session string, maxCount, minProficiency int) Selection {
	records := s.store.Get(session)
	return Selection{
		LanguageStyles:  s.pick(eligible(records, styles.TypeLanguageStyle, minProficiency), maxCount),
		GrammarFeatures: s.pick(eligible(records, styles.TypeGrammarFeature, minProficiency), maxCount),
	}
}

func eligible(records []styles.Record, typ string, minProficiency int) []styles.Record {
	var out []styles.Record
	for _, r := range records {
		if r.Proficiency < minProficiency {
			continue
		}
		if typ != "" && r.Type != typ {
			continue
		}
		out = append(out, r)
	}
	return out
}

// pick draws up to maxCount candidates without replacement, each draw
// weighted by proficiency over the still-eligible set. When the remaining
// weight is exhausted the rest is taken in proficiency order, which also
// makes the all-zero case deterministic.
func (s *Selector) pick(records []styles.Record, maxCount int) []string {
	if len(records) == 0 || maxCount <= 0 {
		return nil
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Proficiency > records[j].Proficiency
	})

	var out []string
	remaining := records
	for len(out) < maxCount && len(remaining) > 0 {
		total := 0
		for _, r := range remaining {
			total += r.Proficiency
		}
		if total <= 0 {
			for _, r := range remaining {
				if len(out) >= maxCount {
					break
				}
				out = append(out, r.Content)
			}
			break
		}
		target := s.draw() * float64(total)
		cumulative := 0
		for i, r := range remaining {
			cumulative += r.Proficiency
			if float64(cumulative) >= target {
				out = append(out, r.Content)
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	return out
}

// BuildStylePrompt renders a selection into the instruction fragment appended
// to the system prompt. An empty string means nothing should be injected.
func BuildStylePrompt(sel Selection) string {
	if sel.Empty() {
		return ""
	}
	var parts []string
	if len(sel.LanguageStyles) > 0 {
		parts = append(parts, "language style: "+strings.Join(sel.LanguageStyles, ", "))
	}
	if len(sel.GrammarFeatures) > 0 {
		parts = append(parts, "grammar features: "+strings.Join(sel.GrammarFeatures, ", "))
	}
	return "When replying, try to adopt the following learned style traits. " + strings.Join(parts, "; ")
}
