// Package injector decides whether a session has learned enough style to be
// worth injecting, and augments the system prompt when it has.
package injector

import (
	"log"
	"strings"

	"style-learner/internal/selector"
	"style-learner/internal/styles"
)

type Injector struct {
	store          *styles.Store
	selector       *selector.Selector
	enabled        bool
	minProficiency int
	maxStyles      int
}

// Summary describes a session's learned styles for the inspection command.
type Summary struct {
	TotalStyles     int
	HighProficiency int
	LanguageStyles  []string
	GrammarFeatures []string
}

func New(store *styles.Store, sel *selector.Selector, enabled bool, minProficiency, maxStyles int) *Injector {
	return &Injector{
		store:          store,
		selector:       sel,
		enabled:        enabled,
		minProficiency: minProficiency,
		maxStyles:      maxStyles,
	}
}

// ShouldInject reports whether the feature is on and the session holds at
// least one record at or above the proficiency gate.
func (i *Injector) ShouldInject(session string) bool {
	if !i.enabled {
		return false
	}
	for _, r := range i.store.Get(session) {
		if r.Proficiency >= i.minProficiency {
			return true
		}
	}
	return false
}

// Inject returns the system prompt augmented with sampled style traits, or
// the original prompt unchanged when there is nothing to inject.
func (i *Injector) Inject(session, originalPrompt string) string {
	if !i.ShouldInject(session) {
		return originalPrompt
	}
	sel := i.selector.SelectForSession(session, i.maxStyles, i.minProficiency)
	fragment := selector.BuildStylePrompt(sel)
	if fragment == "" {
		return originalPrompt
	}
	if strings.TrimSpace(originalPrompt) == "" {
		return fragment
	}
	log.Printf("injecting style traits for session %s: %q", session, fragment)
	return originalPrompt + "\n\n" + fragment
}

// Summarize collects the traits at or above the proficiency gate.
func (i *Injector) Summarize(session string) Summary {
	records := i.store.Get(session)
	out := Summary{TotalStyles: len(records)}
	for _, r := range records {
		if r.Proficiency < i.minProficiency {
			continue
		}
		out.HighProficiency++
		switch r.Type {
		case styles.TypeLanguageStyle:
			out.LanguageStyles = append(out.LanguageStyles, r.Content)
		case styles.TypeGrammarFeature:
			out.GrammarFeatures = append(out.GrammarFeatures, r.Content)
		}
	}
	return out
}
