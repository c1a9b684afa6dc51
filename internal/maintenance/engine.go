// Package maintenance runs the periodic decay and eviction pass over the
// style store.
package maintenance

import (
	"log"

	"style-learner/internal/styles"
)

// Engine walks every session and applies decay, exhaustion eviction and
// capacity eviction. Sessions are processed independently; one session never
// blocks the rest of the pass.
type Engine struct {
	store         *styles.Store
	decayRate     int
	maxPerSession int
}

// Result summarizes one maintenance pass.
type Result struct {
	Sessions int
	Decayed  int
	Evicted  int
}

func New(store *styles.Store, decayRate, maxPerSession int) *Engine {
	return &Engine{store: store, decayRate: decayRate, maxPerSession: maxPerSession}
}

// Run performs one full pass. The store marks its domain dirty for every
// session it actually changed, so results reach disk on the next debounced
// flush without forcing an extra synchronous write.
func (e *Engine) Run() Result {
	var res Result
	for _, session := range e.store.Sessions() {
		decayed, evicted := e.store.Maintain(session, e.decayRate, e.maxPerSession)
		res.Sessions++
		res.Decayed += decayed
		res.Evicted += evicted
	}
	log.Printf("🧹 Style maintenance done: %d sessions, %d records decayed, %d evicted",
		res.Sessions, res.Decayed, res.Evicted)
	return res
}
