// Package persist debounces file writes for the style and history stores so
// a burst of mutations collapses into one save per domain after a quiet
// period. A forced Flush covers shutdown.
package persist

import (
	"log"
	"sync"
	"time"
)

// Saver writes one domain's full in-memory state to its backing file.
type Saver func() error

type state int

const (
	clean state = iota
	dirty          // last save failed, waiting for the next schedule
	flushScheduled // a delayed flush will pick this domain up
)

type domain struct {
	name  string
	save  Saver
	state state
}

// Coalescer tracks a dirty flag per registered domain and one shared delayed
// flush. Scheduling again while a flush is pending replaces the timer, so a
// steady mutation stream defers the write until a quiet period.
type Coalescer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	domains []*domain
}

func NewCoalescer(delay time.Duration) *Coalescer {
	return &Coalescer{delay: delay}
}

// Register adds a domain and returns its mark-dirty callback, suitable for a
// store's SetOnChange.
func (c *Coalescer) Register(name string, save Saver) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := &domain{name: name, save: save}
	c.domains = append(c.domains, d)
	return func() { c.markDirty(d) }
}

func (c *Coalescer) markDirty(d *domain) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d.state = flushScheduled
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.delayedFlush)
}

func (c *Coalescer) delayedFlush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer = nil
	c.flushLocked()
}

// Flush cancels any pending delayed flush and synchronously writes every
// dirty domain. Must be called at shutdown so no mutation since the last
// debounced flush is lost.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.flushLocked()
}

func (c *Coalescer) flushLocked() {
	for _, d := range c.domains {
		if d.state == clean {
			continue
		}
		if err := d.save(); err != nil {
			// keep the flag set; the next scheduled or forced flush retries
			log.Printf("failed to persist %s: %v", d.name, err)
			d.state = dirty
			continue
		}
		d.state = clean
	}
}
