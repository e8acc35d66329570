// ABOUTME: Optional reveal pacer that exposes accumulated text at a bounded rate.
// ABOUTME: Purely cosmetic; final text and completion detection never depend on it.

package stream

import (
	"sync"
	"time"
)

const (
	defaultRevealInterval = 30 * time.Millisecond
	defaultRevealChunk    = 3 // runes per tick
)

// Pacer reveals a growing text at a bounded rate. Deltas may arrive faster
// than they should be shown; the pacer reads the authoritative accumulated
// text via SetTarget and emits progressively longer prefixes to the reveal
// callback. Flush jumps straight to the full target, used on finalize.
type Pacer struct {
	mu       sync.Mutex
	target   []rune
	revealed int
	running  bool
	stop     chan struct{}

	interval time.Duration
	chunk    int
	reveal   func(text string)
}

// NewPacer creates a pacer that calls reveal with each newly visible prefix.
// Zero interval/chunk select the defaults.
func NewPacer(interval time.Duration, chunk int, reveal func(text string)) *Pacer {
	if interval <= 0 {
		interval = defaultRevealInterval
	}
	if chunk <= 0 {
		chunk = defaultRevealChunk
	}
	return &Pacer{
		interval: interval,
		chunk:    chunk,
		reveal:   reveal,
		stop:     make(chan struct{}),
	}
}

// SetTarget updates the full text the pacer is working toward and starts the
// reveal loop if it is not already running.
func (p *Pacer) SetTarget(text string) {
	p.mu.Lock()
	p.target = []rune(text)
	shouldStart := !p.running && p.revealed < len(p.target)
	if shouldStart {
		p.running = true
	}
	p.mu.Unlock()

	if shouldStart {
		go p.run()
	}
}

// Flush reveals the whole target immediately and stops the loop.
func (p *Pacer) Flush() {
	p.mu.Lock()
	p.revealed = len(p.target)
	text := string(p.target)
	p.mu.Unlock()

	p.reveal(text)
}

// Stop halts the reveal loop without flushing.
func (p *Pacer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		close(p.stop)
		p.stop = make(chan struct{})
		p.running = false
	}
}

func (p *Pacer) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.mu.Lock()
	stop := p.stop
	p.mu.Unlock()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.revealed >= len(p.target) {
				p.running = false
				p.mu.Unlock()
				return
			}
			p.revealed += p.chunk
			if p.revealed > len(p.target) {
				p.revealed = len(p.target)
			}
			text := string(p.target[:p.revealed])
			p.mu.Unlock()

			p.reveal(text)
		}
	}
}
