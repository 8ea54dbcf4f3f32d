package client

import (
	"sync"
	"time"
)

// Ticker runs a function on a fixed interval until stopped. Stop is
// idempotent and safe to call from the tick function itself.
type Ticker struct {
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

func NewTicker(interval time.Duration, fn func()) *Ticker {
	return &Ticker{
		interval: interval,
		fn:       fn,
	}
}

// Start begins ticking. Starting an already-running ticker is a no-op.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}

	t.running = true
	t.stop = make(chan struct{})

	go t.run(t.stop)
}

func (t *Ticker) run(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.fn()
		case <-stop:
			return
		}
	}
}

// Stop halts the ticker. A tick already in flight completes.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}

	t.running = false
	close(t.stop)
}

func (t *Ticker) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
