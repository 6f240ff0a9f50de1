package app

import (
	"sync"
	"time"
)

// Countdown drives an attempt's clock. Start begins ticking once per
// instance; onExpire fires at most once, after the final tick reports zero.
// Cancel stops ticking and is safe to call repeatedly or after expiry.
type Countdown interface {
	Start(budgetSeconds int, onTick func(remaining int), onExpire func())
	Cancel()
}

// CountdownFactory mints a fresh countdown for each attempt.
type CountdownFactory func() Countdown

// tickerCountdown counts down on a real ticker at one-second resolution.
type tickerCountdown struct {
	interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
	expired sync.Once
}

// NewTickerCountdown returns a countdown ticking once per second.
func NewTickerCountdown() Countdown {
	return &tickerCountdown{interval: time.Second}
}

// newTickerCountdownWithInterval allows fast ticks in tests.
func newTickerCountdownWithInterval(interval time.Duration) Countdown {
	return &tickerCountdown{interval: interval}
}

func (t *tickerCountdown) Start(budgetSeconds int, onTick func(remaining int), onExpire func()) {
	t.mu.Lock()
	if t.stop != nil {
		t.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		remaining := budgetSeconds
		for remaining > 0 {
			select {
			case <-ticker.C:
				remaining--
				onTick(remaining)
			case <-stop:
				return
			}
		}

		select {
		case <-stop:
			return
		default:
		}
		t.expired.Do(onExpire)
	}()
}

func (t *tickerCountdown) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil || t.stopped {
		return
	}
	close(t.stop)
	t.stopped = true
}
