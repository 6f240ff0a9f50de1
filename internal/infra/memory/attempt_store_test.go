package memory

import (
	"testing"

	"nxt-assess-service/internal/app"
)

type noopCountdown struct{}

func (noopCountdown) Start(int, func(int), func()) {}
func (noopCountdown) Cancel()                      {}

func TestAttemptStore(t *testing.T) {
	store := NewAttemptStore()

	attempt := app.NewAttempt("set-1", 600, noopCountdown{})
	store.Put(attempt)

	got, ok := store.Get(attempt.ID())
	if !ok || got != attempt {
		t.Fatalf("expected stored attempt back, got %v ok=%v", got, ok)
	}

	store.Delete(attempt.ID())
	if _, ok := store.Get(attempt.ID()); ok {
		t.Fatalf("expected attempt removed")
	}

	if _, ok := store.Get("missing"); ok {
		t.Fatalf("expected miss for unknown attempt")
	}
}
