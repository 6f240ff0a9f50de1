package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"nxt-assess-service/internal/domain"
)

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID: "set-1",
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "Pick the capital of France",
				Kind: domain.OptionsDefault,
				Options: []domain.Option{
					{ID: "o1", Text: "Lyon"},
					{ID: "o2", Text: "Paris", Correct: true},
				},
			},
		},
	}
}

type countingLoader struct {
	set   domain.QuestionSet
	calls int
}

func (l *countingLoader) LoadQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	l.calls++
	if setID != l.set.ID {
		return domain.QuestionSet{}, domain.ErrSetNotFound
	}
	return l.set, nil
}

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingLoader{set: sampleSet()}
	repo := NewQuestionRepository(client, loader, 5*time.Minute)

	ctx := context.Background()
	set, err := repo.GetQuestionSet(ctx, "set-1")
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if len(set.Questions) != 1 {
		t.Fatalf("unexpected set: %+v", set)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}
	if !mr.Exists("assess:set:set-1") {
		t.Fatalf("expected cached key in redis")
	}

	// A fresh repository against the same redis serves from cache.
	again := NewQuestionRepository(client, loader, 5*time.Minute)
	set, err = again.GetQuestionSet(ctx, "set-1")
	if err != nil {
		t.Fatalf("get cached set: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if !set.Questions[0].Options[1].Correct {
		t.Fatalf("expected correct flag to round-trip, got %+v", set.Questions[0].Options)
	}
}
