package memory

import (
	"context"
	"errors"
	"testing"
	"time"

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

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		SetLoader: NewStaticSetLoader(map[string]domain.QuestionSet{
			"set-1": sampleSet(),
		}),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	if _, err := repo.GetQuestionSet(context.Background(), "set-1"); err != nil {
		t.Fatalf("get set: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuestionSet(context.Background(), "set-1"); err != nil {
		t.Fatalf("get set 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionRepositoryDoesNotCacheFailures(t *testing.T) {
	loader := &countingLoader{SetLoader: NewStaticSetLoader(nil)}
	repo := NewQuestionRepository(loader, time.Minute)

	if _, err := repo.GetQuestionSet(context.Background(), "missing"); !errors.Is(err, domain.ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound, got %v", err)
	}
	if _, err := repo.GetQuestionSet(context.Background(), "missing"); !errors.Is(err, domain.ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound on second call, got %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected loader called for each failed load, got %d", loader.calls)
	}
}

type countingLoader struct {
	SetLoader
	calls int
}

func (l *countingLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	l.calls++
	return l.SetLoader.LoadQuestionSet(ctx, setID)
}
