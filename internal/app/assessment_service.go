package app

import (
	"context"

	"github.com/rs/zerolog"

	"nxt-assess-service/internal/domain"
)

// AttemptRepository abstracts how live attempts are tracked (in-memory,
// Redis-marked, etc).
type AttemptRepository interface {
	Put(attempt *Attempt)
	Get(attemptID string) (*Attempt, bool)
	Delete(attemptID string)
}

// QuestionRepository loads question sets (from cache/backing source).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// AssessmentService contains the assessment use cases: starting an attempt,
// the navigation/selection operations, submission, and teardown.
type AssessmentService struct {
	attempts  AttemptRepository
	questions QuestionRepository
	timers    CountdownFactory
	budget    int
	log       zerolog.Logger
}

func NewAssessmentService(attempts AttemptRepository, questions QuestionRepository, timers CountdownFactory, budgetSeconds int, log zerolog.Logger) *AssessmentService {
	return &AssessmentService{
		attempts:  attempts,
		questions: questions,
		timers:    timers,
		budget:    budgetSeconds,
		log:       log,
	}
}

// Start creates an attempt for setID, loads its question set, and on success
// moves it to Ready with the countdown running. On a load failure the attempt
// is kept in Failed so the user can retry; the FetchError is returned
// alongside it.
func (s *AssessmentService) Start(ctx context.Context, setID string) (*Attempt, error) {
	attempt := NewAttempt(setID, s.budget, s.timers())
	s.attempts.Put(attempt)
	if err := s.load(ctx, attempt); err != nil {
		return attempt, err
	}
	s.log.Info().Str("attempt", attempt.ID()).Str("set", setID).Msg("attempt started")
	return attempt, nil
}

// Retry re-runs the question load for an attempt stuck in Failed.
func (s *AssessmentService) Retry(ctx context.Context, attemptID string) (*Attempt, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	if err := attempt.reload(); err != nil {
		return attempt, err
	}
	if err := s.load(ctx, attempt); err != nil {
		return attempt, err
	}
	s.log.Info().Str("attempt", attempt.ID()).Msg("attempt recovered after retry")
	return attempt, nil
}

func (s *AssessmentService) load(ctx context.Context, attempt *Attempt) error {
	set, err := s.questions.GetQuestionSet(ctx, attempt.SetID())
	if err != nil {
		attempt.fail()
		s.log.Warn().Err(err).Str("attempt", attempt.ID()).Str("set", attempt.SetID()).Msg("question set load failed")
		return err
	}
	return attempt.initialize(set.Questions)
}

// SelectOption records an answer on the displayed question.
func (s *AssessmentService) SelectOption(attemptID, questionID, optionID string) (domain.Summary, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.Summary{}, domain.ErrAttemptNotFound
	}
	return attempt.SelectOption(questionID, optionID)
}

// JumpToQuestion points the display at the named question.
func (s *AssessmentService) JumpToQuestion(attemptID, questionID string) (domain.Summary, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.Summary{}, domain.ErrAttemptNotFound
	}
	return attempt.JumpTo(questionID)
}

// Advance moves linear navigation past the displayed question.
func (s *AssessmentService) Advance(attemptID string) (domain.Summary, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.Summary{}, domain.ErrAttemptNotFound
	}
	return attempt.Advance()
}

// Submit finalizes the attempt and returns the results handoff.
func (s *AssessmentService) Submit(attemptID string) (domain.SubmittedResult, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.SubmittedResult{}, domain.ErrAttemptNotFound
	}
	result, err := attempt.Submit()
	if err != nil {
		return domain.SubmittedResult{}, err
	}
	s.log.Info().Str("attempt", attemptID).Int("score", result.Score).Msg("attempt submitted")
	return result, nil
}

// Subscribe returns a channel receiving summary updates for an attempt.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AssessmentService) Subscribe(attemptID string) (<-chan Update, func(), error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, nil, domain.ErrAttemptNotFound
	}
	ch, cancel := attempt.Subscribe()
	return ch, cancel, nil
}

// Attempt looks up a live attempt by ID.
func (s *AssessmentService) Attempt(attemptID string) (*Attempt, bool) {
	return s.attempts.Get(attemptID)
}

// Abandon disposes of an attempt on external teardown (e.g. the client
// disconnected), cancelling its countdown so no tick fires afterwards.
func (s *AssessmentService) Abandon(attemptID string) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return
	}
	attempt.teardown()
	s.attempts.Delete(attemptID)
}
