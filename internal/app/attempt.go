package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"nxt-assess-service/internal/domain"
)

// Update is pushed to subscribers on every state change and every tick.
// TimedOut is set only on the transition into LifecycleTimedOut; it is the
// handoff payload for that terminal state.
type Update struct {
	Lifecycle domain.Lifecycle       `json:"lifecycle"`
	Summary   domain.Summary         `json:"summary"`
	TimedOut  *domain.TimedOutResult `json:"timedOut,omitempty"`
}

// Snapshot is a read-only copy of attempt state handed to the projector and
// to renderers. JumpIndex is -1 when no jump is active.
type Snapshot struct {
	Lifecycle        domain.Lifecycle
	Questions        []domain.Question
	CurrentIndex     int
	JumpIndex        int
	Selections       map[string]string
	Score            int
	RemainingSeconds int
}

// DisplayIndex resolves the question shown to the user: the jump target when
// a jump is active, the linear position otherwise.
func (s Snapshot) DisplayIndex() int {
	if s.JumpIndex >= 0 {
		return s.JumpIndex
	}
	return s.CurrentIndex
}

// Attempt is one user's run at an assessment: the single owner of all
// navigation, selection, scoring, and lifecycle state. All mutation happens
// under its lock; the timer goroutine and transport readers never touch the
// fields directly.
type Attempt struct {
	id        string
	setID     string
	createdAt time.Time
	now       func() time.Time
	timer     Countdown
	budget    int

	mu          sync.RWMutex
	lifecycle   domain.Lifecycle
	questions   []domain.Question
	index       int
	jump        int
	selections  map[string]string
	scored      map[string]struct{}
	score       int
	remaining   int
	subscribers map[chan Update]struct{}
}

// NewAttempt is exported for infrastructure layers and tests that need to
// seed attempts directly; the service normally creates them via Start.
func NewAttempt(setID string, budgetSeconds int, timer Countdown) *Attempt {
	return NewAttemptWithClock(setID, budgetSeconds, timer, time.Now)
}

// NewAttemptWithClock allows deterministic timestamps in tests.
func NewAttemptWithClock(setID string, budgetSeconds int, timer Countdown, now func() time.Time) *Attempt {
	return &Attempt{
		id:          uuid.NewString(),
		setID:       setID,
		createdAt:   now(),
		now:         now,
		timer:       timer,
		budget:      budgetSeconds,
		lifecycle:   domain.LifecycleLoading,
		jump:        -1,
		remaining:   budgetSeconds,
		selections:  make(map[string]string),
		scored:      make(map[string]struct{}),
		subscribers: make(map[chan Update]struct{}),
	}
}

// ID returns the attempt identifier minted at creation.
func (a *Attempt) ID() string { return a.id }

// SetID returns the question set this attempt runs against.
func (a *Attempt) SetID() string { return a.setID }

// Lifecycle returns the current lifecycle state.
func (a *Attempt) Lifecycle() domain.Lifecycle {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lifecycle
}

// Snapshot returns a read-only copy of the attempt state.
func (a *Attempt) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

func (a *Attempt) snapshotLocked() Snapshot {
	selections := make(map[string]string, len(a.selections))
	for k, v := range a.selections {
		selections[k] = v
	}
	return Snapshot{
		Lifecycle:        a.lifecycle,
		Questions:        a.questions,
		CurrentIndex:     a.index,
		JumpIndex:        a.jump,
		Selections:       selections,
		Score:            a.score,
		RemainingSeconds: a.remaining,
	}
}

// initialize installs the loaded questions, moves Loading to Ready, and
// starts the countdown.
func (a *Attempt) initialize(questions []domain.Question) error {
	a.mu.Lock()
	if a.lifecycle != domain.LifecycleLoading {
		a.mu.Unlock()
		return domain.ErrInvalidState
	}
	a.questions = questions
	a.index = 0
	a.jump = -1
	a.selections = make(map[string]string)
	a.scored = make(map[string]struct{})
	a.score = 0
	a.remaining = a.budget
	a.lifecycle = domain.LifecycleReady
	a.broadcastLocked(nil)
	a.mu.Unlock()

	a.timer.Start(a.budget, a.tick, a.expire)
	return nil
}

// fail marks a load failure. Recoverable only via reload.
func (a *Attempt) fail() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lifecycle != domain.LifecycleLoading {
		return
	}
	a.lifecycle = domain.LifecycleFailed
	a.broadcastLocked(nil)
}

// reload moves Failed back to Loading ahead of a user-triggered retry.
func (a *Attempt) reload() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lifecycle != domain.LifecycleFailed {
		return domain.ErrInvalidState
	}
	a.lifecycle = domain.LifecycleLoading
	a.broadcastLocked(nil)
	return nil
}

// SelectOption records the user's choice for the displayed question. The
// question must be the one on display and the option must belong to it.
// Scoring is first-correct-wins: a question contributes to the score at most
// once, and a later selection never decrements it.
func (a *Attempt) SelectOption(questionID, optionID string) (domain.Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lifecycle != domain.LifecycleReady {
		return domain.Summary{}, domain.ErrInvalidState
	}

	if len(a.questions) == 0 {
		return domain.Summary{}, domain.ErrInvalidSelection
	}
	question := a.questions[a.displayIndexLocked()]
	if question.ID != questionID {
		return domain.Summary{}, domain.ErrInvalidSelection
	}
	var selected *domain.Option
	for i := range question.Options {
		if question.Options[i].ID == optionID {
			selected = &question.Options[i]
			break
		}
	}
	if selected == nil {
		return domain.Summary{}, domain.ErrInvalidSelection
	}

	a.selections[questionID] = optionID
	if selected.Correct {
		if _, counted := a.scored[questionID]; !counted {
			a.scored[questionID] = struct{}{}
			a.score++
		}
	}
	return a.broadcastLocked(nil), nil
}

// JumpTo points the display at the named question without moving the linear
// position. The jump stays active until the next successful advance.
func (a *Attempt) JumpTo(questionID string) (domain.Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lifecycle != domain.LifecycleReady {
		return domain.Summary{}, domain.ErrInvalidState
	}
	for i := range a.questions {
		if a.questions[i].ID == questionID {
			a.jump = i
			return a.broadcastLocked(nil), nil
		}
	}
	return domain.Summary{}, domain.ErrQuestionNotFound
}

// Advance moves the linear position to the question after the displayed one
// and clears any active jump. On the last question navigation is a no-op.
func (a *Attempt) Advance() (domain.Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lifecycle != domain.LifecycleReady {
		return domain.Summary{}, domain.ErrInvalidState
	}
	displayed := a.displayIndexLocked()
	if displayed < len(a.questions)-1 {
		a.index = displayed + 1
		a.jump = -1
	}
	return a.broadcastLocked(nil), nil
}

// Submit ends the attempt, cancels the countdown, and returns the handoff
// payload for the results view. Submission wins any race with expiry.
func (a *Attempt) Submit() (domain.SubmittedResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lifecycle != domain.LifecycleReady {
		return domain.SubmittedResult{}, domain.ErrInvalidState
	}
	a.timer.Cancel()
	a.lifecycle = domain.LifecycleSubmitted
	a.broadcastLocked(nil)
	return domain.SubmittedResult{
		Score:    a.score,
		TimeLeft: FormatClock(a.remaining),
	}, nil
}

// tick records the countdown's remaining seconds. Ticks landing after the
// attempt left Ready are dropped.
func (a *Attempt) tick(remaining int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lifecycle != domain.LifecycleReady {
		return
	}
	if remaining < a.remaining {
		a.remaining = remaining
	}
	a.broadcastLocked(nil)
}

// expire handles countdown exhaustion. A no-op unless the attempt is still
// Ready, so a submission that raced in first stays Submitted.
func (a *Attempt) expire() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lifecycle != domain.LifecycleReady {
		return
	}
	a.timer.Cancel()
	a.remaining = 0
	a.lifecycle = domain.LifecycleTimedOut
	a.broadcastLocked(&domain.TimedOutResult{TimedOut: true})
}

// teardown cancels the countdown on external disposal of the attempt.
func (a *Attempt) teardown() {
	a.timer.Cancel()
}

func (a *Attempt) displayIndexLocked() int {
	if a.jump >= 0 {
		return a.jump
	}
	return a.index
}

// Subscribe returns a channel receiving an initial update and then one update
// per state change or tick. The caller must invoke cancel to avoid leaks.
func (a *Attempt) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 8)

	a.mu.Lock()
	a.subscribers[ch] = struct{}{}
	initial := Update{Lifecycle: a.lifecycle, Summary: Project(a.snapshotLocked())}
	a.mu.Unlock()

	ch <- initial

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) broadcastLocked(timedOut *domain.TimedOutResult) domain.Summary {
	summary := Project(a.snapshotLocked())
	update := Update{Lifecycle: a.lifecycle, Summary: summary, TimedOut: timedOut}
	for ch := range a.subscribers {
		select {
		case ch <- update:
		default:
			// Drop the oldest pending update so a slow reader never blocks
			// the state machine.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
	return summary
}
