package domain

// OptionsKind describes how a question's options are presented.
type OptionsKind string

const (
	OptionsDefault      OptionsKind = "DEFAULT"
	OptionsImage        OptionsKind = "IMAGE"
	OptionsSingleSelect OptionsKind = "SINGLE_SELECT"
)

// Lifecycle is the attempt's state machine position.
type Lifecycle string

const (
	LifecycleLoading   Lifecycle = "LOADING"
	LifecycleReady     Lifecycle = "READY"
	LifecycleTimedOut  Lifecycle = "TIMED_OUT"
	LifecycleSubmitted Lifecycle = "SUBMITTED"
	LifecycleFailed    Lifecycle = "FAILED"
)

// Terminal reports whether the lifecycle permits no further mutation.
func (l Lifecycle) Terminal() bool {
	return l == LifecycleTimedOut || l == LifecycleSubmitted
}

// Option represents a possible answer for a question.
type Option struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Correct  bool   `json:"correct"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Question models an assessment question. At most one option is expected to
// be correct; scoring counts a question once regardless.
type Question struct {
	ID      string      `json:"id"`
	Text    string      `json:"text"`
	Kind    OptionsKind `json:"kind"`
	Options []Option    `json:"options"`
}

// QuestionSet is the fixed, ordered question list for one assessment.
type QuestionSet struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// QuestionMark flags one question as answered or not in the summary panel.
type QuestionMark struct {
	QuestionID string `json:"questionId"`
	Answered   bool   `json:"answered"`
}

// Summary is the display-ready projection of an attempt.
type Summary struct {
	AnsweredCount   int            `json:"answeredCount"`
	UnansweredCount int            `json:"unansweredCount"`
	Questions       []QuestionMark `json:"questions"`
	TimeLeft        string         `json:"timeLeft"`
}

// SubmittedResult is the handoff payload when the user submits.
type SubmittedResult struct {
	Score    int    `json:"score"`
	TimeLeft string `json:"timeLeft"`
}

// TimedOutResult is the handoff payload when the countdown expires.
type TimedOutResult struct {
	TimedOut bool `json:"timedOut"`
}
