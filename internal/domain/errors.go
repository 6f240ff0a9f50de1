package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an operation is invoked outside its
	// valid lifecycle state (e.g. selecting after submission).
	ErrInvalidState = errors.New("operation not valid in current lifecycle state")
	// ErrInvalidSelection is returned when an option does not belong to the
	// question being answered, or the question is not the one displayed.
	ErrInvalidSelection = errors.New("selection does not match displayed question")
	// ErrQuestionNotFound indicates a jump target outside the question set.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSetNotFound indicates the question set could not be located.
	ErrSetNotFound = errors.New("question set not found")
	// ErrAttemptNotFound is returned when an attempt ID is unknown.
	ErrAttemptNotFound = errors.New("attempt not found")
)

// FetchError reports a failed question-set load (network failure or
// non-success response). It is the only error surfaced to the user; recovery
// is a user-initiated retry.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch question set %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch question set %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
