package app

import (
	"fmt"

	"nxt-assess-service/internal/domain"
)

// Project derives the summary panel from an attempt snapshot without touching
// it. Answered and unanswered counts both derive from the selections map, so
// they always sum to the question count.
func Project(s Snapshot) domain.Summary {
	marks := make([]domain.QuestionMark, 0, len(s.Questions))
	answered := 0
	for _, q := range s.Questions {
		_, ok := s.Selections[q.ID]
		if ok {
			answered++
		}
		marks = append(marks, domain.QuestionMark{QuestionID: q.ID, Answered: ok})
	}
	return domain.Summary{
		AnsweredCount:   answered,
		UnansweredCount: len(s.Questions) - answered,
		Questions:       marks,
		TimeLeft:        FormatClock(s.RemainingSeconds),
	}
}

// FormatClock renders seconds as zero-padded HH:MM:SS. Hours are not capped
// at 24.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
