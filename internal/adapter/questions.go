// Package adapter normalizes the upstream question-set contract into domain
// values. Both the remote HTTP source and the Postgres loader store the raw
// contract shape and funnel it through here.
package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"nxt-assess-service/internal/domain"
)

// rawSet mirrors the inbound snake_case contract.
type rawSet struct {
	Questions []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	ID          string      `json:"id"`
	QuestionTxt string      `json:"question_text"`
	OptionsType string      `json:"options_type"`
	Options     []rawOption `json:"options"`
}

type rawOption struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsCorrect looseBool `json:"is_correct"`
	ImageURL  string    `json:"image_url"`
}

// looseBool accepts the upstream's mix of JSON booleans and the strings
// "true"/"false".
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true", `"true"`:
		*b = true
	case "false", `"false"`, "null", `""`:
		*b = false
	default:
		return fmt.Errorf("invalid is_correct value: %s", data)
	}
	return nil
}

// ParseSet decodes a raw question-set payload into the domain shape.
// setID labels the result; the upstream payload carries no set identifier.
func ParseSet(setID string, data []byte) (domain.QuestionSet, error) {
	var raw rawSet
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("decode question set: %w", err)
	}
	return domain.QuestionSet{ID: setID, Questions: normalize(raw.Questions)}, nil
}

func normalize(raw []rawQuestion) []domain.Question {
	questions := make([]domain.Question, 0, len(raw))
	for _, rq := range raw {
		options := make([]domain.Option, 0, len(rq.Options))
		for _, ro := range rq.Options {
			options = append(options, domain.Option{
				ID:       ro.ID,
				Text:     ro.Text,
				Correct:  bool(ro.IsCorrect),
				ImageURL: ro.ImageURL,
			})
		}
		questions = append(questions, domain.Question{
			ID:      rq.ID,
			Text:    rq.QuestionTxt,
			Kind:    optionsKind(rq.OptionsType),
			Options: options,
		})
	}
	return questions
}

func optionsKind(raw string) domain.OptionsKind {
	switch domain.OptionsKind(raw) {
	case domain.OptionsImage:
		return domain.OptionsImage
	case domain.OptionsSingleSelect:
		return domain.OptionsSingleSelect
	default:
		return domain.OptionsDefault
	}
}
