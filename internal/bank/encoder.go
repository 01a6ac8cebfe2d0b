package bank

import (
	"encoding/json"
	"fmt"

	"quiz-review/internal/domain"
)

type rawQuestion struct {
	ID          int      `json:"id"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// Encode writes questions back to the raw JSON bank format. Loading the
// output yields the same questions.
func Encode(questions []domain.Question) ([]byte, error) {
	raws := make([]rawQuestion, 0, len(questions))
	for _, q := range questions {
		answer := q.CorrectIndex()
		if answer < 0 {
			return nil, domain.NewValidationError(
				fmt.Sprintf("question %s: correct answer is not one of its choices", q.ID), nil).
				WithContext("id", q.ID)
		}
		raws = append(raws, rawQuestion{
			ID:          q.Number,
			Question:    q.Text,
			Options:     q.Choices,
			Answer:      answer,
			Explanation: q.Explanation,
		})
	}
	return json.MarshalIndent(raws, "", "  ")
}
