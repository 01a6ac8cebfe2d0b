package domain

import "fmt"

// Question is a validated bank entry. Values are never mutated after the
// bank is loaded; callers must treat Choices as read-only.
type Question struct {
	ID            string   `json:"id"`
	Number        int      `json:"number"`
	Text          string   `json:"text"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// FormatQuestionID renders the fixed-width token used for display and as
// the attempt store key.
func FormatQuestionID(number int) string {
	return fmt.Sprintf("Q%04d", number)
}

// HasChoice reports whether text is exactly one of the question's choices.
func (q Question) HasChoice(text string) bool {
	for _, choice := range q.Choices {
		if choice == text {
			return true
		}
	}
	return false
}

// CorrectIndex returns the position of CorrectAnswer in Choices, or -1.
func (q Question) CorrectIndex() int {
	for i, choice := range q.Choices {
		if choice == q.CorrectAnswer {
			return i
		}
	}
	return -1
}
