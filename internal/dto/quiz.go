package dto

import (
	"errors"
	"time"

	"quiz-review/internal/domain"
)

// ProgressResponse is the machine-readable form of `quiz stats`.
type ProgressResponse struct {
	BankTotal      int     `json:"bank_total"`
	Attempted      int     `json:"attempted"`
	Correct        int     `json:"correct"`
	Wrong          int     `json:"wrong"`
	FreshRemaining int     `json:"fresh_remaining"`
	Accuracy       float64 `json:"accuracy"` // percentage of attempted questions answered correctly
}

// WrongAnswerResponse is one wrong-answer notebook entry.
type WrongAnswerResponse struct {
	ID            string     `json:"id"`
	Question      string     `json:"question,omitempty"` // empty when the question left the bank
	Choices       []string   `json:"choices,omitempty"`
	UserAnswer    *string    `json:"user_answer"`
	CorrectAnswer string     `json:"correct_answer"`
	Explanation   string     `json:"explanation,omitempty"`
	AttemptedAt   *time.Time `json:"attempted_at,omitempty"`
	InBank        bool       `json:"in_bank"`
}

// ScoreResponse summarises a submitted round.
type ScoreResponse struct {
	SessionID string                `json:"session_id"`
	Correct   int                   `json:"correct"`
	Total     int                   `json:"total"`
	Score     float64               `json:"score"`
	Wrong     []WrongAnswerResponse `json:"wrong"`
}

// ErrorResponse is what a failed command prints to stderr in --json mode.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func NewProgressResponse(p *domain.Progress) ProgressResponse {
	return ProgressResponse{
		BankTotal:      p.BankTotal,
		Attempted:      p.Attempted,
		Correct:        p.Correct,
		Wrong:          p.Wrong,
		FreshRemaining: p.FreshRemaining,
		Accuracy:       p.Accuracy,
	}
}

func NewWrongAnswerResponses(notes []domain.WrongAnswerNote) []WrongAnswerResponse {
	out := make([]WrongAnswerResponse, 0, len(notes))
	for _, note := range notes {
		resp := WrongAnswerResponse{
			ID:            note.Attempt.QuestionID,
			UserAnswer:    note.Attempt.LastAnswer,
			CorrectAnswer: note.Attempt.CorrectAnswer,
		}
		if !note.Attempt.AttemptedAt.IsZero() {
			at := note.Attempt.AttemptedAt
			resp.AttemptedAt = &at
		}
		if q := note.Question; q != nil {
			resp.InBank = true
			resp.Question = q.Text
			resp.Choices = q.Choices
			resp.Explanation = q.Explanation
		}
		out = append(out, resp)
	}
	return out
}

func NewScoreResponse(r *domain.ScoreResult) ScoreResponse {
	wrong := make([]WrongAnswerResponse, 0, len(r.WrongList))
	for _, w := range r.WrongList {
		wrong = append(wrong, WrongAnswerResponse{
			ID:            w.Question.ID,
			Question:      w.Question.Text,
			Choices:       w.Question.Choices,
			UserAnswer:    w.UserAnswer,
			CorrectAnswer: w.Question.CorrectAnswer,
			Explanation:   w.Question.Explanation,
			InBank:        true,
		})
	}
	return ScoreResponse{
		SessionID: r.SessionID,
		Correct:   r.Correct,
		Total:     r.Total,
		Score:     r.Score,
		Wrong:     wrong,
	}
}

// NewErrorResponse flattens err. Message is the full error text, cause
// included; errors outside the domain taxonomy report INTERNAL_ERROR.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Code:    string(domain.CodeOf(err)),
		Message: err.Error(),
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) && len(domainErr.Context) > 0 {
		resp.Details = domainErr.Context
	}
	return resp
}
