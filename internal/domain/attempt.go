package domain

import (
	"context"
	"time"
)

// Attempt is the single latest outcome recorded for one question ID.
type Attempt struct {
	QuestionID    string
	IsCorrect     bool
	LastAnswer    *string // nil when the question was left unanswered
	CorrectAnswer string  // snapshot taken at grading time
	AttemptedAt   time.Time
}

// AttemptRepository is the persistent attempt store. Every write is an
// upsert keyed by question ID, so at most one row exists per question.
type AttemptRepository interface {
	LoadAll(ctx context.Context) (map[string]Attempt, error)
	Upsert(ctx context.Context, attempt Attempt) error
	// UpsertBatch commits every attempt or none of them.
	UpsertBatch(ctx context.Context, attempts []Attempt) error
	// ResetAll deletes every attempt. Only explicit user actions may call it.
	ResetAll(ctx context.Context) error
	ListWrong(ctx context.Context) ([]Attempt, error)
}

// TransactionManager runs fn inside a single storage transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// WrongAnswerNote is one entry of the wrong-answer notebook. Question is nil
// when the attempt refers to a question no longer present in the bank.
type WrongAnswerNote struct {
	Attempt  Attempt
	Question *Question
}

// Progress summarises the attempt history against the loaded bank.
type Progress struct {
	BankTotal      int
	Attempted      int
	Correct        int
	Wrong          int
	FreshRemaining int
	Accuracy       float64
}
