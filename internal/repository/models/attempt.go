package models

import "database/sql"

// Attempt is one row of the attempts table. AttemptedAt is stored as Unix
// seconds.
type Attempt struct {
	QuestionID    string         `db:"qid"`
	IsCorrect     bool           `db:"is_correct"`
	LastAnswer    sql.NullString `db:"last_answer"`    // NULL when unanswered
	CorrectAnswer string         `db:"correct_answer"` // snapshot at grading time
	AttemptedAt   int64          `db:"attempted_at"`
}
