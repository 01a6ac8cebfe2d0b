package repository

import (
	"context"
	"time"

	"quiz-review/internal/domain"
	"quiz-review/internal/repository/models"
	"quiz-review/internal/util"

	"github.com/jmoiron/sqlx"
)

const (
	selectAttemptsQuery = `SELECT qid, is_correct, last_answer, correct_answer, attempted_at FROM attempts`

	upsertAttemptQuery = `INSERT INTO attempts (qid, is_correct, last_answer, correct_answer, attempted_at)
VALUES (:qid, :is_correct, :last_answer, :correct_answer, :attempted_at)
ON CONFLICT(qid) DO UPDATE SET
	is_correct = excluded.is_correct,
	last_answer = excluded.last_answer,
	correct_answer = excluded.correct_answer,
	attempted_at = excluded.attempted_at`
)

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db *sqlx.DB
	tx domain.TransactionManager
}

// NewSQLXAttemptRepository creates a new instance of sqlxAttemptRepository.
func NewSQLXAttemptRepository(db *sqlx.DB) domain.AttemptRepository {
	return &sqlxAttemptRepository{db: db, tx: NewTransactionManagerAdapter(db)}
}

func toDomainAttempt(m models.Attempt) domain.Attempt {
	return domain.Attempt{
		QuestionID:    m.QuestionID,
		IsCorrect:     m.IsCorrect,
		LastAnswer:    util.NullStringToStringPtr(m.LastAnswer),
		CorrectAnswer: m.CorrectAnswer,
		AttemptedAt:   util.UnixToTime(m.AttemptedAt),
	}
}

func fromDomainAttempt(a domain.Attempt) models.Attempt {
	attemptedAt := a.AttemptedAt
	if attemptedAt.IsZero() {
		attemptedAt = time.Now()
	}
	return models.Attempt{
		QuestionID:    a.QuestionID,
		IsCorrect:     a.IsCorrect,
		LastAnswer:    util.StringPtrToNullString(a.LastAnswer),
		CorrectAnswer: a.CorrectAnswer,
		AttemptedAt:   util.TimeToUnix(attemptedAt),
	}
}

func (r *sqlxAttemptRepository) LoadAll(ctx context.Context) (map[string]domain.Attempt, error) {
	var rows []models.Attempt
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, selectAttemptsQuery); err != nil {
		return nil, domain.NewStorageError("load", err)
	}

	attempts := make(map[string]domain.Attempt, len(rows))
	for _, row := range rows {
		attempts[row.QuestionID] = toDomainAttempt(row)
	}
	return attempts, nil
}

func (r *sqlxAttemptRepository) Upsert(ctx context.Context, attempt domain.Attempt) error {
	if attempt.QuestionID == "" {
		return domain.NewInvalidInputError("attempt has no question id")
	}
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, upsertAttemptQuery, fromDomainAttempt(attempt)); err != nil {
		return domain.NewStorageError("upsert", err).WithContext("question_id", attempt.QuestionID)
	}
	return nil
}

func (r *sqlxAttemptRepository) UpsertBatch(ctx context.Context, attempts []domain.Attempt) error {
	if len(attempts) == 0 {
		return nil
	}
	err := r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, attempt := range attempts {
			if err := r.Upsert(txCtx, attempt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if domain.IsStorageError(err) || domain.CodeOf(err) == domain.CodeInvalidInput {
			return err
		}
		return domain.NewStorageError("upsert batch", err)
	}
	return nil
}

func (r *sqlxAttemptRepository) ResetAll(ctx context.Context) error {
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM attempts`); err != nil {
		return domain.NewStorageError("reset", err)
	}
	return nil
}

func (r *sqlxAttemptRepository) ListWrong(ctx context.Context) ([]domain.Attempt, error) {
	var rows []models.Attempt
	query := selectAttemptsQuery + ` WHERE is_correct = 0 ORDER BY qid`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query); err != nil {
		return nil, domain.NewStorageError("list wrong", err)
	}

	attempts := make([]domain.Attempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, toDomainAttempt(row))
	}
	return attempts, nil
}
