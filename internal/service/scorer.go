package service

import (
	"context"
	"time"

	"quiz-review/internal/domain"
	"quiz-review/internal/logger"
	"quiz-review/internal/util"

	"go.uber.org/zap"
)

// Scorer grades an active session and persists one attempt per question.
type Scorer struct {
	repo domain.AttemptRepository
	now  func() time.Time
}

func NewScorer(repo domain.AttemptRepository) *Scorer {
	return &Scorer{repo: repo, now: time.Now}
}

// Grade compares each answer with the correct choice by exact text. The
// batch is written before the session is marked graded; if the write fails
// the session stays active and no result is returned.
func (s *Scorer) Grade(ctx context.Context, session *domain.QuizSession) (*domain.ScoreResult, error) {
	if session == nil {
		return nil, domain.NewInvalidInputError("no session to grade")
	}
	if session.State() != domain.SessionActive {
		return nil, domain.NewSessionStateError(session.State(), "grade")
	}
	picks := session.Picks()
	if len(picks) == 0 {
		return nil, domain.NewInvalidInputError("session has no questions")
	}

	attemptedAt := s.now()
	attempts := make([]domain.Attempt, 0, len(picks))
	wrong := make([]domain.WrongAnswer, 0)
	correct := 0

	for _, q := range picks {
		var userAnswer *string
		if answer, ok := session.Answer(q.ID); ok {
			a := answer
			userAnswer = &a
		}

		isCorrect := userAnswer != nil && *userAnswer == q.CorrectAnswer
		if isCorrect {
			correct++
		} else {
			wrong = append(wrong, domain.WrongAnswer{Question: q, UserAnswer: userAnswer})
		}

		attempts = append(attempts, domain.Attempt{
			QuestionID:    q.ID,
			IsCorrect:     isCorrect,
			LastAnswer:    userAnswer,
			CorrectAnswer: q.CorrectAnswer,
			AttemptedAt:   attemptedAt,
		})
	}

	if err := s.repo.UpsertBatch(ctx, attempts); err != nil {
		logger.Get().Error("Failed to persist graded round",
			zap.String("session_id", session.ID()),
			zap.Int("attempts", len(attempts)),
			zap.Error(err))
		if domain.IsStorageError(err) {
			return nil, err
		}
		return nil, domain.NewStorageError("upsert batch", err)
	}

	if err := session.MarkGraded(); err != nil {
		return nil, err
	}

	result := &domain.ScoreResult{
		SessionID: session.ID(),
		Correct:   correct,
		Total:     len(picks),
		Score:     util.Percentage(correct, len(picks)),
		WrongList: wrong,
	}
	logger.Get().Info("Graded round",
		zap.String("session_id", result.SessionID),
		zap.Int("correct", result.Correct),
		zap.Int("total", result.Total),
		zap.Float64("score", result.Score))
	return result, nil
}
