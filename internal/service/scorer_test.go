package service

import (
	"context"
	"errors"
	"testing"

	"quiz-review/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func twoQuestionSession(t *testing.T) *domain.QuizSession {
	t.Helper()
	session := domain.NewQuizSession()
	require.NoError(t, session.Start([]domain.Question{
		{ID: "Q0001", Number: 1, Text: "first", Choices: []string{"A", "B", "C"}, CorrectAnswer: "B", Explanation: "B is right"},
		{ID: "Q0002", Number: 2, Text: "second", Choices: []string{"A", "B", "C"}, CorrectAnswer: "A"},
	}))
	return session
}

func TestScorer_Grade_Deterministic(t *testing.T) {
	repo := new(MockAttemptRepository)
	scorer := NewScorer(repo)
	session := twoQuestionSession(t)
	require.NoError(t, session.SetAnswer("Q0001", "B"))
	require.NoError(t, session.SetAnswer("Q0002", "C"))

	repo.On("UpsertBatch", mock.Anything, mock.MatchedBy(func(attempts []domain.Attempt) bool {
		return len(attempts) == 2 &&
			attempts[0].QuestionID == "Q0001" && attempts[0].IsCorrect &&
			attempts[1].QuestionID == "Q0002" && !attempts[1].IsCorrect &&
			*attempts[1].LastAnswer == "C" && attempts[1].CorrectAnswer == "A"
	})).Return(nil).Once()

	result, err := scorer.Grade(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 50.0, result.Score)
	require.Len(t, result.WrongList, 1)
	assert.Equal(t, "Q0002", result.WrongList[0].Question.ID)
	require.NotNil(t, result.WrongList[0].UserAnswer)
	assert.Equal(t, "C", *result.WrongList[0].UserAnswer)
	assert.Equal(t, session.ID(), result.SessionID)
	assert.True(t, session.Submitted())
	repo.AssertExpectations(t)
}

func TestScorer_Grade_UnansweredIsWrong(t *testing.T) {
	repo := new(MockAttemptRepository)
	session := twoQuestionSession(t)
	require.NoError(t, session.SetAnswer("Q0002", "A"))

	var persisted []domain.Attempt
	repo.On("UpsertBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		persisted = args.Get(1).([]domain.Attempt)
	}).Return(nil)

	result, err := NewScorer(repo).Grade(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Score)
	require.Len(t, result.WrongList, 1)
	assert.Nil(t, result.WrongList[0].UserAnswer)
	assert.Equal(t, "B is right", result.WrongList[0].Question.Explanation)

	require.Len(t, persisted, 2)
	assert.Nil(t, persisted[0].LastAnswer)
	assert.False(t, persisted[0].IsCorrect)
	assert.Equal(t, persisted[0].AttemptedAt, persisted[1].AttemptedAt)
}

func TestScorer_Grade_ScoreRounding(t *testing.T) {
	repo := new(MockAttemptRepository)
	repo.On("UpsertBatch", mock.Anything, mock.Anything).Return(nil)

	session := domain.NewQuizSession()
	require.NoError(t, session.Start([]domain.Question{
		{ID: "Q0001", Choices: []string{"x", "y"}, CorrectAnswer: "x"},
		{ID: "Q0002", Choices: []string{"x", "y"}, CorrectAnswer: "x"},
		{ID: "Q0003", Choices: []string{"x", "y"}, CorrectAnswer: "x"},
	}))
	require.NoError(t, session.SetAnswer("Q0001", "x"))
	require.NoError(t, session.SetAnswer("Q0002", "x"))
	require.NoError(t, session.SetAnswer("Q0003", "y"))

	result, err := NewScorer(repo).Grade(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 66.7, result.Score)
}

func TestScorer_Grade_PersistFailureKeepsSessionActive(t *testing.T) {
	repo := new(MockAttemptRepository)
	session := twoQuestionSession(t)
	require.NoError(t, session.SetAnswer("Q0001", "B"))

	repo.On("UpsertBatch", mock.Anything, mock.Anything).
		Return(domain.NewStorageError("upsert batch", errors.New("database is locked"))).Once()

	result, err := NewScorer(repo).Grade(context.Background(), session)
	assert.Nil(t, result)
	assert.True(t, domain.IsStorageError(err))
	assert.Equal(t, domain.SessionActive, session.State())

	// the same round can be retried once storage recovers
	repo.On("UpsertBatch", mock.Anything, mock.Anything).Return(nil).Once()
	result, err = NewScorer(repo).Grade(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Score)
	assert.Equal(t, domain.SessionGraded, session.State())
}

func TestScorer_Grade_WrapsUntypedErrors(t *testing.T) {
	repo := new(MockAttemptRepository)
	repo.On("UpsertBatch", mock.Anything, mock.Anything).Return(errors.New("boom"))

	_, err := NewScorer(repo).Grade(context.Background(), twoQuestionSession(t))
	assert.True(t, domain.IsStorageError(err))
}

func TestScorer_Grade_RejectsNonActiveSessions(t *testing.T) {
	repo := new(MockAttemptRepository)
	scorer := NewScorer(repo)

	_, err := scorer.Grade(context.Background(), domain.NewQuizSession())
	assert.Equal(t, domain.CodeSessionState, domain.CodeOf(err))

	repo.On("UpsertBatch", mock.Anything, mock.Anything).Return(nil).Once()
	session := twoQuestionSession(t)
	_, err = scorer.Grade(context.Background(), session)
	require.NoError(t, err)

	_, err = scorer.Grade(context.Background(), session)
	assert.Equal(t, domain.CodeSessionState, domain.CodeOf(err))
	repo.AssertNumberOfCalls(t, "UpsertBatch", 1)

	_, err = scorer.Grade(context.Background(), nil)
	assert.Equal(t, domain.CodeInvalidInput, domain.CodeOf(err))
}
