package domain

import (
	"fmt"
	"time"

	"quiz-review/internal/util"
)

// SessionState is the lifecycle position of a QuizSession.
type SessionState string

const (
	SessionEmpty  SessionState = "empty"
	SessionActive SessionState = "active"
	SessionGraded SessionState = "graded"
)

// QuizSession holds one round: the picked questions and the answers chosen
// so far. It is owned by a single caller and is not safe for concurrent use.
//
// Transitions: empty -> active (Start), active -> graded (MarkGraded),
// graded -> active (Start). Start from active discards the unsubmitted round.
type QuizSession struct {
	id        string
	state     SessionState
	picks     []Question
	index     map[string]int
	answers   map[string]string
	startedAt time.Time
}

// NewQuizSession creates a session in the empty state.
func NewQuizSession() *QuizSession {
	return &QuizSession{
		state:   SessionEmpty,
		index:   map[string]int{},
		answers: map[string]string{},
	}
}

// Start replaces any previous round with picks and clears all answers.
func (s *QuizSession) Start(picks []Question) error {
	if len(picks) == 0 {
		return NewInvalidInputError("cannot start a session without questions")
	}

	index := make(map[string]int, len(picks))
	for i, q := range picks {
		if _, dup := index[q.ID]; dup {
			return NewInvalidInputError(fmt.Sprintf("question %s picked twice", q.ID))
		}
		index[q.ID] = i
	}

	s.id = util.NewULID()
	s.state = SessionActive
	s.picks = append([]Question(nil), picks...)
	s.index = index
	s.answers = make(map[string]string, len(picks))
	s.startedAt = time.Now()
	return nil
}

// SetAnswer records or overwrites the selected choice for questionID.
func (s *QuizSession) SetAnswer(questionID, choiceText string) error {
	if s.state != SessionActive {
		return NewSessionStateError(s.state, "answer")
	}
	i, ok := s.index[questionID]
	if !ok {
		return NewInvalidInputError(fmt.Sprintf("question %s is not part of this session", questionID)).
			WithContext("question_id", questionID)
	}
	if !s.picks[i].HasChoice(choiceText) {
		return NewInvalidAnswerError(fmt.Sprintf("%q is not a choice of question %s", choiceText, questionID)).
			WithContext("question_id", questionID)
	}
	s.answers[questionID] = choiceText
	return nil
}

// Answer returns the current selection for questionID.
func (s *QuizSession) Answer(questionID string) (string, bool) {
	answer, ok := s.answers[questionID]
	return answer, ok
}

// IsComplete is informational; unanswered questions may still be submitted.
func (s *QuizSession) IsComplete() bool {
	if len(s.picks) == 0 {
		return false
	}
	for _, q := range s.picks {
		if _, ok := s.answers[q.ID]; !ok {
			return false
		}
	}
	return true
}

// MarkGraded closes the round. Callers must persist results first.
func (s *QuizSession) MarkGraded() error {
	if s.state != SessionActive {
		return NewSessionStateError(s.state, "grade")
	}
	s.state = SessionGraded
	return nil
}

func (s *QuizSession) ID() string           { return s.id }
func (s *QuizSession) State() SessionState  { return s.state }
func (s *QuizSession) Submitted() bool      { return s.state == SessionGraded }
func (s *QuizSession) StartedAt() time.Time { return s.startedAt }

// Picks returns the round's questions in presentation order.
func (s *QuizSession) Picks() []Question {
	return append([]Question(nil), s.picks...)
}

func (s *QuizSession) AnsweredCount() int {
	return len(s.answers)
}
