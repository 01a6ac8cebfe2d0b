package domain

// WrongAnswer pairs a missed question with what the user picked. UserAnswer
// is nil when the question was left unanswered.
type WrongAnswer struct {
	Question   Question
	UserAnswer *string
}

// ScoreResult is only produced after the round's attempts were persisted.
type ScoreResult struct {
	SessionID string
	Correct   int
	Total     int
	Score     float64 // percentage, one decimal place
	WrongList []WrongAnswer
}
