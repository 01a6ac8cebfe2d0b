package bank

import (
	"crypto/sha256"
	"encoding/hex"

	"quiz-review/internal/domain"
)

// Bank is an immutable, validated question bank. Question IDs are unique.
type Bank struct {
	questions   []domain.Question
	byID        map[string]int
	fingerprint string
}

// New builds a bank from already-validated questions. It is also used to
// rebuild a bank from a cached snapshot.
func New(questions []domain.Question, fingerprint string) (*Bank, error) {
	if len(questions) == 0 {
		return nil, domain.NewValidationError("question bank is empty", nil)
	}
	byID := make(map[string]int, len(questions))
	copied := make([]domain.Question, len(questions))
	for i, q := range questions {
		if _, dup := byID[q.ID]; dup {
			return nil, domain.NewValidationError("duplicate question id "+q.ID, nil).WithContext("id", q.ID)
		}
		byID[q.ID] = i
		copied[i] = cloneQuestion(q)
	}
	return &Bank{questions: copied, byID: byID, fingerprint: fingerprint}, nil
}

// Questions returns a copy of the questions in bank order.
func (b *Bank) Questions() []domain.Question {
	out := make([]domain.Question, len(b.questions))
	for i, q := range b.questions {
		out[i] = cloneQuestion(q)
	}
	return out
}

func (b *Bank) Get(id string) (domain.Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return domain.Question{}, false
	}
	return cloneQuestion(b.questions[i]), true
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Choices = append([]string(nil), q.Choices...)
	return q
}

func (b *Bank) Len() int {
	return len(b.questions)
}

// Fingerprint identifies the source bytes the bank was loaded from.
func (b *Bank) Fingerprint() string {
	return b.fingerprint
}

// Fingerprint hashes raw bank file contents.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
