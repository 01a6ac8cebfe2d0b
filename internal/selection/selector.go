package selection

import (
	"math/rand"
	"sync"
	"time"

	"quiz-review/internal/domain"
)

// Selector draws a round of questions from a bank given the attempt history.
// It is safe for concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector uses rng for every draw. A nil rng is seeded from the clock.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{rng: rng}
}

// Pool returns the questions eligible under mode, in bank order.
func Pool(questions []domain.Question, attempts map[string]domain.Attempt, mode domain.SelectionMode) ([]domain.Question, error) {
	if !mode.Valid() {
		return nil, domain.NewInvalidInputError("unknown selection mode " + string(mode))
	}

	pool := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		attempt, attempted := attempts[q.ID]
		switch mode {
		case domain.ModeFresh:
			if attempted {
				continue
			}
		case domain.ModeWrongOnly:
			if !attempted || attempt.IsCorrect {
				continue
			}
		}
		pool = append(pool, q)
	}
	return pool, nil
}

// Pick returns min(requested, pool size) distinct questions sampled
// uniformly from the pool. An empty pool yields an empty, non-nil slice.
func (s *Selector) Pick(questions []domain.Question, attempts map[string]domain.Attempt, requested int, mode domain.SelectionMode) ([]domain.Question, error) {
	pool, err := Pool(questions, attempts, mode)
	if err != nil {
		return nil, err
	}

	n := requested
	if n > len(pool) {
		n = len(pool)
	}
	if n <= 0 {
		return []domain.Question{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// partial Fisher-Yates: the first n slots end up holding the sample
	for i := 0; i < n; i++ {
		j := i + s.rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n:n], nil
}
