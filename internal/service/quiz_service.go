package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"quiz-review/internal/bank"
	"quiz-review/internal/config"
	"quiz-review/internal/domain"
	"quiz-review/internal/logger"
	"quiz-review/internal/selection"
	"quiz-review/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// QuizService is the operational surface used by presentation layers.
type QuizService interface {
	// LoadBank returns the cached bank, loading it on first use.
	LoadBank(ctx context.Context) (*bank.Bank, error)
	// ReloadBank re-reads and re-validates the bank file. It is the only way
	// to replace a loaded bank.
	ReloadBank(ctx context.Context) (*bank.Bank, error)
	LoadAttempts(ctx context.Context) (map[string]domain.Attempt, error)
	// Warmup loads the bank and the attempt history concurrently.
	Warmup(ctx context.Context) error

	Pick(ctx context.Context, count int, mode domain.SelectionMode) ([]domain.Question, error)
	StartSession(session *domain.QuizSession, picks []domain.Question) error
	SetAnswer(session *domain.QuizSession, questionID, choiceText string) error
	Submit(ctx context.Context, session *domain.QuizSession) (*domain.ScoreResult, error)
	Reset(ctx context.Context) error

	Progress(ctx context.Context) (*domain.Progress, error)
	WrongAnswers(ctx context.Context) ([]domain.WrongAnswerNote, error)
}

// quizService implements QuizService
type quizService struct {
	repo      domain.AttemptRepository
	selector  *selection.Selector
	scorer    *Scorer
	bankCache BankCacheService
	loader    *bank.Loader
	bankPath  string

	mu   sync.RWMutex
	bank *bank.Bank
}

// NewQuizService creates a new instance of quizService. bankCache may be nil.
func NewQuizService(
	repo domain.AttemptRepository,
	selector *selection.Selector,
	bankCache BankCacheService,
	cfg *config.Config,
) (QuizService, error) {
	mode, err := bank.ParseMode(cfg.Bank.Mode)
	if err != nil {
		return nil, err
	}
	if selector == nil {
		selector = selection.NewSelector(nil)
	}
	if bankCache == nil {
		bankCache = NewBankCacheService(nil, cfg.Redis)
	}
	return &quizService{
		repo:      repo,
		selector:  selector,
		scorer:    NewScorer(repo),
		bankCache: bankCache,
		loader:    bank.NewLoader(mode),
		bankPath:  cfg.Bank.Path,
	}, nil
}

// LoadBank implements QuizService
func (s *quizService) LoadBank(ctx context.Context) (*bank.Bank, error) {
	s.mu.RLock()
	b := s.bank
	s.mu.RUnlock()
	if b != nil {
		return b, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bank != nil {
		return s.bank, nil
	}
	b, err := s.readBank(ctx)
	if err != nil {
		return nil, err
	}
	s.bank = b
	return b, nil
}

// ReloadBank implements QuizService
func (s *quizService) ReloadBank(ctx context.Context) (*bank.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.readBank(ctx)
	if err != nil {
		// the previously loaded bank stays in use
		return nil, err
	}
	s.bank = b
	return b, nil
}

func (s *quizService) readBank(ctx context.Context) (*bank.Bank, error) {
	data, format, err := bank.ReadFile(s.bankPath)
	if err != nil {
		return nil, err
	}

	fingerprint := bank.Fingerprint(data)
	if cached, err := s.bankCache.GetBank(ctx, fingerprint, s.loader.Mode()); err == nil {
		logger.Get().Info("Loaded question bank from cache",
			zap.String("path", s.bankPath),
			zap.Int("questions", cached.Len()))
		return cached, nil
	} else if !errors.Is(err, ErrBankSnapshotNotFound) {
		logger.Get().Warn("Bank cache lookup failed", zap.Error(err))
	}

	res, err := s.loader.Load(data, format)
	if err != nil {
		logger.Get().Error("Failed to load question bank", zap.String("path", s.bankPath), zap.Error(err))
		return nil, err
	}
	logger.Get().Info("Loaded question bank",
		zap.String("path", s.bankPath),
		zap.String("mode", string(s.loader.Mode())),
		zap.Int("questions", res.Bank.Len()),
		zap.Int("skipped", len(res.Skipped)))

	if err := s.bankCache.PutBank(ctx, res.Bank, s.loader.Mode()); err != nil {
		logger.Get().Warn("Failed to cache question bank", zap.Error(err))
	}
	return res.Bank, nil
}

// LoadAttempts implements QuizService
func (s *quizService) LoadAttempts(ctx context.Context) (map[string]domain.Attempt, error) {
	return s.repo.LoadAll(ctx)
}

// Warmup implements QuizService
func (s *quizService) Warmup(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.LoadBank(gctx)
		return err
	})
	g.Go(func() error {
		attempts, err := s.repo.LoadAll(gctx)
		if err == nil {
			logger.Get().Debug("Attempt history loaded", zap.Int("attempts", len(attempts)))
		}
		return err
	})
	return g.Wait()
}

// Pick implements QuizService
func (s *quizService) Pick(ctx context.Context, count int, mode domain.SelectionMode) ([]domain.Question, error) {
	if count < 0 {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("question count must not be negative, got %d", count))
	}
	b, err := s.LoadBank(ctx)
	if err != nil {
		return nil, err
	}
	attempts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	picks, err := s.selector.Pick(b.Questions(), attempts, count, mode)
	if err != nil {
		return nil, err
	}
	logger.Get().Debug("Picked questions",
		zap.String("mode", string(mode)),
		zap.Int("requested", count),
		zap.Int("picked", len(picks)))
	return picks, nil
}

// StartSession implements QuizService
func (s *quizService) StartSession(session *domain.QuizSession, picks []domain.Question) error {
	if session == nil {
		return domain.NewInvalidInputError("no session to start")
	}
	if err := session.Start(picks); err != nil {
		return err
	}
	logger.Get().Debug("Session started", zap.String("session_id", session.ID()), zap.Int("questions", len(picks)))
	return nil
}

// SetAnswer implements QuizService
func (s *quizService) SetAnswer(session *domain.QuizSession, questionID, choiceText string) error {
	if session == nil {
		return domain.NewInvalidInputError("no session to answer")
	}
	return session.SetAnswer(questionID, choiceText)
}

// Submit implements QuizService
func (s *quizService) Submit(ctx context.Context, session *domain.QuizSession) (*domain.ScoreResult, error) {
	return s.scorer.Grade(ctx, session)
}

// Reset implements QuizService
func (s *quizService) Reset(ctx context.Context) error {
	if err := s.repo.ResetAll(ctx); err != nil {
		return err
	}
	logger.Get().Info("Attempt history reset")
	return nil
}

// Progress implements QuizService. Attempts for questions no longer in the
// bank are not counted.
func (s *quizService) Progress(ctx context.Context) (*domain.Progress, error) {
	b, err := s.LoadBank(ctx)
	if err != nil {
		return nil, err
	}
	attempts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	p := &domain.Progress{BankTotal: b.Len()}
	for _, q := range b.Questions() {
		attempt, ok := attempts[q.ID]
		if !ok {
			continue
		}
		p.Attempted++
		if attempt.IsCorrect {
			p.Correct++
		} else {
			p.Wrong++
		}
	}
	p.FreshRemaining = p.BankTotal - p.Attempted
	p.Accuracy = util.Percentage(p.Correct, p.Attempted)
	return p, nil
}

// WrongAnswers implements QuizService
func (s *quizService) WrongAnswers(ctx context.Context) ([]domain.WrongAnswerNote, error) {
	b, err := s.LoadBank(ctx)
	if err != nil {
		return nil, err
	}
	wrong, err := s.repo.ListWrong(ctx)
	if err != nil {
		return nil, err
	}

	notes := make([]domain.WrongAnswerNote, 0, len(wrong))
	for _, attempt := range wrong {
		note := domain.WrongAnswerNote{Attempt: attempt}
		if q, ok := b.Get(attempt.QuestionID); ok {
			note.Question = &q
		}
		notes = append(notes, note)
	}
	return notes, nil
}
