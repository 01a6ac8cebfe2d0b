package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quiz-review/internal/bank"
	"quiz-review/internal/cache"
	"quiz-review/internal/config"
	"quiz-review/internal/domain"
	"quiz-review/internal/logger"

	"go.uber.org/zap"
)

// ErrBankSnapshotNotFound is returned on any cache miss, including when no
// cache is configured or the cached entry is unreadable.
var ErrBankSnapshotNotFound = errors.New("bank snapshot not found")

// bankSnapshot is the cached form of a validated bank.
type bankSnapshot struct {
	Fingerprint string            `json:"fingerprint"`
	Mode        string            `json:"mode"`
	Questions   []domain.Question `json:"questions"`
	CachedAt    time.Time         `json:"cached_at"`
}

// BankCacheService stores validated banks keyed by their source fingerprint.
type BankCacheService interface {
	GetBank(ctx context.Context, fingerprint string, mode bank.Mode) (*bank.Bank, error)
	PutBank(ctx context.Context, b *bank.Bank, mode bank.Mode) error
}

type bankCacheServiceImpl struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewBankCacheService accepts a nil cache, in which case every lookup misses
// and every store is a no-op.
func NewBankCacheService(c domain.Cache, cfg config.RedisConfig) BankCacheService {
	return &bankCacheServiceImpl{cache: c, ttl: cfg.BankTTL}
}

func (s *bankCacheServiceImpl) GetBank(ctx context.Context, fingerprint string, mode bank.Mode) (*bank.Bank, error) {
	if s.cache == nil {
		return nil, ErrBankSnapshotNotFound
	}

	key := cache.BankSnapshotKey(fingerprint, string(mode))
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Debug("BankCacheService: cache miss", zap.String("key", key))
		} else {
			logger.Get().Warn("BankCacheService: cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		}
		return nil, ErrBankSnapshotNotFound
	}

	var snap bankSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		logger.Get().Warn("BankCacheService: failed to unmarshal bank snapshot", zap.String("key", key), zap.Error(err))
		return nil, ErrBankSnapshotNotFound
	}
	if snap.Fingerprint != fingerprint {
		logger.Get().Warn("BankCacheService: snapshot fingerprint mismatch", zap.String("key", key))
		return nil, ErrBankSnapshotNotFound
	}

	b, err := bank.New(snap.Questions, snap.Fingerprint)
	if err != nil {
		logger.Get().Warn("BankCacheService: cached snapshot is not a valid bank", zap.String("key", key), zap.Error(err))
		return nil, ErrBankSnapshotNotFound
	}
	logger.Get().Debug("BankCacheService: cache hit", zap.String("key", key), zap.Int("questions", b.Len()))
	return b, nil
}

func (s *bankCacheServiceImpl) PutBank(ctx context.Context, b *bank.Bank, mode bank.Mode) error {
	if s.cache == nil || b == nil {
		return nil
	}

	payload, err := json.Marshal(bankSnapshot{
		Fingerprint: b.Fingerprint(),
		Mode:        string(mode),
		Questions:   b.Questions(),
		CachedAt:    time.Now().UTC(),
	})
	if err != nil {
		return domain.NewInternalError("failed to marshal bank snapshot", err)
	}

	key := cache.BankSnapshotKey(b.Fingerprint(), string(mode))
	if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
		return domain.NewInternalError("failed to cache bank snapshot", err).WithContext("key", key)
	}
	logger.Get().Debug("BankCacheService: stored bank snapshot", zap.String("key", key), zap.Duration("ttl", s.ttl))
	return nil
}
