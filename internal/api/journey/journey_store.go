package journey

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-family-journey/internal/types"
)

// ProgressStore is a write-through cache in front of the repository. A hot
// family stays in memory between turns; every mutation still lands in the
// database before the cache is refreshed, so an eviction never loses points.
type ProgressStore struct {
	logger *slog.Logger
	repo   Repository
	cache  *cache.Cache
}

func NewProgressStore(repo Repository, ttl time.Duration, logger *slog.Logger) *ProgressStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ProgressStore{
		logger: logger,
		repo:   repo,
		cache:  cache.New(ttl, 10*time.Minute),
	}
}

func (s *ProgressStore) Load(ctx context.Context, familyID uuid.UUID) (*types.FamilyProgress, error) {
	if cached, found := s.cache.Get(familyID.String()); found {
		if progress, ok := cached.(*types.FamilyProgress); ok {
			return progress, nil
		}
	}

	progress, err := s.repo.GetProgress(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load family progress: %w", err)
	}
	s.cache.Set(familyID.String(), progress, cache.DefaultExpiration)
	return progress, nil
}

func (s *ProgressStore) Save(ctx context.Context, progress *types.FamilyProgress) error {
	if err := s.repo.SaveProgress(ctx, progress); err != nil {
		// Drop the cached copy so the next load sees the durable state.
		s.cache.Delete(progress.FamilyID.String())
		return fmt.Errorf("failed to save family progress: %w", err)
	}
	s.cache.Set(progress.FamilyID.String(), progress, cache.DefaultExpiration)
	return nil
}

// Evict removes a family's cached aggregate, used when a session ends.
func (s *ProgressStore) Evict(familyID uuid.UUID) {
	s.cache.Delete(familyID.String())
	s.logger.Debug("evicted cached progress", slog.String("family_id", familyID.String()))
}
