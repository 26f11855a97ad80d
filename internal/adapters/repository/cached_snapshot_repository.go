package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ domain.SnapshotRepository = (*CachedSnapshotRepository)(nil)

const defaultCacheTTL = 30 * time.Minute

// CachedSnapshotRepository is a read-through Redis cache in front of another
// document store. Cache failures are logged and never fail a request.
type CachedSnapshotRepository struct {
	next   domain.SnapshotRepository
	cache  *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

func NewCachedSnapshotRepository(next domain.SnapshotRepository, cache *redis.Client, logger *zap.Logger) *CachedSnapshotRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSnapshotRepository{
		next:   next,
		cache:  cache,
		logger: logger,
		ttl:    defaultCacheTTL,
	}
}

func (r *CachedSnapshotRepository) cacheKey(userID string) string {
	return fmt.Sprintf("snapshot:%s", userID)
}

func (r *CachedSnapshotRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		r.logger.Warn("cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (r *CachedSnapshotRepository) Load(ctx context.Context, userID string) (*domain.Snapshot, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Bytes()
	if err == nil {
		var snap domain.Snapshot
		if err := json.Unmarshal(val, &snap); err == nil {
			return &snap, nil
		}

		r.logger.Warn("corrupted cache entry, cleaning up", zap.String("user_id", userID))
		r.cache.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	snap, err := r.next.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.store(ctx, userID, snap)
	return snap, nil
}

// Save writes through to the backing store and refreshes the cached copy.
func (r *CachedSnapshotRepository) Save(ctx context.Context, userID string, snap *domain.Snapshot) error {
	if err := r.next.Save(ctx, userID, snap); err != nil {
		r.invalidate(ctx, userID)
		return err
	}
	r.store(ctx, userID, snap)
	return nil
}

func (r *CachedSnapshotRepository) Delete(ctx context.Context, userID string) error {
	defer r.invalidate(ctx, userID)
	return r.next.Delete(ctx, userID)
}

func (r *CachedSnapshotRepository) store(ctx context.Context, userID string, snap *domain.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, r.cacheKey(userID), data, r.ttl).Err(); err != nil {
		r.logger.Warn("cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
}
