package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type brokenCacheRepo struct{ stubCacheRepo }

func (b *brokenCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("redis: connection refused")
}

func TestCacheServiceLookupAndStore(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(&stubCacheRepo{}, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var got map[string]int
	assert.False(t, svc.Lookup(ctx, cacheKeySystemStats, &got))

	svc.Store(ctx, cacheKeySystemStats, map[string]int{"devices": 12}, 0)
	require.True(t, svc.Lookup(ctx, cacheKeySystemStats, &got))
	assert.Equal(t, 12, got["devices"])

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestCacheServiceInvalidateStatsDropsDerivedKeys(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	ctx := context.Background()
	svc.Store(ctx, cacheKeySystemStats, 1, 0)
	svc.Store(ctx, cacheKeyQuickStatsPrefix+"dept-1", 1, 0)
	svc.Store(ctx, cacheKeyNotificationsPrefix+"user-1", 1, 0)
	svc.Store(ctx, cacheKeyReportPrefix+"abc", 1, 0)
	svc.Store(ctx, "session:unrelated", 1, 0)

	svc.InvalidateStats(ctx)
	assert.Len(t, repo.store, 1)
	assert.Contains(t, repo.store, "session:unrelated")
}

func TestCacheServiceReadFailureFallsThrough(t *testing.T) {
	svc := NewCacheService(&brokenCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	var dest int
	hit, err := svc.Get(context.Background(), "k", &dest)
	assert.False(t, hit)
	assert.Error(t, err)
	assert.False(t, svc.Lookup(context.Background(), "k", &dest))
}

func TestCacheServiceDisabledAndNil(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)
	svc.Store(context.Background(), "k", 1, 0)
	assert.Empty(t, repo.store)

	var nilSvc *CacheService
	var dest int
	assert.False(t, nilSvc.Lookup(context.Background(), "k", &dest))
	nilSvc.Store(context.Background(), "k", 1, 0)
	nilSvc.InvalidateStats(context.Background())
}
