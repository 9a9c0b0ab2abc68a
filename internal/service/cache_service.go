package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/bps-secretariat/bps-inventory/pkg/errors"
)

// Cache keys for derived statistics.
const (
	cacheKeyQuickStatsPrefix    = "quick_stats:"
	cacheKeySystemStats         = "system_stats"
	cacheKeyNotificationsPrefix = "user_notifications_"
	cacheKeyReportPrefix        = "report_preview:"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService orchestrates cache operations and related metrics. Read failures fall
// through to a fresh compute; write failures are logged and ignored by callers.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Lookup is Get for callers that recompute on any failure.
func (s *CacheService) Lookup(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.Get(ctx, key, dest)
	return err == nil && hit
}

// Store is Set for callers that ignore write failures. Set already logs them.
func (s *CacheService) Store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	_ = s.Set(ctx, key, value, ttl)
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// InvalidateStats drops every derived statistic after a state change. Failures are logged only.
func (s *CacheService) InvalidateStats(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Delete(ctx, cacheKeySystemStats); err != nil {
		s.logger.Warn("cache delete failed", zap.String("key", cacheKeySystemStats), zap.Error(err))
	}
	_ = s.Invalidate(ctx, cacheKeyQuickStatsPrefix+"*")
	_ = s.Invalidate(ctx, cacheKeyNotificationsPrefix+"*")
	_ = s.Invalidate(ctx, cacheKeyReportPrefix+"*")
}
