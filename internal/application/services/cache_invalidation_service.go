package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
)

// Cache key prefixes of derived read models
const (
	DashboardCachePrefix = "dashboard:"
	AnalyticsCachePrefix = "analytics:"
)

// CacheInvalidationService drops cached read models after writes that change
// what they were computed from
type CacheInvalidationService struct {
	cache   providers.CacheProvider
	timeout time.Duration
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider) *CacheInvalidationService {
	return &CacheInvalidationService{cache: cache, timeout: 2 * time.Second}
}

// InvalidateDashboards removes every cached dashboard and analytics entry.
// Failures are logged; entries then expire through their TTL.
func (s *CacheInvalidationService) InvalidateDashboards(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	for _, prefix := range []string{DashboardCachePrefix, AnalyticsCachePrefix} {
		if err := s.invalidatePrefix(ctx, prefix); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("cache invalidation failed")
		}
	}
}

func (s *CacheInvalidationService) invalidatePrefix(ctx context.Context, prefix string) error {
	pattern := prefix + "*"
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
	}
	observability.LoggerFromContext(ctx).Debug().Str("pattern", pattern).Msg("invalidated cache pattern")
	return nil
}
