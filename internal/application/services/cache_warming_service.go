package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/schedulo/schedulo/internal/domain/providers"
	"github.com/schedulo/schedulo/internal/domain/repositories"
)

// CacheWarmingService periodically refreshes the staff cache from the
// database. Staff data is managed outside this service, so warming is also
// how external edits (schedule changes, renames) propagate into cached
// entries before their TTL runs out.
type CacheWarmingService struct {
	staffRepo repositories.StaffRepository
	cache     providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service. The staff
// repository must be the uncached adapter; warming through the cached
// wrapper would just re-read stale entries.
func NewCacheWarmingService(
	staffRepo repositories.StaffRepository,
	cache providers.CacheProvider,
) *CacheWarmingService {
	return &CacheWarmingService{
		staffRepo: staffRepo,
		cache:     cache,
	}
}

// WarmCache refreshes the staff list and every staff profile entry.
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	members, err := s.staffRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch staff for warming: %w", err)
	}

	if data, err := json.Marshal(members); err == nil {
		if err := s.cache.Set(ctx, "staff:list", data, 180); err != nil {
			log.Warn().Err(err).Msg("failed to warm staff list cache")
		}
	}

	warmed := 0
	for _, staff := range members {
		data, err := json.Marshal(staff)
		if err != nil {
			log.Warn().Err(err).Str("staff_id", staff.ID).Msg("failed to marshal staff for warming")
			continue
		}
		key := fmt.Sprintf("staff:profile:%s", staff.ID)
		if err := s.cache.Set(ctx, key, data, 300); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to warm staff cache entry")
			continue
		}
		warmed++
	}

	log.Debug().Int("warmed", warmed).Msg("staff cache warming completed")
	return nil
}

// StartPeriodicWarming warms the cache on an interval until ctx is done.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial cache warming failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.WarmCache(ctx); err != nil {
				log.Warn().Err(err).Msg("cache warming failed")
			}
		}
	}
}
