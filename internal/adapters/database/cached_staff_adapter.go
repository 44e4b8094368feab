package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/providers"
	"github.com/schedulo/schedulo/internal/domain/repositories"
	"github.com/schedulo/schedulo/internal/infrastructure/observability"
)

// CachedStaffAdapter wraps StaffAdapter with caching. Staff profiles and
// schedules change rarely; bookings and busy intervals are never cached.
type CachedStaffAdapter struct {
	adapter repositories.StaffRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedStaffAdapter creates a new cached staff adapter
func NewCachedStaffAdapter(adapter repositories.StaffRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.StaffRepository {
	return &CachedStaffAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

// Cache TTLs (in seconds)
const (
	staffByIDTTL  = 300
	staffListTTL  = 180
	staffListKey  = "staff:list"
	staffKeyStart = "staff:profile:"
)

func staffCacheKey(id string) string {
	return fmt.Sprintf("%s%s", staffKeyStart, id)
}

// GetByID retrieves a staff member with caching
func (a *CachedStaffAdapter) GetByID(ctx context.Context, id string) (*entities.StaffMember, error) {
	cacheKey := staffCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var staff entities.StaffMember
		if err := json.Unmarshal(cached, &staff); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, cacheKey)
			return &staff, nil
		}
	}
	observability.RecordCacheMiss(ctx, a.metrics, cacheKey)

	staff, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(staff); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, staffByIDTTL); err != nil {
			log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache staff member")
		}
	}
	return staff, nil
}

// List retrieves all bookable staff members with caching
func (a *CachedStaffAdapter) List(ctx context.Context) ([]*entities.StaffMember, error) {
	if cached, err := a.cache.Get(ctx, staffListKey); err == nil {
		var members []*entities.StaffMember
		if err := json.Unmarshal(cached, &members); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, staffListKey)
			return members, nil
		}
	}
	observability.RecordCacheMiss(ctx, a.metrics, staffListKey)

	members, err := a.adapter.List(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(members); err == nil {
		if err := a.cache.Set(ctx, staffListKey, data, staffListTTL); err != nil {
			log.Warn().Err(err).Msg("failed to cache staff list")
		}
	}
	return members, nil
}
