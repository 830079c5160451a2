package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/catalog"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"go.uber.org/zap"
)

// Cache is the subset of pkg/cache.RedisClient the catalog needs.
type Cache interface {
	GetObject(ctx context.Context, key string, dest interface{}) (bool, error)
	SetObject(ctx context.Context, key string, obj interface{}, exp time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Source interface {
	catalog.StoreCatalog
	catalog.ScenarioCatalog
}

// CachedRepository puts a cache-aside layer in front of the store and
// scenario catalogs. Cache errors are logged and the source is used.
type CachedRepository struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger logger.ZapLogger
}

func NewCachedRepository(source Source, cache Cache, ttl time.Duration, log logger.ZapLogger) *CachedRepository {
	return &CachedRepository{source: source, cache: cache, ttl: ttl, logger: log}
}

var (
	_ catalog.StoreCatalog    = (*CachedRepository)(nil)
	_ catalog.ScenarioCatalog = (*CachedRepository)(nil)
)

func storesKey(organizationID string) string {
	return fmt.Sprintf("kits:catalog:stores:%s", organizationID)
}

func scenariosKey(organizationID string) string {
	return fmt.Sprintf("kits:catalog:scenarios:%s", organizationID)
}

func (r *CachedRepository) ListActiveStores(ctx context.Context, organizationID string) ([]model.Store, error) {
	key := storesKey(organizationID)

	var cached []model.Store
	if ok, err := r.cache.GetObject(ctx, key, &cached); err != nil {
		r.logger.Warn("store cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	stores, err := r.source.ListActiveStores(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetObject(ctx, key, stores, r.ttl); err != nil {
		r.logger.Warn("store cache write failed", zap.String("key", key), zap.Error(err))
	}
	return stores, nil
}

func (r *CachedRepository) ListScenariosWithKits(ctx context.Context, organizationID string) ([]model.Scenario, error) {
	key := scenariosKey(organizationID)

	var cached []model.Scenario
	if ok, err := r.cache.GetObject(ctx, key, &cached); err != nil {
		r.logger.Warn("scenario cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	scenarios, err := r.source.ListScenariosWithKits(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetObject(ctx, key, scenarios, r.ttl); err != nil {
		r.logger.Warn("scenario cache write failed", zap.String("key", key), zap.Error(err))
	}
	return scenarios, nil
}

// GetScenario always reads through; kit counts must be current for range checks.
func (r *CachedRepository) GetScenario(ctx context.Context, organizationID, scenarioID string) (*model.Scenario, error) {
	return r.source.GetScenario(ctx, organizationID, scenarioID)
}

func (r *CachedRepository) SetKitCount(ctx context.Context, organizationID, scenarioID string, kitCount int) error {
	if err := r.source.SetKitCount(ctx, organizationID, scenarioID, kitCount); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, scenariosKey(organizationID)); err != nil {
		r.logger.Warn("scenario cache invalidation failed", zap.String("organization_id", organizationID), zap.Error(err))
	}
	return nil
}
