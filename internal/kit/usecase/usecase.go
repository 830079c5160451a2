package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/catalog"
	"github.com/fekuna/mystery-kit-service/internal/kit"
	"github.com/fekuna/mystery-kit-service/internal/kit/dto"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/pkg/cache"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"go.uber.org/zap"
)

// Locker hands out per-key distributed locks. *cache.RedisClient implements it.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (cache.Lock, error)
}

type kitUseCase struct {
	repo      kit.Repository
	scenarios catalog.ScenarioCatalog
	locker    Locker
	lockTTL   time.Duration
	logger    logger.ZapLogger
	now       func() time.Time
}

// NewKitUseCase wires the inventory usecase. locker may be nil, in which case
// kit count changes run unlocked.
func NewKitUseCase(repo kit.Repository, scenarios catalog.ScenarioCatalog, locker Locker, lockTTL time.Duration, log logger.ZapLogger) kit.UseCase {
	return &kitUseCase{
		repo:      repo,
		scenarios: scenarios,
		locker:    locker,
		lockTTL:   lockTTL,
		logger:    log,
		now:       time.Now,
	}
}

func (uc *kitUseCase) GetKitLocations(ctx context.Context, organizationID string, scenarioID *string) ([]model.KitLocation, error) {
	return uc.repo.List(ctx, organizationID, scenarioID)
}

func (uc *kitUseCase) GetKitLocation(ctx context.Context, organizationID, scenarioID string, kitNumber int) (*model.KitLocation, error) {
	loc, err := uc.repo.Get(ctx, organizationID, scenarioID, kitNumber)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		// Unknown copies read as a fresh kit with no store.
		return defaultLocation(organizationID, scenarioID, kitNumber, time.Time{}), nil
	}
	return loc, nil
}

func (uc *kitUseCase) SetKitLocation(ctx context.Context, input *dto.SetKitLocationInput) (*model.KitLocation, error) {
	if _, err := uc.checkRange(ctx, input.OrganizationID, input.ScenarioID, input.KitNumber); err != nil {
		return nil, err
	}

	loc, err := uc.GetKitLocation(ctx, input.OrganizationID, input.ScenarioID, input.KitNumber)
	if err != nil {
		return nil, err
	}
	loc.StoreID = normalizeStore(input.StoreID)
	loc.UpdatedAt = uc.now()

	if err := uc.repo.Upsert(ctx, loc); err != nil {
		uc.logger.Error("failed to set kit location",
			zap.String("scenario_id", input.ScenarioID),
			zap.Int("kit_number", input.KitNumber),
			zap.Error(err),
		)
		return nil, err
	}
	return loc, nil
}

func (uc *kitUseCase) SetAllKitLocations(ctx context.Context, input *dto.SetAllKitLocationsInput) ([]model.KitLocation, error) {
	sc, err := uc.scenario(ctx, input.OrganizationID, input.ScenarioID)
	if err != nil {
		return nil, err
	}
	if !sc.KitManaged() {
		return []model.KitLocation{}, nil
	}

	existing, err := uc.repo.List(ctx, input.OrganizationID, &input.ScenarioID)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[int]model.KitLocation, len(existing))
	for _, l := range existing {
		byNumber[l.KitNumber] = l
	}

	now := uc.now()
	store := normalizeStore(input.StoreID)
	locs := make([]model.KitLocation, 0, sc.KitCount)
	for n := 1; n <= sc.KitCount; n++ {
		loc, ok := byNumber[n]
		if !ok {
			loc = *defaultLocation(input.OrganizationID, input.ScenarioID, n, now)
		}
		loc.StoreID = store
		loc.UpdatedAt = now
		locs = append(locs, loc)
	}

	if err := uc.repo.UpsertMany(ctx, locs); err != nil {
		uc.logger.Error("failed to set all kit locations", zap.String("scenario_id", input.ScenarioID), zap.Error(err))
		return nil, err
	}
	return locs, nil
}

func (uc *kitUseCase) UpdateKitCondition(ctx context.Context, input *dto.UpdateKitConditionInput) (*model.KitLocation, error) {
	if _, err := uc.checkRange(ctx, input.OrganizationID, input.ScenarioID, input.KitNumber); err != nil {
		return nil, err
	}
	return uc.repo.UpdateCondition(ctx, input.OrganizationID, input.ScenarioID, input.KitNumber, input.Condition, input.Notes, uc.now())
}

func (uc *kitUseCase) SetKitCount(ctx context.Context, organizationID, scenarioID string, kitCount int) (*dto.ResizeResult, error) {
	if kitCount < 0 {
		return nil, fmt.Errorf("kit count must not be negative: %d", kitCount)
	}
	if _, err := uc.scenario(ctx, organizationID, scenarioID); err != nil {
		return nil, err
	}

	release, err := uc.lock(ctx, organizationID, scenarioID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := uc.scenarios.SetKitCount(ctx, organizationID, scenarioID, kitCount); err != nil {
		return nil, err
	}

	added, removed, err := uc.repo.Resize(ctx, organizationID, scenarioID, kitCount, uc.now())
	if err != nil {
		// The scenario already carries the new count; ReconcileKits repairs the rows.
		uc.logger.Error("kit count updated but location rows not resized",
			zap.String("scenario_id", scenarioID),
			zap.Int("kit_count", kitCount),
			zap.Error(err),
		)
		return nil, err
	}

	uc.logger.Info("kit count changed",
		zap.String("scenario_id", scenarioID),
		zap.Int("kit_count", kitCount),
		zap.Int("added", added),
		zap.Int("removed", removed),
	)
	return &dto.ResizeResult{ScenarioID: scenarioID, KitCount: kitCount, Added: added, Removed: removed}, nil
}

func (uc *kitUseCase) ReconcileKits(ctx context.Context, organizationID string) ([]dto.ResizeResult, error) {
	scenarios, err := uc.scenarios.ListScenariosWithKits(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(scenarios))
	for _, sc := range scenarios {
		counts[sc.ID] = sc.KitCount
	}

	// Rows may exist for scenarios that dropped out of the kit-managed list.
	locs, err := uc.repo.List(ctx, organizationID, nil)
	if err != nil {
		return nil, err
	}
	for _, l := range locs {
		if _, ok := counts[l.ScenarioID]; ok {
			continue
		}
		sc, err := uc.scenarios.GetScenario(ctx, organizationID, l.ScenarioID)
		if err != nil {
			return nil, err
		}
		counts[l.ScenarioID] = 0
		if sc != nil {
			counts[l.ScenarioID] = sc.KitCount
		}
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]dto.ResizeResult, 0)
	now := uc.now()
	for _, id := range ids {
		added, removed, err := uc.repo.Resize(ctx, organizationID, id, counts[id], now)
		if err != nil {
			return results, fmt.Errorf("reconcile %s: %w", id, err)
		}
		if added == 0 && removed == 0 {
			continue
		}
		results = append(results, dto.ResizeResult{ScenarioID: id, KitCount: counts[id], Added: added, Removed: removed})
	}
	return results, nil
}

func (uc *kitUseCase) scenario(ctx context.Context, organizationID, scenarioID string) (*model.Scenario, error) {
	sc, err := uc.scenarios.GetScenario(ctx, organizationID, scenarioID)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, catalog.ErrScenarioNotFound
	}
	return sc, nil
}

func (uc *kitUseCase) checkRange(ctx context.Context, organizationID, scenarioID string, kitNumber int) (*model.Scenario, error) {
	sc, err := uc.scenario(ctx, organizationID, scenarioID)
	if err != nil {
		return nil, err
	}
	if kitNumber < 1 || kitNumber > sc.KitCount {
		return nil, fmt.Errorf("%w: kit %d of %d", kit.ErrKitNumberOutOfRange, kitNumber, sc.KitCount)
	}
	return sc, nil
}

// lock takes the per-scenario resize lock. A redis outage is logged and the
// resize continues; only a held lock turns the caller away.
func (uc *kitUseCase) lock(ctx context.Context, organizationID, scenarioID string) (func(), error) {
	noop := func() {}
	if uc.locker == nil {
		return noop, nil
	}

	key := fmt.Sprintf("lock:kits:%s:%s", organizationID, scenarioID)
	l, err := uc.locker.Obtain(ctx, key, uc.lockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockNotObtained) {
			return nil, err
		}
		uc.logger.Warn("proceeding without kit lock", zap.String("key", key), zap.Error(err))
		return noop, nil
	}
	return func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			uc.logger.Warn("failed to release kit lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func defaultLocation(organizationID, scenarioID string, kitNumber int, at time.Time) *model.KitLocation {
	return &model.KitLocation{
		OrganizationID: organizationID,
		ScenarioID:     scenarioID,
		KitNumber:      kitNumber,
		Condition:      model.KitConditionGood,
		UpdatedAt:      at,
	}
}

func normalizeStore(storeID *string) *string {
	if storeID == nil || *storeID == "" {
		return nil
	}
	s := *storeID
	return &s
}
