package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/catalog"
	catalogrepo "github.com/fekuna/mystery-kit-service/internal/catalog/repository"
	"github.com/fekuna/mystery-kit-service/internal/kit"
	"github.com/fekuna/mystery-kit-service/internal/kit/dto"
	kitrepo "github.com/fekuna/mystery-kit-service/internal/kit/repository"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/planner"
	"github.com/fekuna/mystery-kit-service/pkg/cache"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const org = "org-1"

type fakeLock struct{ released *int }

func (l fakeLock) Release(ctx context.Context) error {
	*l.released++
	return nil
}

type fakeLocker struct {
	err      error
	obtained []string
	released int
}

func (f *fakeLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (cache.Lock, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.obtained = append(f.obtained, key)
	return fakeLock{released: &f.released}, nil
}

type fixture struct {
	uc      *kitUseCase
	repo    *kitrepo.MemoryRepository
	catalog *catalogrepo.MemoryRepository
	locker  *fakeLocker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := catalogrepo.NewMemoryRepository()
	cat.AddScenario(model.Scenario{ID: "fog-house", OrganizationID: org, Title: "Fog House", KitCount: 1})
	cat.AddScenario(model.Scenario{ID: "orphan", OrganizationID: org, Title: "Orphan"})

	repo := kitrepo.NewMemoryRepository()
	_, _, err := repo.Resize(context.Background(), org, "fog-house", 1, time.Now())
	require.NoError(t, err)

	locker := &fakeLocker{}
	uc := NewKitUseCase(repo, cat, locker, time.Second, logger.NewNop()).(*kitUseCase)
	uc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return &fixture{uc: uc, repo: repo, catalog: cat, locker: locker}
}

func strPtr(s string) *string { return &s }

func countRows(t *testing.T, f *fixture, scenarioID string) []model.KitLocation {
	t.Helper()
	locs, err := f.repo.List(context.Background(), org, &scenarioID)
	require.NoError(t, err)
	return locs
}

func TestSetKitCount_RaiseAddsDefaultRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.uc.SetKitCount(ctx, org, "fog-house", 2)
	require.NoError(t, err)
	assert.Equal(t, dto.ResizeResult{ScenarioID: "fog-house", KitCount: 2, Added: 1}, *res)

	loc, err := f.uc.GetKitLocation(ctx, org, "fog-house", 2)
	require.NoError(t, err)
	assert.Equal(t, model.KitConditionGood, loc.Condition)
	assert.Nil(t, loc.StoreID)
	assert.Len(t, countRows(t, f, "fog-house"), 2)

	sc, err := f.catalog.GetScenario(ctx, org, "fog-house")
	require.NoError(t, err)
	assert.Equal(t, 2, sc.KitCount)
	assert.Equal(t, []string{"lock:kits:org-1:fog-house"}, f.locker.obtained)
	assert.Equal(t, 1, f.locker.released)
}

func TestSetKitCount_NewCapacityCountsOncePlaced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.SetKitLocation(ctx, &dto.SetKitLocationInput{OrganizationID: org, ScenarioID: "fog-house", KitNumber: 1, StoreID: strPtr("store-a")})
	require.NoError(t, err)
	_, err = f.uc.SetKitCount(ctx, org, "fog-house", 2)
	require.NoError(t, err)

	demand := model.Demand{Date: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), StoreID: "store-a", ScenarioID: "fog-house", Needed: 2}
	scenarios, err := f.catalog.ListScenariosWithKits(ctx, org)
	require.NoError(t, err)
	groups := planner.NewGroups(nil)

	locs, err := f.uc.GetKitLocations(ctx, org, nil)
	require.NoError(t, err)
	short := planner.DetectShortages([]model.Demand{demand}, model.StateOf(locs), scenarios, groups)
	require.Len(t, short, 1)
	assert.Equal(t, 1, short[0].Available)

	_, err = f.uc.SetKitLocation(ctx, &dto.SetKitLocationInput{OrganizationID: org, ScenarioID: "fog-house", KitNumber: 2, StoreID: strPtr("store-a")})
	require.NoError(t, err)
	locs, err = f.uc.GetKitLocations(ctx, org, nil)
	require.NoError(t, err)
	assert.Empty(t, planner.DetectShortages([]model.Demand{demand}, model.StateOf(locs), scenarios, groups))
}

func TestSetKitCount_Conservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, n := range []int{4, 2, 5, 0, 3} {
		_, err := f.uc.SetKitCount(ctx, org, "fog-house", n)
		require.NoError(t, err)

		locs := countRows(t, f, "fog-house")
		require.Len(t, locs, n)
		for i, l := range locs {
			assert.Equal(t, i+1, l.KitNumber)
		}
	}
}

func TestSetKitCount_LowerRemovesHighestNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.SetKitCount(ctx, org, "fog-house", 3)
	require.NoError(t, err)
	_, err = f.uc.SetKitLocation(ctx, &dto.SetKitLocationInput{OrganizationID: org, ScenarioID: "fog-house", KitNumber: 1, StoreID: strPtr("store-a")})
	require.NoError(t, err)

	res, err := f.uc.SetKitCount(ctx, org, "fog-house", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Removed)

	locs := countRows(t, f, "fog-house")
	require.Len(t, locs, 1)
	assert.Equal(t, "store-a", *locs[0].StoreID)
}

func TestSetKitCount_Locking(t *testing.T) {
	t.Run("held lock rejects", func(t *testing.T) {
		f := newFixture(t)
		f.locker.err = cache.ErrLockNotObtained

		_, err := f.uc.SetKitCount(context.Background(), org, "fog-house", 3)
		assert.ErrorIs(t, err, cache.ErrLockNotObtained)
		assert.Len(t, countRows(t, f, "fog-house"), 1)
	})

	t.Run("redis outage proceeds unlocked", func(t *testing.T) {
		f := newFixture(t)
		f.locker.err = errors.New("dial tcp: connection refused")

		_, err := f.uc.SetKitCount(context.Background(), org, "fog-house", 3)
		require.NoError(t, err)
		assert.Len(t, countRows(t, f, "fog-house"), 3)
	})

	t.Run("unknown scenario", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.SetKitCount(context.Background(), org, "nope", 3)
		assert.ErrorIs(t, err, catalog.ErrScenarioNotFound)
		assert.Empty(t, f.locker.obtained)
	})
}

func TestSetKitLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		kitNumber int
		wantErr   error
	}{
		{"in range", 1, nil},
		{"zero", 0, kit.ErrKitNumberOutOfRange},
		{"above count", 2, kit.ErrKitNumberOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := f.uc.SetKitLocation(ctx, &dto.SetKitLocationInput{OrganizationID: org, ScenarioID: "fog-house", KitNumber: tt.kitNumber, StoreID: strPtr("store-b")})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "store-b", *loc.StoreID)
		})
	}

	// Setting a location keeps the recorded condition.
	_, err := f.uc.UpdateKitCondition(ctx, &dto.UpdateKitConditionInput{OrganizationID: org, ScenarioID: "fog-house", KitNumber: 1, Condition: model.KitConditionDamaged, Notes: strPtr("torn map")})
	require.NoError(t, err)
	loc, err := f.uc.SetKitLocation(ctx, &dto.SetKitLocationInput{OrganizationID: org, ScenarioID: "fog-house", KitNumber: 1, StoreID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, loc.StoreID)
	assert.Equal(t, model.KitConditionDamaged, loc.Condition)
	assert.Equal(t, "torn map", *loc.ConditionNotes)
	assert.Len(t, countRows(t, f, "fog-house"), 1)
}

func TestGetKitLocation_MissingDegradesToDefault(t *testing.T) {
	f := newFixture(t)
	loc, err := f.uc.GetKitLocation(context.Background(), org, "fog-house", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, loc.KitNumber)
	assert.Equal(t, model.KitConditionGood, loc.Condition)
	assert.False(t, loc.Placed())
}

func TestSetAllKitLocations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.SetKitCount(ctx, org, "fog-house", 3)
	require.NoError(t, err)

	locs, err := f.uc.SetAllKitLocations(ctx, &dto.SetAllKitLocationsInput{OrganizationID: org, ScenarioID: "fog-house", StoreID: strPtr("store-c")})
	require.NoError(t, err)
	require.Len(t, locs, 3)
	for _, l := range countRows(t, f, "fog-house") {
		assert.Equal(t, "store-c", *l.StoreID)
	}

	none, err := f.uc.SetAllKitLocations(ctx, &dto.SetAllKitLocationsInput{OrganizationID: org, ScenarioID: "orphan", StoreID: strPtr("store-c")})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReconcileKits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Drift the rows away from the catalog behind the usecase's back.
	require.NoError(t, f.catalog.SetKitCount(ctx, org, "fog-house", 3))
	_, _, err := f.repo.Resize(ctx, org, "orphan", 2, time.Now())
	require.NoError(t, err)

	res, err := f.uc.ReconcileKits(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, []dto.ResizeResult{
		{ScenarioID: "fog-house", KitCount: 3, Added: 2},
		{ScenarioID: "orphan", KitCount: 0, Removed: 2},
	}, res)
	assert.Len(t, countRows(t, f, "fog-house"), 3)
	assert.Empty(t, countRows(t, f, "orphan"))

	again, err := f.uc.ReconcileKits(ctx, org)
	require.NoError(t, err)
	assert.Empty(t, again)
}
