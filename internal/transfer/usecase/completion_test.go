package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	catalogrepo "github.com/fekuna/mystery-kit-service/internal/catalog/repository"
	"github.com/fekuna/mystery-kit-service/internal/feed"
	"github.com/fekuna/mystery-kit-service/internal/kit"
	kitdto "github.com/fekuna/mystery-kit-service/internal/kit/dto"
	kitrepo "github.com/fekuna/mystery-kit-service/internal/kit/repository"
	kituc "github.com/fekuna/mystery-kit-service/internal/kit/usecase"
	"github.com/fekuna/mystery-kit-service/internal/metrics"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/transfer"
	"github.com/fekuna/mystery-kit-service/internal/transfer/dto"
	"github.com/fekuna/mystery-kit-service/internal/transfer/repository"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const org = "org-1"

var perfDate = time.Date(2024, 6, 4, 19, 30, 0, 0, time.UTC)

type completionFixture struct {
	uc     *completionUseCase
	kits   kit.UseCase
	repo   *repository.MemoryCompletionRepository
	events <-chan feed.Event
}

func newCompletionFixture(t *testing.T) *completionFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cat := catalogrepo.NewMemoryRepository()
	cat.AddScenario(model.Scenario{ID: "fog-house", OrganizationID: org, Title: "Fog House", KitCount: 2})
	locs := kitrepo.NewMemoryRepository()
	_, _, err := locs.Resize(ctx, org, "fog-house", 2, time.Now())
	require.NoError(t, err)
	kits := kituc.NewKitUseCase(locs, cat, nil, time.Second, logger.NewNop())

	for n, store := range map[int]string{1: "store-a", 2: "store-c"} {
		s := store
		_, err := kits.SetKitLocation(ctx, &kitdto.SetKitLocationInput{OrganizationID: org, ScenarioID: "fog-house", KitNumber: n, StoreID: &s})
		require.NoError(t, err)
	}

	bus := feed.NewMemory()
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	repo := repository.NewMemoryCompletionRepository()
	uc := NewCompletionUseCase(repo, kits, bus, metrics.New(prometheus.NewRegistry()), logger.NewNop()).(*completionUseCase)
	return &completionFixture{uc: uc, kits: kits, repo: repo, events: events}
}

func input() *dto.CompletionInput {
	from := "store-a"
	return &dto.CompletionInput{
		OrganizationID:  org,
		ScenarioID:      "fog-house",
		KitNumber:       1,
		PerformanceDate: perfDate,
		FromStoreID:     &from,
		ToStoreID:       "store-b",
		Actor:           model.Actor{ID: "u-1", DisplayName: "Rosa"},
	}
}

func (f *completionFixture) location(t *testing.T, n int) string {
	t.Helper()
	loc, err := f.kits.GetKitLocation(context.Background(), org, "fog-house", n)
	require.NoError(t, err)
	require.True(t, loc.Placed())
	return *loc.StoreID
}

func (f *completionFixture) drain() int {
	n := 0
	for {
		select {
		case <-f.events:
			n++
		case <-time.After(50 * time.Millisecond):
			return n
		}
	}
}

func TestCompletion_PickupDeliveryCascade(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()

	rec, err := f.uc.MarkPickedUp(ctx, input())
	require.NoError(t, err)
	assert.Equal(t, model.CompletionPickedUp, rec.State())
	assert.Equal(t, "Rosa", *rec.PickedUpBy)
	assert.Equal(t, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), rec.PerformanceDate)

	rec, err = f.uc.MarkDelivered(ctx, input())
	require.NoError(t, err)
	assert.Equal(t, model.CompletionDelivered, rec.State())
	assert.Equal(t, "store-b", f.location(t, 1))

	rec, err = f.uc.UnmarkPickedUp(ctx, input())
	require.NoError(t, err)
	assert.Equal(t, model.CompletionUnplanned, rec.State())
	assert.Nil(t, rec.PickedUpAt)
	assert.Nil(t, rec.DeliveredAt)
	assert.Nil(t, rec.DeliveredBy)

	// Only the delivered kit moved, and unmarking did not move it back.
	assert.Equal(t, "store-b", f.location(t, 1))
	assert.Equal(t, "store-c", f.location(t, 2))

	got, err := f.uc.GetTransferCompletions(ctx, org, perfDate, perfDate)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
}

func TestCompletion_UnmarkDeliveredKeepsLocation(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()

	_, err := f.uc.MarkPickedUp(ctx, input())
	require.NoError(t, err)
	_, err = f.uc.MarkDelivered(ctx, input())
	require.NoError(t, err)

	rec, err := f.uc.UnmarkDelivered(ctx, input())
	require.NoError(t, err)
	assert.Equal(t, model.CompletionPickedUp, rec.State())
	assert.NotNil(t, rec.PickedUpAt)
	assert.Equal(t, "store-b", f.location(t, 1))
}

func TestCompletion_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("pickup twice is a no-op", func(t *testing.T) {
		f := newCompletionFixture(t)
		first, err := f.uc.MarkPickedUp(ctx, input())
		require.NoError(t, err)
		require.Equal(t, 1, f.drain())

		second, err := f.uc.MarkPickedUp(ctx, input())
		require.NoError(t, err)
		assert.Equal(t, first.PickedUpAt, second.PickedUpAt)
		assert.Equal(t, 0, f.drain())
	})

	t.Run("pickup after delivery rejected", func(t *testing.T) {
		f := newCompletionFixture(t)
		_, err := f.uc.MarkPickedUp(ctx, input())
		require.NoError(t, err)
		_, err = f.uc.MarkDelivered(ctx, input())
		require.NoError(t, err)

		_, err = f.uc.MarkPickedUp(ctx, input())
		assert.ErrorIs(t, err, transfer.ErrInvalidTransition)
	})

	t.Run("delivery without pickup rejected", func(t *testing.T) {
		f := newCompletionFixture(t)
		_, err := f.uc.MarkDelivered(ctx, input())
		assert.ErrorIs(t, err, transfer.ErrInvalidTransition)

		got, err := f.uc.GetTransferCompletions(ctx, org, perfDate, perfDate)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, "store-a", f.location(t, 1))
	})

	t.Run("unmark on unplanned rejected", func(t *testing.T) {
		f := newCompletionFixture(t)
		_, err := f.uc.UnmarkPickedUp(ctx, input())
		assert.ErrorIs(t, err, transfer.ErrInvalidTransition)
		_, err = f.uc.UnmarkDelivered(ctx, input())
		assert.ErrorIs(t, err, transfer.ErrInvalidTransition)
	})

	t.Run("different destination is a separate record", func(t *testing.T) {
		f := newCompletionFixture(t)
		_, err := f.uc.MarkPickedUp(ctx, input())
		require.NoError(t, err)

		other := input()
		other.ToStoreID = "store-d"
		_, err = f.uc.MarkDelivered(ctx, other)
		assert.ErrorIs(t, err, transfer.ErrInvalidTransition)
	})
}

type failingLocations struct{}

func (failingLocations) SetKitLocation(ctx context.Context, input *kitdto.SetKitLocationInput) (*model.KitLocation, error) {
	return nil, errors.New("connection reset")
}

func TestCompletion_LocationSyncFailureKeepsDelivery(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()
	f.uc.locations = failingLocations{}

	_, err := f.uc.MarkPickedUp(ctx, input())
	require.NoError(t, err)

	rec, err := f.uc.MarkDelivered(ctx, input())
	var syncErr *transfer.LocationSyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "store-b", syncErr.ToStoreID)
	require.NotNil(t, rec)
	assert.Equal(t, model.CompletionDelivered, rec.State())

	stored, err := f.repo.Get(ctx, org, input().Key())
	require.NoError(t, err)
	assert.Equal(t, model.CompletionDelivered, stored.State())
	assert.Equal(t, "store-a", f.location(t, 1))
}

func TestCompletion_OutOfRangeKitSurfacesAsSyncError(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()
	in := input()
	in.KitNumber = 9

	_, err := f.uc.MarkPickedUp(ctx, in)
	require.NoError(t, err)
	_, err = f.uc.MarkDelivered(ctx, in)
	assert.ErrorIs(t, err, kit.ErrKitNumberOutOfRange)
	var syncErr *transfer.LocationSyncError
	assert.ErrorAs(t, err, &syncErr)
}

func TestCompletion_ClearCompletions(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()

	_, err := f.uc.MarkPickedUp(ctx, input())
	require.NoError(t, err)
	later := input()
	later.PerformanceDate = perfDate.AddDate(0, 0, 10)
	_, err = f.uc.MarkPickedUp(ctx, later)
	require.NoError(t, err)
	f.drain()

	n, err := f.uc.ClearCompletions(ctx, org, perfDate.AddDate(0, 0, -1), perfDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, f.drain())

	rest, err := f.uc.GetTransferCompletions(ctx, org, perfDate, later.PerformanceDate)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	_, err = f.uc.ClearCompletions(ctx, org, perfDate, perfDate.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, transfer.ErrInvalidWindow)
}

func TestCompletion_SameDayTimestampsShareRecord(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()

	evening := input()
	picked, err := f.uc.MarkPickedUp(ctx, evening)
	require.NoError(t, err)
	assert.Equal(t, perfDate, evening.PerformanceDate, "caller input must not be modified")

	stored, err := f.repo.Get(ctx, org, evening.Key())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, picked.ID, stored.ID)

	morning := input()
	morning.PerformanceDate = time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, evening.Key(), morning.Key())

	delivered, err := f.uc.MarkDelivered(ctx, morning)
	require.NoError(t, err)
	assert.Equal(t, picked.ID, delivered.ID)
	assert.Equal(t, model.CompletionDelivered, delivered.State())
}
