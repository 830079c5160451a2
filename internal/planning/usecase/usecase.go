package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/catalog"
	"github.com/fekuna/mystery-kit-service/internal/metrics"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/planner"
	"github.com/fekuna/mystery-kit-service/internal/planning"
	"github.com/fekuna/mystery-kit-service/internal/planning/dto"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LocationReader lists kit locations. kit.UseCase implements it.
type LocationReader interface {
	GetKitLocations(ctx context.Context, organizationID string, scenarioID *string) ([]model.KitLocation, error)
}

type planningUseCase struct {
	stores    catalog.StoreCatalog
	scenarios catalog.ScenarioCatalog
	schedule  catalog.ScheduleSource
	locations LocationReader
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewPlanningUseCase(
	stores catalog.StoreCatalog,
	scenarios catalog.ScenarioCatalog,
	schedule catalog.ScheduleSource,
	locations LocationReader,
	timeout time.Duration,
	m *metrics.Metrics,
	log logger.ZapLogger,
) planning.UseCase {
	return &planningUseCase{
		stores:    stores,
		scenarios: scenarios,
		schedule:  schedule,
		locations: locations,
		timeout:   timeout,
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

type snapshot struct {
	stores       []model.Store
	scenarios    []model.Scenario
	locations    []model.KitLocation
	performances []model.Performance
}

// fetch reads every upstream concurrently and gives up on the first failure
// or when the timeout passes. Nothing is retried.
func (uc *planningUseCase) fetch(ctx context.Context, organizationID string, start, end time.Time) (*snapshot, error) {
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.stores, err = uc.stores.ListActiveStores(gctx, organizationID)
		if err != nil {
			return fmt.Errorf("fetch stores: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.scenarios, err = uc.scenarios.ListScenariosWithKits(gctx, organizationID)
		if err != nil {
			return fmt.Errorf("fetch scenarios: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.locations, err = uc.locations.GetKitLocations(gctx, organizationID, nil)
		if err != nil {
			return fmt.Errorf("fetch kit locations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.performances, err = uc.schedule.ListPerformances(gctx, organizationID, start, end)
		if err != nil {
			return fmt.Errorf("fetch performances: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (uc *planningUseCase) ComputeShortages(ctx context.Context, organizationID string, start, end time.Time) (*model.ShortageReport, error) {
	start, end = planner.Day(start), planner.Day(end)
	if end.Before(start) {
		return nil, planning.ErrInvalidWindow
	}

	snap, err := uc.fetch(ctx, organizationID, start, end)
	if err != nil {
		uc.logger.Error("Failed to load planning snapshot", zap.String("organization_id", organizationID), zap.Error(err))
		return nil, err
	}

	demands := planner.ExtractDemands(planner.FilterWindow(snap.performances, start, end))
	shortages := planner.DetectShortages(demands, model.StateOf(snap.locations), snap.scenarios, planner.NewGroups(snap.stores))
	uc.metrics.ObserveShortages(len(shortages))

	return &model.ShortageReport{
		WindowStart: start,
		WindowEnd:   end,
		ComputedAt:  uc.now(),
		Shortages:   shortages,
	}, nil
}

func (uc *planningUseCase) PlanTransfers(ctx context.Context, input *dto.PlanInput) (*dto.PlanResult, error) {
	began := time.Now()
	start, end := planner.Day(input.Start), planner.Day(input.End)
	if end.Before(start) {
		return nil, planning.ErrInvalidWindow
	}

	snap, err := uc.fetch(ctx, input.OrganizationID, start, end)
	if err != nil {
		uc.logger.Error("Failed to load planning snapshot", zap.String("organization_id", input.OrganizationID), zap.Error(err))
		return nil, err
	}

	state := model.StateOf(snap.locations)
	demands := planner.ExtractDemands(planner.FilterWindow(snap.performances, start, end))
	groups := planner.NewGroups(snap.stores)

	res := planner.Plan(planner.Input{
		State:         state,
		Demands:       demands,
		Scenarios:     snap.scenarios,
		Stores:        snap.stores,
		TransferDates: input.TransferDates,
	})

	out := &dto.PlanResult{
		WindowStart:    start,
		WindowEnd:      end,
		ComputedAt:     uc.now(),
		Suggestions:    res.Suggestions,
		Missed:         res.Missed,
		Unfulfilled:    res.Unfulfilled,
		Routes:         res.Routes,
		Windows:        planner.CoverageWindows(input.TransferDates, end),
		FinalState:     placements(res.FinalState),
		NoTransferDays: res.NoTransferDays,
		Remaining:      []model.Shortage{},
	}
	if !res.NoTransferDays {
		out.Remaining = planner.Verify(state, res.Suggestions, demands, snap.scenarios, groups)
	}

	uc.metrics.ObservePlan(time.Since(began), len(res.Suggestions), len(res.Missed), len(res.Unfulfilled))
	uc.logger.Debug("Transfer plan computed",
		zap.String("organization_id", input.OrganizationID),
		zap.Int("demands", len(demands)),
		zap.Int("suggestions", len(res.Suggestions)),
		zap.Int("missed", len(res.Missed)),
		zap.Int("unfulfilled", len(res.Unfulfilled)),
	)
	return out, nil
}

func placements(state model.KitState) []dto.KitPlacement {
	out := make([]dto.KitPlacement, 0, len(state))
	for k, store := range state {
		out = append(out, dto.KitPlacement{ScenarioID: k.ScenarioID, KitNumber: k.KitNumber, StoreID: store})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScenarioID != out[j].ScenarioID {
			return out[i].ScenarioID < out[j].ScenarioID
		}
		return out[i].KitNumber < out[j].KitNumber
	})
	return out
}
