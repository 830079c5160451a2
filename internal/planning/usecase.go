package planning

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/planning/dto"
)

type UseCase interface {
	ComputeShortages(ctx context.Context, organizationID string, start, end time.Time) (*model.ShortageReport, error)
	PlanTransfers(ctx context.Context, input *dto.PlanInput) (*dto.PlanResult, error)
}

var ErrInvalidWindow = errors.New("window end is before start")
