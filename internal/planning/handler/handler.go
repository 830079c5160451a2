package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/auth"
	"github.com/fekuna/mystery-kit-service/internal/planning"
	"github.com/fekuna/mystery-kit-service/internal/planning/dto"
	"github.com/fekuna/mystery-kit-service/pkg/httpx"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PlanningHandler struct {
	uc     planning.UseCase
	logger logger.ZapLogger
}

func NewPlanningHandler(uc planning.UseCase, log logger.ZapLogger) *PlanningHandler {
	return &PlanningHandler{uc: uc, logger: log}
}

func (h *PlanningHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/planning", func(r chi.Router) {
		r.Get("/shortages", h.shortages)
		r.Post("/plan", h.plan)
	})
}

func (h *PlanningHandler) shortages(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	start, end, err := httpx.DateRange(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_range", err.Error())
		return
	}

	report, err := h.uc.ComputeShortages(r.Context(), orgID, start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, report)
}

func (h *PlanningHandler) plan(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req dto.PlanRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		return
	}

	start, _ := httpx.ParseDate(req.Start)
	end, _ := httpx.ParseDate(req.End)
	days := make([]time.Time, 0, len(req.TransferDates))
	for _, s := range req.TransferDates {
		d, _ := httpx.ParseDate(s)
		days = append(days, d)
	}

	res, err := h.uc.PlanTransfers(r.Context(), &dto.PlanInput{
		OrganizationID: orgID,
		TransferDates:  days,
		Start:          start,
		End:            end,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, res)
}

func (h *PlanningHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNoOrganization):
		httpx.Error(w, http.StatusUnauthorized, "no_organization", err.Error())
	case errors.Is(err, planning.ErrInvalidWindow):
		httpx.Error(w, http.StatusBadRequest, "invalid_range", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("planning upstream timed out", zap.Error(err))
		httpx.Error(w, http.StatusGatewayTimeout, "upstream_timeout", err.Error())
	default:
		h.logger.Error("planning request failed", zap.Error(err))
		httpx.Error(w, http.StatusBadGateway, "upstream_failed", err.Error())
	}
}
