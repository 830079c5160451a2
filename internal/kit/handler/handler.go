package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fekuna/mystery-kit-service/internal/auth"
	"github.com/fekuna/mystery-kit-service/internal/catalog"
	"github.com/fekuna/mystery-kit-service/internal/kit"
	"github.com/fekuna/mystery-kit-service/internal/kit/dto"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/pkg/cache"
	"github.com/fekuna/mystery-kit-service/pkg/httpx"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type KitHandler struct {
	uc     kit.UseCase
	logger logger.ZapLogger
}

func NewKitHandler(uc kit.UseCase, log logger.ZapLogger) *KitHandler {
	return &KitHandler{uc: uc, logger: log}
}

func (h *KitHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/kits", func(r chi.Router) {
		r.Get("/locations", h.listLocations)
		r.Put("/locations/{scenarioID}", h.setAllLocations)
		r.Get("/locations/{scenarioID}/{kitNumber}", h.getLocation)
		r.Put("/locations/{scenarioID}/{kitNumber}", h.setLocation)
		r.Put("/locations/{scenarioID}/{kitNumber}/condition", h.updateCondition)
		r.Put("/scenarios/{scenarioID}/count", h.setKitCount)
		r.Post("/reconcile", h.reconcile)
	})
}

func (h *KitHandler) listLocations(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	var scenarioID *string
	if s := r.URL.Query().Get("scenario_id"); s != "" {
		scenarioID = &s
	}

	locs, err := h.uc.GetKitLocations(r.Context(), orgID, scenarioID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, locs)
}

func (h *KitHandler) getLocation(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	kitNumber, ok := kitNumberParam(w, r)
	if !ok {
		return
	}

	loc, err := h.uc.GetKitLocation(r.Context(), orgID, chi.URLParam(r, "scenarioID"), kitNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, loc)
}

func (h *KitHandler) setLocation(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	kitNumber, ok := kitNumberParam(w, r)
	if !ok {
		return
	}
	var req dto.SetKitLocationRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		return
	}

	loc, err := h.uc.SetKitLocation(r.Context(), &dto.SetKitLocationInput{
		OrganizationID: orgID,
		ScenarioID:     chi.URLParam(r, "scenarioID"),
		KitNumber:      kitNumber,
		StoreID:        req.StoreID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, loc)
}

func (h *KitHandler) setAllLocations(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req dto.SetKitLocationRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		return
	}

	locs, err := h.uc.SetAllKitLocations(r.Context(), &dto.SetAllKitLocationsInput{
		OrganizationID: orgID,
		ScenarioID:     chi.URLParam(r, "scenarioID"),
		StoreID:        req.StoreID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, locs)
}

func (h *KitHandler) updateCondition(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	kitNumber, ok := kitNumberParam(w, r)
	if !ok {
		return
	}
	var req dto.UpdateKitConditionRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		return
	}
	condition, err := model.ParseKitCondition(req.Condition)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_condition", err.Error())
		return
	}

	loc, err := h.uc.UpdateKitCondition(r.Context(), &dto.UpdateKitConditionInput{
		OrganizationID: orgID,
		ScenarioID:     chi.URLParam(r, "scenarioID"),
		KitNumber:      kitNumber,
		Condition:      condition,
		Notes:          req.Notes,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, loc)
}

func (h *KitHandler) setKitCount(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req dto.SetKitCountRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		return
	}

	res, err := h.uc.SetKitCount(r.Context(), orgID, chi.URLParam(r, "scenarioID"), *req.KitCount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, res)
}

func (h *KitHandler) reconcile(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.uc.ReconcileKits(r.Context(), orgID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, res)
}

func kitNumberParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "kitNumber"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_kit_number", "kit number must be an integer")
		return 0, false
	}
	return n, true
}

func (h *KitHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNoOrganization):
		httpx.Error(w, http.StatusUnauthorized, "no_organization", err.Error())
	case errors.Is(err, kit.ErrKitNumberOutOfRange):
		httpx.Error(w, http.StatusBadRequest, "kit_number_out_of_range", err.Error())
	case errors.Is(err, catalog.ErrScenarioNotFound):
		httpx.Error(w, http.StatusNotFound, "scenario_not_found", err.Error())
	case errors.Is(err, cache.ErrLockNotObtained):
		httpx.Error(w, http.StatusConflict, "busy", err.Error())
	default:
		h.logger.Error("kit request failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
