package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/auth"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/transfer"
	"github.com/fekuna/mystery-kit-service/internal/transfer/dto"
	"github.com/fekuna/mystery-kit-service/pkg/httpx"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Watcher streams completion snapshots. *listener.CompletionListener implements it.
type Watcher interface {
	Watch(ctx context.Context, organizationID string, start, end time.Time) (<-chan dto.CompletionSnapshot, error)
}

type TransferHandler struct {
	events      transfer.EventUseCase
	completions transfer.CompletionUseCase
	watcher     Watcher
	heartbeat   time.Duration
	logger      logger.ZapLogger
}

func NewTransferHandler(events transfer.EventUseCase, completions transfer.CompletionUseCase, watcher Watcher, log logger.ZapLogger) *TransferHandler {
	return &TransferHandler{
		events:      events,
		completions: completions,
		watcher:     watcher,
		heartbeat:   25 * time.Second,
		logger:      log,
	}
}

func (h *TransferHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/kit-transfers", func(r chi.Router) {
		r.Get("/events", h.listEvents)
		r.Post("/events", h.confirmPlan)
		r.Post("/events/cancel-pending", h.cancelPending)
		r.Put("/events/{id}/status", h.updateStatus)
		r.Delete("/events/{id}", h.deleteEvent)

		r.Get("/completions", h.listCompletions)
		r.Delete("/completions", h.clearCompletions)
		r.Get("/completions/stream", h.streamCompletions)
		r.Post("/completions/pickup", h.completion(h.completions.MarkPickedUp))
		r.Post("/completions/pickup/undo", h.completion(h.completions.UnmarkPickedUp))
		r.Post("/completions/delivery", h.completion(h.completions.MarkDelivered))
		r.Post("/completions/delivery/undo", h.completion(h.completions.UnmarkDelivered))
	})
}

func (h *TransferHandler) listEvents(w http.ResponseWriter, r *http.Request) {
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

	var status *model.TransferStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := model.ParseTransferStatus(s)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
		status = &st
	}

	events, err := h.events.ListTransferEvents(r.Context(), orgID, start, end, status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, events)
}

func (h *TransferHandler) confirmPlan(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req dto.ConfirmPlanRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		return
	}

	suggestions := make([]model.TransferSuggestion, 0, len(req.Suggestions))
	for _, s := range req.Suggestions {
		// Dates were checked by the datetime validator.
		perf, _ := httpx.ParseDate(s.PerformanceDate)
		td, _ := httpx.ParseDate(s.TransferDate)
		suggestions = append(suggestions, model.TransferSuggestion{
			ScenarioID:      s.ScenarioID,
			KitNumber:       s.KitNumber,
			FromStoreID:     s.FromStoreID,
			ToStoreID:       s.ToStoreID,
			PerformanceDate: perf,
			TransferDate:    td,
		})
	}

	events, err := h.events.ConfirmPlan(r.Context(), &dto.ConfirmPlanInput{
		OrganizationID: orgID,
		Suggestions:    suggestions,
		Notes:          req.Notes,
		Actor:          auth.CurrentActor(r.Context()),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, events)
}

func (h *TransferHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req dto.UpdateStatusRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		return
	}
	status, err := model.ParseTransferStatus(req.Status)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	ev, err := h.events.UpdateTransferStatus(r.Context(), orgID, chi.URLParam(r, "id"), status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, ev)
}

func (h *TransferHandler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	orgID, err := auth.RequireOrganization(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.events.DeleteTransferEvent(r.Context(), orgID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransferHandler) cancelPending(w http.ResponseWriter, r *http.Request) {
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
	n, err := h.events.CancelPendingTransfers(r.Context(), orgID, start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, dto.CountResponse{Count: n})
}

func (h *TransferHandler) listCompletions(w http.ResponseWriter, r *http.Request) {
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
	completions, err := h.completions.GetTransferCompletions(r.Context(), orgID, start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, completions)
}

func (h *TransferHandler) clearCompletions(w http.ResponseWriter, r *http.Request) {
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
	n, err := h.completions.ClearCompletions(r.Context(), orgID, start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, dto.CountResponse{Count: n})
}

type completionOp func(ctx context.Context, input *dto.CompletionInput) (*model.TransferCompletion, error)

func (h *TransferHandler) completion(op completionOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := auth.RequireOrganization(r.Context())
		if err != nil {
			h.writeError(w, err)
			return
		}
		var req dto.CompletionRequest
		if err := httpx.Decode(w, r, &req); err != nil {
			return
		}
		perf, _ := httpx.ParseDate(req.PerformanceDate)

		rec, err := op(r.Context(), &dto.CompletionInput{
			OrganizationID:  orgID,
			ScenarioID:      req.ScenarioID,
			KitNumber:       req.KitNumber,
			PerformanceDate: perf,
			FromStoreID:     req.FromStoreID,
			ToStoreID:       req.ToStoreID,
			Actor:           auth.CurrentActor(r.Context()),
		})

		var syncErr *transfer.LocationSyncError
		if err != nil && !errors.As(err, &syncErr) {
			h.writeError(w, err)
			return
		}

		resp := dto.CompletionResponse{Completion: rec, State: rec.State()}
		if syncErr != nil {
			msg := syncErr.Error()
			resp.LocationSyncError = &msg
		}
		httpx.Respond(w, http.StatusOK, resp)
	}
}

// streamCompletions serves completion snapshots as server-sent events.
func (h *TransferHandler) streamCompletions(w http.ResponseWriter, r *http.Request) {
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
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.Error(w, http.StatusInternalServerError, "streaming_unsupported", "response does not support streaming")
		return
	}

	snapshots, err := h.watcher.Watch(r.Context(), orgID, start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				h.logger.Error("Failed to encode completion snapshot", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: completions\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (h *TransferHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNoOrganization):
		httpx.Error(w, http.StatusUnauthorized, "no_organization", err.Error())
	case errors.Is(err, transfer.ErrInvalidTransition):
		httpx.Error(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, transfer.ErrInvalidWindow):
		httpx.Error(w, http.StatusBadRequest, "invalid_range", err.Error())
	case errors.Is(err, transfer.ErrEventNotFound):
		httpx.Error(w, http.StatusNotFound, "not_found", err.Error())
	default:
		h.logger.Error("transfer request failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
