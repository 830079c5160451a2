package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/auth"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/planning/dto"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUseCase struct {
	lastPlan *dto.PlanInput
	err      error
}

func (s *stubUseCase) ComputeShortages(ctx context.Context, organizationID string, start, end time.Time) (*model.ShortageReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.ShortageReport{WindowStart: start, WindowEnd: end, Shortages: []model.Shortage{}}, nil
}

func (s *stubUseCase) PlanTransfers(ctx context.Context, input *dto.PlanInput) (*dto.PlanResult, error) {
	s.lastPlan = input
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PlanResult{Suggestions: []model.TransferSuggestion{}}, nil
}

func router(uc *stubUseCase) http.Handler {
	r := chi.NewRouter()
	r.Use(auth.Middleware)
	NewPlanningHandler(uc, logger.NewNop()).RegisterRoutes(r)
	return r
}

func TestPlanningHandler_Plan(t *testing.T) {
	uc := &stubUseCase{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/planning/plan",
		strings.NewReader(`{"transfer_dates":["2024-06-03","2024-06-07"],"start":"2024-06-03","end":"2024-06-09"}`))
	req.Header.Set(auth.HeaderOrganizationID, "org-1")
	w := httptest.NewRecorder()
	router(uc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, uc.lastPlan)
	assert.Equal(t, "org-1", uc.lastPlan.OrganizationID)
	assert.Len(t, uc.lastPlan.TransferDates, 2)
}

func TestPlanningHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		method string
		path   string
		body   string
		org    bool
		want   int
	}{
		{"no organization", nil, http.MethodGet, "/api/v1/planning/shortages?start=2024-06-03&end=2024-06-09", "", false, http.StatusUnauthorized},
		{"bad date", nil, http.MethodPost, "/api/v1/planning/plan", `{"transfer_dates":["monday"],"start":"2024-06-03","end":"2024-06-09"}`, true, http.StatusBadRequest},
		{"timeout", context.DeadlineExceeded, http.MethodGet, "/api/v1/planning/shortages?start=2024-06-03&end=2024-06-09", "", true, http.StatusGatewayTimeout},
		{"ok", nil, http.MethodGet, "/api/v1/planning/shortages?start=2024-06-03&end=2024-06-09", "", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			if tt.org {
				req.Header.Set(auth.HeaderOrganizationID, "org-1")
			}
			w := httptest.NewRecorder()
			router(&stubUseCase{err: tt.err}).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			if tt.want == http.StatusOK {
				var report model.ShortageReport
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
				assert.NotNil(t, report.Shortages)
			}
		})
	}
}
