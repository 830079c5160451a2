package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gte=1"`
}

func TestDecode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"fog","count":2}`))
		var s sample
		require.NoError(t, Decode(w, r, &s))
		assert.Equal(t, "fog", s.Name)
	})

	t.Run("validation failure lists fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":0}`))
		var s sample
		require.Error(t, Decode(w, r, &s))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "required", body.Fields["name"])
		assert.Equal(t, "gte", body.Fields["count"])
	})

	t.Run("malformed json", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		var s sample
		require.Error(t, Decode(w, r, &s))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDateRange(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?start=2024-06-03&end=2024-06-09", nil)
	start, end, err := DateRange(r)
	require.NoError(t, err)
	assert.Equal(t, 3, start.Day())
	assert.Equal(t, 9, end.Day())

	r = httptest.NewRequest(http.MethodGet, "/?start=2024-06-09&end=2024-06-03", nil)
	_, _, err = DateRange(r)
	assert.Error(t, err)

	r = httptest.NewRequest(http.MethodGet, "/?start=june", nil)
	_, _, err = DateRange(r)
	assert.Error(t, err)
}
