package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()

	err := ErrorResponse(rec, http.StatusNotFound, "city_not_found", "City not found")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "city_not_found", body["error"])
	assert.Equal(t, "City not found", body["message"])
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	err := WriteJSON(rec, http.StatusAccepted, map[string]int{"count": 7})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 7, body["count"])
}

func TestNewPagedResponse_TotalPages(t *testing.T) {
	tests := []struct {
		name       string
		totalItems int
		pageSize   int
		want       int
	}{
		{"exact fit", 40, 10, 4},
		{"partial last page", 41, 10, 5},
		{"empty", 0, 10, 0},
		{"single item", 1, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := NewPagedResponse(nil, 1, tt.pageSize, tt.totalItems)
			assert.Equal(t, tt.want, response.PageInfo.TotalPages)
		})
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/cities?page=2&page_size=500", nil)
	page, pageSize := parsePagination(req)
	assert.Equal(t, 2, page)
	assert.Equal(t, maxPageSize, pageSize)

	req = httptest.NewRequest(http.MethodGet, "/api/cities?page=-1&page_size=abc", nil)
	page, pageSize = parsePagination(req)
	assert.Equal(t, 1, page)
	assert.Equal(t, defaultPageSize, pageSize)
}
