package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// PageInfo describes one page of a paginated listing.
type PageInfo struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// PagedResponse wraps a page of items with its paging metadata.
type PagedResponse struct {
	Data     interface{} `json:"data"`
	PageInfo PageInfo    `json:"page_info"`
}

// NewPagedResponse assembles a page envelope from a repository page result.
func NewPagedResponse(data interface{}, page, pageSize, totalItems int) PagedResponse {
	totalPages := totalItems / pageSize
	if totalItems%pageSize != 0 {
		totalPages++
	}
	return PagedResponse{
		Data: data,
		PageInfo: PageInfo{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  totalItems,
			TotalPages:  totalPages,
		},
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parsePagination reads page and page_size query parameters, applying
// defaults and clamping the page size.
func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	pageSize = defaultPageSize
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
