package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brewtrail/brewtrail-engine/pkg/apperrors"
	"github.com/brewtrail/brewtrail-engine/pkg/repositories"
)

// BreweriesHandler serves the brewery directory endpoints.
type BreweriesHandler struct {
	breweries repositories.BreweryRepository
	logger    *zap.Logger
}

// NewBreweriesHandler creates a new BreweriesHandler.
func NewBreweriesHandler(breweries repositories.BreweryRepository, logger *zap.Logger) *BreweriesHandler {
	return &BreweriesHandler{breweries: breweries, logger: logger}
}

// RegisterRoutes registers the breweries handler's routes on the given mux.
func (h *BreweriesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/breweries", h.List)
	mux.HandleFunc("GET /api/breweries/{id}", h.Get)
	mux.HandleFunc("GET /api/states/{stateId}/breweries", h.ListByState)
	mux.HandleFunc("GET /api/owners/{ownerId}/breweries", h.ListByOwner)
}

// List handles GET /api/breweries requests.
func (h *BreweriesHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	breweries, total, err := h.breweries.List(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list breweries", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list breweries"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, NewPagedResponse(breweries, page, pageSize, total)); err != nil {
		h.logger.Error("Failed to encode breweries response", zap.Error(err))
	}
}

// Get handles GET /api/breweries/{id} requests.
func (h *BreweriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if writeErr := ErrorResponse(w, http.StatusBadRequest, "invalid_brewery_id", "Invalid brewery ID format"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	brewery, err := h.breweries.GetByID(r.Context(), id)
	if errors.Is(err, apperrors.ErrNotFound) {
		if writeErr := ErrorResponse(w, http.StatusNotFound, "brewery_not_found", "Brewery not found"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}
	if err != nil {
		h.logger.Error("Failed to get brewery", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get brewery"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"data": brewery}); err != nil {
		h.logger.Error("Failed to encode brewery response", zap.Error(err))
	}
}

// ListByState handles GET /api/states/{stateId}/breweries requests.
func (h *BreweriesHandler) ListByState(w http.ResponseWriter, r *http.Request) {
	stateID, err := uuid.Parse(r.PathValue("stateId"))
	if err != nil {
		if writeErr := ErrorResponse(w, http.StatusBadRequest, "invalid_state_id", "Invalid state ID format"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	locations, err := h.breweries.ListLocationsByState(r.Context(), stateID)
	if err != nil {
		h.logger.Error("Failed to list brewery locations", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list brewery locations"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}
	if len(locations) == 0 {
		if writeErr := ErrorResponse(w, http.StatusNotFound, "breweries_not_found", "No breweries found for state"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"data": locations}); err != nil {
		h.logger.Error("Failed to encode brewery locations response", zap.Error(err))
	}
}

// ListByOwner handles GET /api/owners/{ownerId}/breweries requests.
func (h *BreweriesHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(r.PathValue("ownerId"))
	if err != nil {
		if writeErr := ErrorResponse(w, http.StatusBadRequest, "invalid_owner_id", "Invalid owner ID format"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	breweries, err := h.breweries.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("Failed to list breweries by owner", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list breweries"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}
	if len(breweries) == 0 {
		if writeErr := ErrorResponse(w, http.StatusNotFound, "breweries_not_found", "No breweries found for owner"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"data": breweries}); err != nil {
		h.logger.Error("Failed to encode breweries response", zap.Error(err))
	}
}
