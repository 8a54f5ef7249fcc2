package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brewtrail/brewtrail-engine/pkg/apperrors"
	"github.com/brewtrail/brewtrail-engine/pkg/repositories"
)

// GeoHandler serves the state, county and city directory endpoints.
type GeoHandler struct {
	states   repositories.StateRepository
	counties repositories.CountyRepository
	cities   repositories.CityRepository
	logger   *zap.Logger
}

// NewGeoHandler creates a new GeoHandler.
func NewGeoHandler(
	states repositories.StateRepository,
	counties repositories.CountyRepository,
	cities repositories.CityRepository,
	logger *zap.Logger,
) *GeoHandler {
	return &GeoHandler{states: states, counties: counties, cities: cities, logger: logger}
}

// RegisterRoutes registers the geo handler's routes on the given mux.
func (h *GeoHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/states", h.ListStates)
	mux.HandleFunc("GET /api/states/{stateId}/counties", h.ListCounties)
	mux.HandleFunc("GET /api/counties/{countyId}/cities", h.ListCities)
	mux.HandleFunc("GET /api/cities", h.ListCitiesPaged)
	mux.HandleFunc("GET /api/cities/{id}", h.GetCity)
	mux.HandleFunc("GET /api/cities/search/{name}", h.SearchCities)
}

// ListStates handles GET /api/states requests.
func (h *GeoHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.states.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list states", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list states"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"data": states}); err != nil {
		h.logger.Error("Failed to encode states response", zap.Error(err))
	}
}

// ListCounties handles GET /api/states/{stateId}/counties requests.
func (h *GeoHandler) ListCounties(w http.ResponseWriter, r *http.Request) {
	stateID, err := uuid.Parse(r.PathValue("stateId"))
	if err != nil {
		if writeErr := ErrorResponse(w, http.StatusBadRequest, "invalid_state_id", "Invalid state ID format"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	counties, err := h.counties.ListByState(r.Context(), stateID)
	if err != nil {
		h.logger.Error("Failed to list counties", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list counties"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}
	if len(counties) == 0 {
		if writeErr := ErrorResponse(w, http.StatusNotFound, "counties_not_found", "No counties found for state"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"data": counties}); err != nil {
		h.logger.Error("Failed to encode counties response", zap.Error(err))
	}
}

// ListCities handles GET /api/counties/{countyId}/cities requests.
func (h *GeoHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	countyID, err := uuid.Parse(r.PathValue("countyId"))
	if err != nil {
		if writeErr := ErrorResponse(w, http.StatusBadRequest, "invalid_county_id", "Invalid county ID format"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	cities, err := h.cities.ListByCounty(r.Context(), countyID)
	if err != nil {
		h.logger.Error("Failed to list cities", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list cities"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}
	if len(cities) == 0 {
		if writeErr := ErrorResponse(w, http.StatusNotFound, "cities_not_found", "No cities found for county"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"data": cities}); err != nil {
		h.logger.Error("Failed to encode cities response", zap.Error(err))
	}
}

// ListCitiesPaged handles GET /api/cities requests.
func (h *GeoHandler) ListCitiesPaged(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	cities, total, err := h.cities.List(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list cities", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list cities"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, NewPagedResponse(cities, page, pageSize, total)); err != nil {
		h.logger.Error("Failed to encode cities response", zap.Error(err))
	}
}

// GetCity handles GET /api/cities/{id} requests.
func (h *GeoHandler) GetCity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if writeErr := ErrorResponse(w, http.StatusBadRequest, "invalid_city_id", "Invalid city ID format"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	city, err := h.cities.GetByID(r.Context(), id)
	if errors.Is(err, apperrors.ErrNotFound) {
		if writeErr := ErrorResponse(w, http.StatusNotFound, "city_not_found", "City not found"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}
	if err != nil {
		h.logger.Error("Failed to get city", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get city"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"data": city}); err != nil {
		h.logger.Error("Failed to encode city response", zap.Error(err))
	}
}

// SearchCities handles GET /api/cities/search/{name} requests.
func (h *GeoHandler) SearchCities(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	cities, err := h.cities.SearchByName(r.Context(), name)
	if err != nil {
		h.logger.Error("Failed to search cities", zap.Error(err))
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to search cities"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"data": cities}); err != nil {
		h.logger.Error("Failed to encode cities response", zap.Error(err))
	}
}
