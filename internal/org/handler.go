package org

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/workpulse/workpulse/internal/platform/httpx"
	"github.com/workpulse/workpulse/internal/shared"
)

// Handler wires HTTP endpoints for tenant settings.
type Handler struct {
	logger  *slog.Logger
	service *Service
	admin   func(http.Handler) http.Handler
}

// NewHandler constructs a Handler instance. The admin middleware layers the
// ADMIN role requirement on top of the authentication gate.
func NewHandler(logger *slog.Logger, service *Service, admin func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, admin: admin}
}

// MountRoutes registers org routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.getOwn)
	r.With(h.admin).Put("/location", h.updateLocation)
}

func (h *Handler) getOwn(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	o, err := h.service.Get(r.Context(), p)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

type locationUpdateRequest struct {
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	GeofenceRadiusM *float64 `json:"geofenceRadius"`
}

func (h *Handler) updateLocation(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req locationUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	o, err := h.service.UpdateGeofence(r.Context(), p, req.Latitude, req.Longitude, req.GeofenceRadiusM)
	if err != nil {
		h.logger.Warn("update geofence", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}
