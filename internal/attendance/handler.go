package attendance

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/workpulse/workpulse/internal/platform/httpx"
	"github.com/workpulse/workpulse/internal/shared"
)

// Handler serves the attendance read path. Writes go through the realtime
// channel, not HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers attendance routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{employeeID}", h.history)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	events, err := h.service.History(r.Context(), p, employeeID)
	if err != nil {
		h.logger.Warn("attendance history", slog.String("employee_id", employeeID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if events == nil {
		events = []Event{}
	}
	httpx.JSON(w, http.StatusOK, events)
}
