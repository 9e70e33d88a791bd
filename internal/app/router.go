package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/workpulse/workpulse/internal/attendance"
	"github.com/workpulse/workpulse/internal/auth"
	"github.com/workpulse/workpulse/internal/observability"
	"github.com/workpulse/workpulse/internal/org"
	"github.com/workpulse/workpulse/internal/realtime"
	"github.com/workpulse/workpulse/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthMiddleware    auth.Middleware
	AuthHandler       *auth.Handler
	AttendanceHandler *attendance.Handler
	OrgHandler        *org.Handler
	UsersHandler      *users.Handler
	ChannelHandler    *realtime.ChannelHandler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router. Authentication and the realtime
// handshake are public; everything else sits behind the bearer gate.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// The websocket upgrade needs the raw ResponseWriter; it skips the
	// wrapping middlewares and authenticates per connection instead.
	if params.ChannelHandler != nil {
		r.Get("/ws/attendance", params.ChannelHandler.Serve)
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:  params.Logger,
			Config:  params.Config,
			Metrics: params.Metrics,
		}) {
			r.Use(mw)
		}

		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireAuth)

			r.Route("/attendance", params.AttendanceHandler.MountRoutes)
			r.Route("/org", params.OrgHandler.MountRoutes)
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/admin", params.UsersHandler.MountAdminRoutes)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
