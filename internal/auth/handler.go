package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workpulse/workpulse/internal/platform/httpx"
	"github.com/workpulse/workpulse/internal/token"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authority *token.Authority
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authority *token.Authority) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		authority: authority,
		validator: validator.New(),
		now:       time.Now,
	}
}

// MountRoutes registers auth routes on the provided router. Both routes are
// public: they are where credentials get exchanged for tokens.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/signup", h.handleSignup)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ident, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	signed, err := h.authority.Issue(token.Subject{
		IdentityID: ident.ID,
		EmployeeID: ident.EmployeeID,
		OrgID:      ident.OrgID,
		Role:       ident.Role,
	}, h.now())
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, loginResponse{Token: signed})
}

type signupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	UserName    string `json:"userName" validate:"required"`
	CompanyName string `json:"companyName" validate:"required"`
}

type signupResponse struct {
	IdentityID int64 `json:"identityId"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ident, err := h.service.SignUp(r.Context(), SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		UserName:    req.UserName,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		h.logger.Warn("signup rejected", slog.String("email", req.Email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, signupResponse{IdentityID: ident.ID})
}
