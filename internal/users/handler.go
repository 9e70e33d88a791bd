package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workpulse/workpulse/internal/platform/httpx"
	"github.com/workpulse/workpulse/internal/shared"
)

// Handler wires HTTP endpoints for the employee directory.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	admin     func(http.Handler) http.Handler
}

// NewHandler constructs a Handler instance. The admin middleware layers the
// ADMIN role requirement on top of the authentication gate.
func NewHandler(logger *slog.Logger, service *Service, admin func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		admin:     admin,
	}
}

// MountRoutes registers the self-service routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Put("/me", h.updateMe)
	r.Post("/me/password", h.changePassword)
	r.Get("/{employeeID}", h.getByEmployeeID)
}

// MountAdminRoutes registers the admin directory routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Use(h.admin)
	r.Get("/users", h.list)
	r.Post("/users", h.create)
	r.Put("/users/{id}", h.update)
	r.Delete("/users/{id}", h.delete)
}

func principalOr401(w http.ResponseWriter, r *http.Request) (shared.Principal, bool) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	}
	return p, ok
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOr401(w, r)
	if !ok {
		return
	}
	e, err := h.service.Me(r.Context(), p)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOr401(w, r)
	if !ok {
		return
	}
	var update ProfileUpdate
	if err := httpx.DecodeJSON(r, &update); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	e, err := h.service.UpdateMe(r.Context(), p, update)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

type passwordChangeRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOr401(w, r)
	if !ok {
		return
	}
	var req passwordChangeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.ChangePassword(r.Context(), p, req.OldPassword, req.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getByEmployeeID(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOr401(w, r)
	if !ok {
		return
	}
	e, err := h.service.GetByEmployeeID(r.Context(), p, chi.URLParam(r, "employeeID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

type listResponse struct {
	Items      []Employee        `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOr401(w, r)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	employees, pagination, err := h.service.List(r.Context(), p, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if employees == nil {
		employees = []Employee{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: employees, Pagination: pagination})
}

type createRequest struct {
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8"`
	EmployeeID     string  `json:"employeeId" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	Department     string  `json:"department"`
	JobTitle       string  `json:"jobTitle"`
	EmploymentType string  `json:"employmentType"`
	Salary         float64 `json:"salary"`
	Role           string  `json:"role"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOr401(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	e, err := h.service.Create(r.Context(), p, CreateInput{
		Email:          req.Email,
		Password:       req.Password,
		EmployeeID:     req.EmployeeID,
		Name:           req.Name,
		Department:     req.Department,
		JobTitle:       req.JobTitle,
		EmploymentType: req.EmploymentType,
		Salary:         req.Salary,
		Role:           req.Role,
	})
	if err != nil {
		h.logger.Warn("create employee", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

type updateRequest struct {
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password"`
	EmployeeID     string  `json:"employeeId" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	Department     string  `json:"department"`
	JobTitle       string  `json:"jobTitle"`
	EmploymentType string  `json:"employmentType"`
	Salary         float64 `json:"salary"`
	Role           string  `json:"role" validate:"required"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOr401(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	e, err := h.service.Update(r.Context(), p, id, UpdateInput{
		Email:          req.Email,
		Password:       req.Password,
		EmployeeID:     req.EmployeeID,
		Name:           req.Name,
		Department:     req.Department,
		JobTitle:       req.JobTitle,
		EmploymentType: req.EmploymentType,
		Salary:         req.Salary,
		Role:           req.Role,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOr401(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
