// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/civix-app/civix-backend/internal/core"
	"github.com/civix-app/civix-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the profile route for any authenticated account and
// the account-management routes for super admins.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, superAdminOnly func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/me", h.Me)
	})

	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(superAdminOnly)
		r.Get("/", h.ListUsers)
		r.Post("/{userID}/approve", h.ApproveOfficial)
		r.Patch("/{userID}/role", h.UpdateRole)
	})
}

type meResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeUserError(w, err)
		return
	}

	core.OK(w, meResponse{Success: true, User: ToUserResponse(u)})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromQuery(r)

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

// ListAllUsers serves the legacy account listing mounted under /auth/users.
// The flat {success, users} shape predates pagination and stays as is.
func (h *Handler) ListAllUsers(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromQuery(r)
	params.Normalize()

	users, _, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, UsersResponse{
		Success: true,
		Users:   ToUserResponseList(users),
	})
}

func (h *Handler) ApproveOfficial(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := h.service.ApproveOfficial(r.Context(), userID); err != nil {
		h.writeUserError(w, err)
		return
	}

	core.OKMessage(w, "official approved")
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.UpdateUserRole(r.Context(), userID, req.Role); err != nil {
		h.writeUserError(w, err)
		return
	}

	core.OKMessage(w, "role updated")
}

func (h *Handler) writeUserError(w http.ResponseWriter, err error) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}

func listParamsFromQuery(r *http.Request) ListUsersParams {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	return ListUsersParams{
		Page:     page,
		PageSize: pageSize,
		Search:   q.Get("search"),
		Role:     q.Get("role"),
	}
}
