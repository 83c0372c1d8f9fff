package directory

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campus-atrium/atrium/internal/platform/httpx"
	"github.com/campus-atrium/atrium/internal/roles"
	"github.com/campus-atrium/atrium/internal/session"
	"github.com/campus-atrium/atrium/internal/shared"
)

// Handler wires HTTP endpoints for the user directory.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	auth      session.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, auth session.Middleware) *Handler {
	return &Handler{logger: logger, service: service, auth: auth, validator: validator.New()}
}

// MountUserRoutes registers the /users subtree. Registration is public;
// everything else requires a valid token.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Post("/", h.register)
	r.Group(func(r chi.Router) {
		r.Use(h.auth.RequireToken)
		r.Get("/", h.listUsers)
		r.Patch("/{id}/toggle-status", h.toggleStatus)
		r.Patch("/{id}/change-role", h.changeRole)
	})
}

// MountRoleRoutes registers the role-option listings.
func (h *Handler) MountRoleRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth.RequireToken)
		r.Get("/roles", h.assignableRoles)
		r.Get("/filter-roles", h.filterRoles)
	})
}

// UserResponse is the JSON shape of a directory record.
type UserResponse struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewUserResponse maps a domain record to its JSON shape.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role.String(),
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	users, err := h.service.ListVisible(r.Context(), actor, r.URL.Query().Get("role"))
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = NewUserResponse(&users[i])
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

type registerRequest struct {
	Username        string `json:"username" validate:"required,min=3"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	Role            string `json:"role"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.BadRequestf("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.BadRequestf("%s", validationDetail(err)))
		return
	}
	user, err := h.service.Register(r.Context(), RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Role:            req.Role,
	})
	if err != nil {
		h.respondError(w, "register user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    NewUserResponse(user),
	})
}

func (h *Handler) toggleStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	targetID, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, message, err := h.service.ToggleStatus(r.Context(), actor, targetID)
	if err != nil {
		h.respondError(w, "toggle status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": message,
		"user":    NewUserResponse(updated),
	})
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	targetID, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req changeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.BadRequestf("invalid request body"))
		return
	}
	updated, message, err := h.service.ChangeRole(r.Context(), actor, targetID, req.Role)
	if err != nil {
		h.respondError(w, "change role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": message,
		"user":    NewUserResponse(updated),
	})
}

func (h *Handler) assignableRoles(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles.AssignableRoles(actor.Role)})
}

func (h *Handler) filterRoles(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"filter_roles": roles.FilterRoles(actor.Role)})
}

func (h *Handler) respondError(w http.ResponseWriter, operation string, err error) {
	if h.logger != nil {
		h.logger.Warn(operation, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, shared.BadRequestf("invalid user id")
	}
	return id, nil
}

func validationDetail(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return "invalid field: " + errs[0].Field()
	}
	return "validation failed"
}
