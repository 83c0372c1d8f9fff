package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campus-atrium/atrium/internal/directory"
	"github.com/campus-atrium/atrium/internal/observability"
	"github.com/campus-atrium/atrium/internal/platform/httpx"
	"github.com/campus-atrium/atrium/internal/session"
	"github.com/campus-atrium/atrium/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	sessions   *session.Manager
	middleware session.Middleware
	validator  *validator.Validate
	loginRate  int
	metrics    *observability.Metrics
}

// NewHandler constructs a Handler instance. loginRate bounds login
// attempts per minute per IP; zero disables the limiter.
func NewHandler(logger *slog.Logger, service *Service, sessions *session.Manager, middleware session.Middleware, loginRate int) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		sessions:   sessions,
		middleware: middleware,
		validator:  validator.New(),
		loginRate:  loginRate,
	}
}

// WithMetrics attaches a metrics collector and returns the handler.
func (h *Handler) WithMetrics(m *observability.Metrics) *Handler {
	h.metrics = m
	return h
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.loginRate > 0 {
			r.Use(httprate.Limit(h.loginRate, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}
		r.Post("/login", h.handleLogin)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.middleware.RequireToken)
		r.Post("/logout", h.handleLogout)
		r.Get("/profile", h.handleProfile)
		r.Post("/change-password", h.handleChangePassword)
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.BadRequestf("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.BadRequestf("email and password are required"))
		return
	}
	account, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.CountLogin("failure")
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountLogin("success")
	token, err := h.sessions.Issue(r.Context(), account.ID)
	if err != nil {
		h.logError("issue token", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	audit := SessionAudit{
		ID:          uuid.NewString(),
		UserID:      account.ID,
		TokenDigest: TokenDigest(token),
		IssuedAt:    time.Now().UTC(),
		IP:          r.RemoteAddr,
		UserAgent:   r.UserAgent(),
	}
	if err := h.service.RecordSession(r.Context(), audit); err != nil {
		h.logWarn("record session audit", err)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    accountResponse(account),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := session.TokenFromContext(r.Context())
	if token != "" {
		if err := h.sessions.Revoke(r.Context(), token); err != nil {
			h.logWarn("revoke token", err)
		}
		if err := h.service.ForgetSession(r.Context(), token); err != nil {
			h.logWarn("forget session audit", err)
		}
	}
	// Logout always succeeds: revoking twice is a no-op.
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Logout successful"})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, identityResponse(identity))
}

type changePasswordRequest struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.BadRequestf("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.BadRequestf("%s", changePasswordValidationDetail(err)))
		return
	}
	if err := h.service.ChangePassword(r.Context(), identity.ID, req.OldPassword, req.NewPassword, req.NewPasswordConfirm); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Password changed successfully"})
}

func (h *Handler) logError(msg string, err error) {
	if h.logger != nil {
		h.logger.Error(msg, slog.Any("error", err))
	}
}

func (h *Handler) logWarn(msg string, err error) {
	if h.logger != nil {
		h.logger.Warn(msg, slog.Any("error", err))
	}
}

func accountResponse(a *Account) directory.UserResponse {
	return directory.UserResponse{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		Role:        a.Role.String(),
		IsActive:    a.IsActive,
		IsSuperuser: a.IsSuperuser,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func identityResponse(id shared.Identity) map[string]any {
	return map[string]any{
		"id":           id.ID,
		"username":     id.Username,
		"email":        id.Email,
		"role":         id.Role.String(),
		"is_active":    id.IsActive,
		"is_superuser": id.IsSuperuser,
	}
}

func changePasswordValidationDetail(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		if errs[0].Field() == "NewPassword" && errs[0].Tag() == "min" {
			return "New password must be at least 8 characters"
		}
	}
	return "old_password, new_password and new_password_confirm are required"
}
