package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/campus-atrium/atrium/internal/platform/httpx"
	"github.com/campus-atrium/atrium/internal/shared"
)

// IdentityLoader fetches the current identity snapshot for a resolved
// user ID. Implemented by the directory repository.
type IdentityLoader interface {
	IdentityByID(ctx context.Context, id int64) (shared.Identity, error)
}

// Middleware gates handlers behind a valid session token.
type Middleware struct {
	Manager *Manager
	Loader  IdentityLoader
	Logger  *slog.Logger
}

// RequireToken resolves the Authorization header and attaches the
// identity to the request context. Every failure mode (missing header,
// unknown token, revoked token, disabled account) yields the same 401
// so callers learn nothing about which check failed.
func (m Middleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		userID, ok, err := m.Manager.Resolve(r.Context(), token)
		if err != nil {
			m.log("resolve token", err)
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if !ok {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		identity, err := m.Loader.IdentityByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			m.log("load identity", err)
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if !identity.IsActive {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		ctx = contextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) log(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Error(msg, slog.Any("error", err))
	}
}

// bearerToken extracts the opaque key from "Authorization: Token <key>".
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Token") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type tokenContextKey struct{}

func contextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the raw token the request authenticated
// with. Logout uses it to revoke the exact binding.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}
