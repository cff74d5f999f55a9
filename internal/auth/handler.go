package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gedquiz/internal/app/apiresp"
)

type contextKey string

const userContextKey contextKey = "auth_user"

type Handler struct {
	verifier *Verifier
}

func NewHandler(verifier *Verifier) *Handler {
	return &Handler{verifier: verifier}
}

// Authenticate attaches the bearer token's user to the request when one is
// sent. Requests without a token continue anonymously; a bad token is
// rejected.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := readBearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.verifier.Verify(token)
		if err != nil {
			apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.verifier.Verify(readBearerToken(r))
		if err != nil {
			msg := "unauthorized"
			if errors.Is(err, ErrAuthDisabled) {
				msg = "authentication is not configured"
			}
			apiresp.WriteError(w, r, http.StatusUnauthorized, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, user)
}

func CurrentUser(ctx context.Context) (*User, bool) {
	v := ctx.Value(userContextKey)
	if v == nil {
		return nil, false
	}
	u, ok := v.(*User)
	return u, ok
}

// CurrentUserID returns the authenticated user's id, or "" for anonymous
// requests.
func CurrentUserID(ctx context.Context) string {
	if u, ok := CurrentUser(ctx); ok {
		return u.ID
	}
	return ""
}

// ContextWithUser injects an authenticated user into context.
// Useful for tests and internal handlers.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func readBearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
