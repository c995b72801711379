package middleware

import (
	"net/http"
	"slices"

	"github.com/dukerupert/nacp/internal/auth"
	"github.com/dukerupert/nacp/internal/store"
)

// SessionCookieName holds the session token for admins and census users.
const SessionCookieName = "nacp_session"

// RequireAuth validates the session cookie and populates AuthContext.
// Unauthenticated requests are sent to loginPath; HTMX requests get an
// HX-Redirect header instead of a 303.
func RequireAuth(sessionStore *store.SessionStore, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				redirectTo(w, r, loginPath)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				redirectTo(w, r, loginPath)
				return
			}

			ac := auth.AuthContext{
				Username:  sess.Username,
				Role:      sess.Role,
				SessionID: sess.ID,
			}
			if sess.UserID != nil {
				ac.UserID = *sess.UserID
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated users whose role is not listed.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, auth.Role(r.Context())) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin checks that the authenticated user has the Admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func redirectTo(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
