package handler

import (
	"net/http"

	"github.com/dukerupert/nacp/internal/middleware"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/store"
)

func setSessionCookie(w http.ResponseWriter, r *http.Request, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// endSession deletes the caller's session, if any, and clears the cookie.
func endSession(w http.ResponseWriter, r *http.Request, sessions *store.SessionStore) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := sessions.GetByToken(cookie.Value); err == nil && sess != nil {
			sessions.Delete(sess.ID)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
