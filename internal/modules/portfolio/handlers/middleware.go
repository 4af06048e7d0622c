package handlers

import (
	"context"
	"net/http"

	"github.com/aristath/predictions-dashboard/internal/modules/portfolio"
)

// SessionCookie names the browser session cookie
const SessionCookie = "pd_session"

type sessionKey struct{}

// SessionFromContext returns the session attached by SessionMiddleware
func SessionFromContext(ctx context.Context) (*portfolio.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*portfolio.Session)
	return session, ok && session != nil
}

// WithSession attaches a session to ctx
func WithSession(ctx context.Context, session *portfolio.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionMiddleware resolves the session cookie, starting a new session when the
// cookie is missing or refers to a session that no longer exists
func SessionMiddleware(sessions *portfolio.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var session *portfolio.Session
			if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
				session, _ = sessions.Get(cookie.Value)
			}

			if session == nil {
				session = sessions.Create()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    session.ID(),
					Path:     "/",
					HttpOnly: true,
					Secure:   r.TLS != nil,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
