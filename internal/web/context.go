package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/SensorDesk/internal/logging"
)

type sessionKey struct{}

// withViewSession stores sess in ctx and tags the request logger with its id.
func withViewSession(ctx context.Context, sess *viewSession) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, sess)
	return logging.WithSession(ctx, sess.id)
}

// viewSessionFrom returns the session attached by sessionMiddleware.
func viewSessionFrom(ctx context.Context) *viewSession {
	sess, _ := ctx.Value(sessionKey{}).(*viewSession)
	return sess
}

// sessionMiddleware attaches the browser's view session to the request,
// opening a new one (and setting the cookie) when none is live.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *viewSession
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			sess, _ = s.sessions.get(c.Value)
		}
		if sess == nil {
			sess = s.sessions.open()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sess.id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   r.TLS != nil,
			})
		}
		next.ServeHTTP(w, r.WithContext(withViewSession(r.Context(), sess)))
	})
}
