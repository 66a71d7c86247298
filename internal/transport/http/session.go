package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"predmaint/internal/session"
)

type sessionKey struct{}

// SessionMiddleware attaches the browser's session to the request, creating
// one and setting the cookie when the browser has none or an expired one.
func SessionMiddleware(store *session.Store, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "session_middleware"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(cookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}

			sess, created := store.GetOrCreate(id)
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					Secure:   r.TLS != nil,
					SameSite: http.SameSiteLaxMode,
				})
				logger.DebugContext(r.Context(), "session started",
					slog.String("session_id", sess.ID),
					slog.Bool("replaced", id != ""))
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID returns the session attached by SessionMiddleware, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// WithSessionID attaches a session id to ctx without the cookie round trip.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}
