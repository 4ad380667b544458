package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// SessionContextKey is the context key for the shopper's session id
	SessionContextKey contextKey = "session_id"

	// DefaultSessionCookie names the storefront's session cookie.
	DefaultSessionCookie = "airkicks_sid"
)

// SessionConfig configures the shopper session cookie.
type SessionConfig struct {
	CookieName string
	Secure     bool
	MaxAge     int
}

// Session gives every shopper a stable id, used to address their notices.
// An existing cookie holding a valid UUID is reused; otherwise a new id is
// issued. The id is in no way an authentication credential.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookie
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 30 * 24 * 60 * 60
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					sessionID = id.String()
				}
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   cfg.MaxAge,
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID returns the shopper's session id, or "" outside Session.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionContextKey).(string); ok {
		return id
	}
	return ""
}
