package gateway

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/flemzord/cronsync/internal/security"
)

// authMiddleware validates a Bearer token or Basic credentials using
// constant-time comparison. Attempts beyond the limiter's budget get 429
// before any credential is looked at. Every decision is written to audit,
// which may be nil.
func authMiddleware(cfg AuthConfig, limiter *rate.Limiter, counters *Counters, audit *security.AuditLogger, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				counters.RecordThrottled()
				audit.Log(auditEvent(security.EventRateLimit, r, "auth attempt throttled"))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				reject(w, r, counters, audit, logger, "missing authorization header")
				return
			}

			if cfg.BearerToken != "" {
				if after, ok := strings.CutPrefix(auth, "Bearer "); ok && constantTimeEqual(after, cfg.BearerToken) {
					audit.Log(auditEvent(security.EventAuthSuccess, r, "bearer"))
					next.ServeHTTP(w, r)
					return
				}
			}

			if cfg.BasicUser != "" && cfg.BasicPass != "" {
				user, pass, ok := r.BasicAuth()
				if ok && constantTimeEqual(user, cfg.BasicUser) && constantTimeEqual(pass, cfg.BasicPass) {
					audit.Log(auditEvent(security.EventAuthSuccess, r, "basic"))
					next.ServeHTTP(w, r)
					return
				}
			}

			reject(w, r, counters, audit, logger, "invalid credentials")
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, counters *Counters, audit *security.AuditLogger, logger *slog.Logger, detail string) {
	counters.RecordAuthFailure()
	audit.Log(auditEvent(security.EventAuthFailure, r, detail))
	logger.Warn("gateway: auth failure",
		"detail", detail,
		"remote_addr", r.RemoteAddr,
		"path", r.URL.Path,
	)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func auditEvent(typ security.EventType, r *http.Request, detail string) security.AuditEvent {
	return security.AuditEvent{
		Type:       typ,
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
		Method:     r.Method,
		Detail:     detail,
	}
}

// constantTimeEqual compares two strings in constant time.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
