package http

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"gearrent-backend/internal/config"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/security"
)

// AuthMiddleware authenticates and authorizes requests by the security level
// of the matched route
type AuthMiddleware struct {
	verifier security.Verifier
}

func NewAuthMiddleware(v security.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: v}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.GetSecurityLevel(routeKey(r))

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		id, err := m.verifier.Verify(r.Context(), extractToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		if level == config.SecurityAdmin && !id.Admin {
			writeMessage(w, http.StatusForbidden, "Administrator access is required.")
			return
		}

		next.ServeHTTP(w, r.WithContext(security.WithIdentity(r.Context(), id)))
	})
}

func routeKey(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return config.RouteKey(r.Method, tmpl)
		}
	}
	return config.RouteKey(r.Method, r.URL.Path)
}

func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs each request and turns panics into 500 responses
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				logger.Error("Panic in HTTP handler", "panic", p, "path", r.URL.Path, "stack", string(debug.Stack()))
				writeMessage(rec, http.StatusInternalServerError, "Internal server error.")
			}
			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start))
		}()

		next.ServeHTTP(rec, r)
	})
}
