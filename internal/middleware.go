package internal

import (
	"net/http"
	"time"

	"gadget-inventory-api/internal/auth"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// requestLogger writes one access log line per request, labelled by the
// matched route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(rw, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("route", routePattern(r)),
			zap.Int("status", rw.code),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}

		switch {
		case rw.code >= http.StatusInternalServerError:
			s.Logger.Error("http request", fields...)
		case rw.code >= http.StatusBadRequest:
			s.Logger.Warn("http request", fields...)
		default:
			s.Logger.Info("http request", fields...)
		}
	})
}

// admin guards write routes with the admin role when auth is enabled.
func (s *Server) admin(h http.HandlerFunc) http.HandlerFunc {
	if !s.cfg.AuthEnabled {
		return h
	}
	return auth.MustRole(auth.RoleAdmin)(h).ServeHTTP
}
