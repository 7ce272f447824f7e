package middleware

import (
	"net/http"
	"time"

	"github.com/classfolio/classfolio-server/internal/logger"
)

// Logging logs every HTTP request with its status and duration.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Handler logs method, path, status and duration for each request.
func (l *Logging) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		requestLogger := l.logger.With(
			"method", r.Method,
			"path", r.URL.Path)

		next.ServeHTTP(recorder, r)

		requestLogger.Info("HTTP request completed",
			"status", recorder.status,
			"duration", time.Since(start).String())
	})
}
