package middleware

import (
	"net/http"
	"time"

	"meetings/boardroom/internal/logging"
)

type respLogger struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (l *respLogger) WriteHeader(code int) {
	l.status = code
	l.ResponseWriter.WriteHeader(code)
}

func (l *respLogger) Write(b []byte) (int, error) {
	n, err := l.ResponseWriter.Write(b)
	l.bytes += n
	return n, err
}

// Logging traces every request at debug level. Bodies and headers are never
// logged; they carry tokens and passwords.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lw := &respLogger{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(lw, r)

		logging.Debug("HTTP request",
			"request_id", RequestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", lw.status,
			"bytes", lw.bytes,
			"duration", time.Since(start))
	})
}
