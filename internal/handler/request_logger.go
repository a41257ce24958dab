package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romanetflavia-png/Sales-Resolve1/internal/logging"
)

const headerRequestID = "X-Request-ID"

// maxRequestIDLength caps client-supplied request IDs echoed into headers and logs.
const maxRequestIDLength = 64

// validRequestID accepts short IDs made of letters, digits, '-', '_' and '.'.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController (Go 1.20+).
func (sr *statusRecorder) Unwrap() http.ResponseWriter { return sr.ResponseWriter }

// Flush implements http.Flusher for http.FileServer.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLogger is middleware that assigns a request ID, injects a
// request-scoped logger into the context and logs each completed request.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := r.Header.Get(headerRequestID)
			if !validRequestID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(headerRequestID, reqID)

			child := logger.With().
				Str(logging.FieldRequestID, reqID).
				Str(logging.FieldMethod, r.Method).
				Str(logging.FieldPath, r.URL.Path).
				Logger()

			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sr, r.WithContext(logging.WithLogger(r.Context(), child)))

			child.Info().
				Int(logging.FieldStatus, sr.statusCode).
				Int64(logging.FieldLatency, time.Since(start).Milliseconds()).
				Str("remote_addr", r.RemoteAddr).
				Msg("request")
		})
	}
}
