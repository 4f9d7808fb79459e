package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	apperrors "smartrentals/pkg/errors"
	"smartrentals/pkg/logger"
)

// recoveryWriter remembers whether the handler has started its response, so
// a late panic never produces a second status line.
type recoveryWriter struct {
	http.ResponseWriter
	started bool
}

func (rw *recoveryWriter) WriteHeader(code int) {
	rw.started = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recoveryWriter) Write(b []byte) (int, error) {
	rw.started = true
	return rw.ResponseWriter.Write(b)
}

func (rw *recoveryWriter) Flush() {
	rw.started = true
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *recoveryWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Recovery turns a handler panic into the INTERNAL_ERROR envelope. The
// request id goes into the error details and the customer ref and
// idempotency key into the log line, so a failed booking can be traced and
// retried under the same key. A response that had already started, such as
// a settings stream, is aborted instead.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &recoveryWriter{ResponseWriter: w}
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				// RequestLogging runs inside Recovery; its id is only on the response.
				id := w.Header().Get(RequestIDHeader)
				log.Error("Panic recovered",
					"request_id", id,
					"error", p,
					"method", r.Method,
					"path", r.URL.Path,
					"customer_ref", r.Header.Get(CustomerRefHeader),
					"idempotency_key", r.Header.Get(IdempotencyKeyHeader),
					"response_started", rw.started,
					"stack", string(debug.Stack()),
				)

				if rw.started {
					panic(http.ErrAbortHandler)
				}
				err := apperrors.Internal("Internal server error", nil)
				if id != "" {
					err = err.WithDetails(map[string]any{"request_id": id})
				}
				writeAppError(w, err)
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

// errorEnvelope matches the error body the API handlers write.
type errorEnvelope struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func writeAppError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: err.Message, Code: err.Code, Details: err.Details})
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeAppError(w, apperrors.New(code, message, status))
}
