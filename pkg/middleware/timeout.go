package middleware

import (
	"context"
	"net/http"
	apperrors "smartrentals/pkg/errors"
	"strconv"
	"sync"
	"time"
)

// timeoutRetryAfter is the Retry-After hint sent with a TIMEOUT response.
const timeoutRetryAfter = 2 * time.Second

// timeoutWriter drops writes from the handler once the deadline has fired.
type timeoutWriter struct {
	http.ResponseWriter
	mu         sync.Mutex
	timedOut   bool
	written    bool
	statusCode int
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut || tw.written {
		return
	}

	tw.statusCode = code
	tw.written = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}

	if !tw.written {
		tw.statusCode = http.StatusOK
		tw.written = true
	}

	return tw.ResponseWriter.Write(b)
}

// RequestTimeout bounds the handler's context, which every storage call and
// ledger transaction observes. A handler that has not answered in time gets
// a 503 TIMEOUT envelope with a Retry-After header. A booking can still
// commit after its deadline, so the envelope echoes the request's
// Idempotency-Key: retrying under it replays the booking instead of placing
// a second one.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)
			tw := &timeoutWriter{ResponseWriter: w}

			done := make(chan struct{})
			panicked := make(chan any, 1)
			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r)
				close(done)
			}()

			select {
			case <-done:
				return
			case p := <-panicked:
				panic(p)
			case <-ctx.Done():
				tw.mu.Lock()
				defer tw.mu.Unlock()
				tw.timedOut = true
				if !tw.written {
					tw.written = true
					writeTimeout(w, r, timeout)
				}
			}
		})
	}
}

func writeTimeout(w http.ResponseWriter, r *http.Request, timeout time.Duration) {
	details := map[string]any{"timeout_ms": timeout.Milliseconds()}
	if key := r.Header.Get(IdempotencyKeyHeader); key != "" {
		details["idempotency_key"] = key
	}
	err := apperrors.New(apperrors.CodeTimeout, "Request timed out, retry with the same Idempotency-Key", http.StatusServiceUnavailable).
		WithDetails(details)

	w.Header().Set("Retry-After", strconv.Itoa(int(timeoutRetryAfter.Seconds())))
	writeAppError(w, err)
}
