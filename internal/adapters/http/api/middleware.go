package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/dyscreen/pkg/logger"
	"github.com/okian/dyscreen/pkg/metrics"
)

// instrument records request count and latency for endpoint, counts error
// responses per component, and turns handler panics into a 500.
func instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	log := logger.Get().Named("http")
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				log.Error(r.Context(), "handler panic",
					logger.String("endpoint", endpoint),
					logger.Any("panic", p),
				)
				if !rec.wrote {
					writeError(rec, http.StatusInternalServerError, "internal_error", nil)
				}
				rec.status = http.StatusInternalServerError
			}

			status := strconv.Itoa(rec.status)
			metrics.RecordHTTPRequest(endpoint, r.Method, status)
			metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(start).Microseconds())/1000)
			if rec.status >= http.StatusBadRequest {
				metrics.RecordErrorByComponent("http_"+endpoint, errorLabel(rec.status))
			}
		}()

		next(rec, r)
	}
}

// errorLabel maps an error status to the errors_by_component label.
func errorLabel(status int) string {
	switch {
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "backpressure"
	case status == http.StatusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wrote {
		return
	}
	r.status = code
	r.wrote = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b) //nolint:wrapcheck // transparent writer
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
