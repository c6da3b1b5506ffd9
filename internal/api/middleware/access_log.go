// HTTP access log and request metrics for every route.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/echopicks/internal/infra/logging"
	"github.com/matiasleandrokruk/echopicks/internal/infra/metrics"
)

// AccessLog logs one line per request and records request metrics labelled
// by the matched route pattern. Expected order in router:
// RequestID -> RealIP -> AccessLog -> Recoverer -> handlers.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		defer func() {
			d := time.Since(start)
			route := routePattern(r)
			metrics.RecordHTTP(r.Method, route, recorder.statusCode, d)

			logging.Ctx(r.Context()).WithLevel(levelFromStatus(recorder.statusCode)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Int("status_code", recorder.statusCode).
				Int("bytes", recorder.bytes).
				Str("remote_addr", r.RemoteAddr).
				Dur("duration", d).
				Msg("http request")
		}()
		next.ServeHTTP(recorder, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// routePattern keeps metric labels bounded: unmatched paths share one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func levelFromStatus(statusCode int) zerolog.Level {
	switch {
	case statusCode >= 500:
		return zerolog.ErrorLevel
	case statusCode >= 400:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
