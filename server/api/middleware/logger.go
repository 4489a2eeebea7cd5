package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Probe and scrape endpoints; their access lines drop to debug.
var quietPaths = map[string]bool{"/health": true, "/ready": true, "/metrics": true}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int64
	written bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.written = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Logger writes one access line per request. When routes is set, the matched
// route name is logged so lines for /v1/accounts/{address}/... group together.
func Logger(log zerolog.Logger, routes *mux.Router) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			var evt *zerolog.Event
			switch {
			case rec.status >= http.StatusInternalServerError:
				evt = log.Error()
			case rec.status >= http.StatusBadRequest:
				evt = log.Warn()
			case quietPaths[r.URL.Path]:
				evt = log.Debug()
			default:
				evt = log.Info()
			}

			if name := routeName(routes, r); name != "" {
				evt = evt.Str("route", name)
			}
			evt.Str("request_id", RequestIDFrom(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Int("status", rec.status).
				Int64("bytes", rec.bytes).
				Dur("latency", time.Since(start)).
				Msg("HTTP request")
		})
	}
}

func routeName(routes *mux.Router, r *http.Request) string {
	if routes == nil {
		return ""
	}
	var m mux.RouteMatch
	if !routes.Match(r, &m) || m.Route == nil {
		return ""
	}
	return m.Route.GetName()
}
