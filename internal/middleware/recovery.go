package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"listentg/internal/reporting"
	"listentg/internal/service"
	"listentg/internal/tracing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RecoveryMiddleware turns a handler panic into a 500 with a generic JSON
// body and reports it
func RecoveryMiddleware(logger *logrus.Logger, reporter reporting.Reporter) mux.MiddlewareFunc {
	if reporter == nil {
		reporter = reporting.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				fields := map[string]interface{}{
					service.LogFieldRequestID: tracing.GetRequestID(r.Context()),
					service.LogFieldURL:       r.URL.Path,
				}
				reporter.CaptureError(fmt.Errorf("panic serving %s: %v", r.URL.Path, v), fields)
				logger.WithFields(fields).WithField("panic", fmt.Sprint(v)).Error("Recovered from handler panic")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "Internal server error"})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
