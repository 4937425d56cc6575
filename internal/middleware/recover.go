package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
)

// Recover turns a handler panic into a JSON 500 carrying the correlation id,
// so a report from the UI can be matched to the logged stack.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recover(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				cid := GetCorrelationID(r.Context())
				logger.Printf("panic cid=%s %s %s: %v\n%s", cid, r.Method, r.URL.Path, rec, debug.Stack())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(model.ErrorResponse{
					Error:         "internal server error",
					CorrelationID: cid,
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
