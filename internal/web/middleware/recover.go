package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/JonMunkholm/inventory/internal/logging"
)

// PanicMessage is the body sent when a handler panics.
const PanicMessage = "Something went wrong!"

// Recover turns a handler panic into a 500 JSON response and logs the
// stack. http.ErrAbortHandler is re-raised so net/http can abort the
// connection as usual.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logging.FromContext(r.Context()).Error("panic recovered",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", rec,
				"stack", string(debug.Stack()),
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"` + PanicMessage + `"}` + "\n"))
		}()

		next.ServeHTTP(w, r)
	})
}
