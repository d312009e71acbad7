// ABOUTME: Panic recovery middleware for the outer handler chain
// ABOUTME: A panicking step becomes a 500, never a dropped connection

package middleware

import (
	"log/slog"
	"net/http"
)

// Recover converts handler panics into 500 responses. Workflow steps
// are expected to return errors; a panic here is a defect signal.
func Recover(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}
