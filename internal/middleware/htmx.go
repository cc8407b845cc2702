package middleware

import (
	"net/http"
)

// HTMX marks htmx requests and records the swap target they aim at. Every
// response varies on HX-Request since routes answer with either a fragment
// or a full page.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithHTMX(r.Context(), r.Header.Get("HX-Request") == "true")
		if target := r.Header.Get("HX-Target"); target != "" {
			ctx = WithHTMXTarget(ctx, target)
		}
		w.Header().Add("Vary", "HX-Request")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
