package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sps-portfolio/portfolio-web/internal/observability"
)

type errorResponse struct {
	Error string `json:"error"`
}

// WriteError responds with msg as JSON for htmx requests and as plain text
// otherwise. Error responses are never cached.
func WriteError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	observability.FromContext(r.Context()).Debug("error response",
		zap.Int("status", code),
		zap.String("error", msg),
	)
	w.Header().Set("Cache-Control", "no-store")
	if IsHTMX(r.Context()) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
		return
	}
	http.Error(w, msg, code)
}
