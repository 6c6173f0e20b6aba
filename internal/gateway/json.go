package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// sourceHeader reports degraded reads so callers and monitoring can tell a
// live answer from a snapshot or bundled default.
const sourceHeader = "X-Content-Source"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func writeData(w http.ResponseWriter, src Source, v any) {
	w.Header().Set(sourceHeader, src.String())
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}
