package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pixelcraft/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

// resultResponse — Result-форма ответов админ-API: {"kind":"ok","ok":...}
// либо {"kind":"err","err":"..."}. Именно её нормализует админ-клиент.
type resultResponse struct {
	Kind string `json:"kind"`
	Ok   any    `json:"ok,omitempty"`
	Err  string `json:"err,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("writeJSON encode: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeOK отдаёт успешный Result.
func writeOK(w http.ResponseWriter, value any) {
	writeJSON(w, http.StatusOK, resultResponse{Kind: "ok", Ok: value})
}

// writeErrResult отдаёт Result-ошибку с заданным HTTP-статусом.
func writeErrResult(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, resultResponse{Kind: "err", Err: msg})
}

// pathInt64 извлекает положительный числовой URL-параметр chi.
func pathInt64(r *http.Request, name string) (int64, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
