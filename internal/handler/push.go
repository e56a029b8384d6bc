package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/middleware"
	"github.com/pixelcraft/internal/repository"
)

// PushHandler — подписки браузера админа на web push о новых заявках.
type PushHandler struct {
	repo *repository.PushRepository
}

func NewPushHandler(repo *repository.PushRepository) *PushHandler {
	return &PushHandler{repo: repo}
}

// subscribeRequest — стандартный формат PushSubscription из браузера.
type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe сохраняет push-подписку текущего админа.
// POST /api/admin/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrResult(w, http.StatusBadRequest, "invalid subscription body")
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeErrResult(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	email := middleware.GetAdminEmail(r.Context())
	sub := repository.PushSubscription{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := h.repo.Save(r.Context(), email, sub); err != nil {
		logger.Errorf("push subscribe: %v", err)
		writeErrResult(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeOK(w, true)
}

// Unsubscribe удаляет подписку по endpoint.
// POST /api/admin/push/unsubscribe
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		writeErrResult(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	if err := h.repo.DeleteByEndpoint(r.Context(), req.Endpoint); err != nil {
		logger.Errorf("push unsubscribe: %v", err)
		writeErrResult(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeOK(w, true)
}
