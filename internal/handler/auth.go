package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/middleware"
	"github.com/pixelcraft/internal/service"
)

// HeaderSessionExpiresAt — заголовок ответа логина: момент истечения сессии
// в наносекундах Unix десятичной строкой. Клиент хранит его рядом с токеном.
const HeaderSessionExpiresAt = "X-Session-Expires-At"

// AuthHandler обслуживает вход/выход админа и бутстрап seed-учётки.
type AuthHandler struct {
	auth *service.AdminAuthService
}

func NewAuthHandler(auth *service.AdminAuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login обменивает учётные данные на токен сессии.
// POST /api/admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrResult(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAdminNotSetup):
			writeErrResult(w, http.StatusForbidden, service.MsgAdminNotSetup)
		case errors.Is(err, service.ErrInvalidCredentials):
			writeErrResult(w, http.StatusUnauthorized, service.MsgInvalidCredentials)
		case errors.Is(err, service.ErrRateLimitExceeded):
			writeErrResult(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		default:
			logger.Errorf("login: %v", err)
			writeErrResult(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set(HeaderSessionExpiresAt, strconv.FormatInt(session.ExpiresAt.UnixNano(), 10))
	writeOK(w, session.Token)
}

// Logout отзывает текущую сессию. Идемпотентен: повторный вызов — тоже ok.
// POST /api/admin/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Admin-Token")
	revoked := h.auth.Logout(r.Context(), token)
	if !revoked {
		logger.Debugf("logout: no active session token=%s", middleware.MaskToken(token))
	}
	writeOK(w, true)
}

// Exists сообщает, создан ли хотя бы один админ. Публичный.
// GET /api/admin/exists
func (h *AuthHandler) Exists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.auth.AdminExists(r.Context())
	if err != nil {
		logger.Errorf("adminExists: %v", err)
		writeErrResult(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeOK(w, exists)
}

// Bootstrap создаёт seed-учётку админа из конфигурации, если админов ещё нет.
// POST /api/admin/bootstrap
func (h *AuthHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	created, err := h.auth.CreateDefaultAdmin(r.Context())
	if err != nil {
		logger.Errorf("bootstrap: %v", err)
		writeErrResult(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeOK(w, created)
}
