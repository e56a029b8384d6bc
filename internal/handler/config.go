package handler

import (
	"net/http"

	"github.com/pixelcraft/internal/config"
)

// ConfigHandler отдаёт публичную часть конфигурации, нужную фронтенду
// и админ-консоли до авторизации.
type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

type publicConfig struct {
	VapidPublicKey  string `json:"vapidPublicKey,omitempty"`
	MaxUploadSize   int64  `json:"maxUploadSize"`
	CacheTTLMinutes int    `json:"cacheTtlMinutes"`
}

// Get отдаёт публичную конфигурацию. Секретов здесь быть не должно.
// GET /api/config
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, publicConfig{
		VapidPublicKey:  h.cfg.PushVAPIDPublicKey,
		MaxUploadSize:   h.cfg.MaxUploadSize,
		CacheTTLMinutes: h.cfg.Cache.TTLMinutes,
	})
}
