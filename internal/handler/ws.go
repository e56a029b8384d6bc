package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/middleware"
	"github.com/pixelcraft/internal/ws"
)

// WSHandler — live-поток событий о новых заявках для админ-консоли.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Авторизация уже пройдена через X-Admin-Token, Origin не проверяем:
			// консоль подключается и не из браузера.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve апгрейдит соединение и подключает клиента к хабу.
// GET /api/admin/ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту при ошибке
		logger.Errorf("ws upgrade: %v", err)
		return
	}
	logger.Infof("ws connected admin=%s", middleware.GetAdminEmail(r.Context()))

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)
	client.Start()
}
