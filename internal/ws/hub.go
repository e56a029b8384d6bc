// Package ws — живая лента для открытой вкладки админки: сервер пушит
// события о новых заказах, клиентские сообщения не обрабатываются.
package ws

import (
	"context"
	"encoding/json"

	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/model"
)

// Event — исходящее событие ленты.
type Event struct {
	Type  string       `json:"type"`
	Order *model.Order `json:"order,omitempty"`
}

// Hub держит подключённые админ-вкладки и рассылает события.
// Вся работа со множеством клиентов идёт в горутине Run (каналы вместо мьютекса).
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	maxClients int
}

func NewHub(maxClients int) *Hub {
	if maxClients <= 0 {
		maxClients = 16
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
		maxClients: maxClients,
	}
}

// Run обрабатывает регистрацию/отключение клиентов и рассылку до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			if len(h.clients) >= h.maxClients {
				logger.Errorf("ws: client limit %d reached, rejecting", h.maxClients)
				c.Close()
				continue
			}
			h.clients[c] = struct{}{}
			logger.Infof("ws: admin client connected (%d total)", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.Close()
			}
		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Errorf("ws: marshal event: %v", err)
				continue
			}
			for c := range h.clients {
				if !c.enqueue(data) {
					// Медленный или закрытый клиент — отключаем.
					delete(h.clients, c)
					c.Close()
				}
			}
		}
	}
}

func (h *Hub) shutdown() {
	for c := range h.clients {
		c.Close()
	}
	h.clients = make(map[*Client]struct{})
}

// Register добавляет клиента (вызывается из HTTP-обработчика после upgrade).
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister убирает клиента (вызывается из read pump при закрытии соединения).
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	default:
		c.Close()
	}
}

// BroadcastNewOrder публикует событие о новом заказе. Не блокирует:
// при переполненном буфере событие теряется (лента не критична).
func (h *Hub) BroadcastNewOrder(o *model.Order) {
	select {
	case h.broadcast <- Event{Type: "new_order", Order: o}:
	default:
		logger.Error("ws: broadcast buffer full, event dropped")
	}
}
