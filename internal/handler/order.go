package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pixelcraft/internal/email"
	"github.com/pixelcraft/internal/fileserver"
	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/model"
	"github.com/pixelcraft/internal/push"
	"github.com/pixelcraft/internal/repository"
	"github.com/pixelcraft/internal/ws"
)

const (
	maxMultipartMemory = 8 << 20
	ordersListLimit    = 500
	maxFieldLen        = 4000
)

// OrderStore — срез OrderRepository, нужный обработчику.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListAll(ctx context.Context, limit int) ([]model.Order, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// OrderHandler — приём заявок с сайта и их обслуживание в админке.
type OrderHandler struct {
	orders      OrderStore
	files       *fileserver.Service
	hub         *ws.Hub
	notifier    *push.Notifier
	mailer      *email.Sender
	notifyEmail string
}

func NewOrderHandler(orders OrderStore, files *fileserver.Service, hub *ws.Hub, notifier *push.Notifier, mailer *email.Sender, notifyEmail string) *OrderHandler {
	return &OrderHandler{
		orders:      orders,
		files:       files,
		hub:         hub,
		notifier:    notifier,
		mailer:      mailer,
		notifyEmail: notifyEmail,
	}
}

func formField(r *http.Request, name string) string {
	v := strings.TrimSpace(r.FormValue(name))
	if len(v) > maxFieldLen {
		v = v[:maxFieldLen]
	}
	return v
}

// Create принимает заявку с публичной формы сайта (multipart, опционально с файлом).
// POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer logger.DeferLogDuration("OrderHandler.Create", time.Now())()

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	o := &model.Order{
		Service:      formField(r, "service"),
		FullName:     formField(r, "fullName"),
		Email:        formField(r, "email"),
		Whatsapp:     formField(r, "whatsapp"),
		Description:  formField(r, "description"),
		Budget:       formField(r, "budget"),
		DeliveryTime: formField(r, "deliveryTime"),
		CreatedAt:    time.Now().UTC(),
	}
	if o.Service == "" || o.FullName == "" || o.Description == "" {
		writeError(w, http.StatusBadRequest, "service, fullName and description are required")
		return
	}
	if o.Email == "" || !strings.Contains(o.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		att, err := h.files.Save(r.Context(), file, header.Filename, header.Size)
		if err != nil {
			if errors.Is(err, fileserver.ErrBlockedType) {
				writeError(w, http.StatusBadRequest, "file type not allowed")
				return
			}
			if errors.Is(err, fileserver.ErrTooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "file too large")
				return
			}
			logger.Errorf("order create: save file: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to store attachment")
			return
		}
		o.FileKey = att.Key
		o.FileName = att.FileName
		o.FileSize = att.FileSize
	}

	id, err := h.orders.Create(r.Context(), o)
	if err != nil {
		logger.Errorf("order create: %v", err)
		h.files.Remove(o.FileKey)
		writeError(w, http.StatusInternalServerError, "failed to save order")
		return
	}
	o.ID = id

	h.hub.BroadcastNewOrder(o)
	go h.notifyAsync(o)

	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// notifyAsync рассылает уведомления о новой заявке, не задерживая ответ клиенту.
func (h *OrderHandler) notifyAsync(o *model.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	h.notifier.NotifyNewOrder(ctx, o)
	if h.notifyEmail != "" {
		if err := h.mailer.SendOrderNotification(ctx, h.notifyEmail, o); err != nil {
			logger.Errorf("order notify: email: %v", err)
		}
	}
}

// List отдаёт все заявки, новые первыми.
// GET /api/admin/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	defer logger.DeferLogDuration("OrderHandler.List", time.Now())()

	orders, err := h.orders.ListAll(r.Context(), ordersListLimit)
	if err != nil {
		logger.Errorf("orders list: %v", err)
		writeErrResult(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeOK(w, orders)
}

// Get отдаёт одну заявку.
// GET /api/admin/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeErrResult(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrResult(w, http.StatusNotFound, "order not found")
			return
		}
		logger.Errorf("order get id=%d: %v", id, err)
		writeErrResult(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeOK(w, o)
}

// Delete удаляет заявку вместе с вложением.
// DELETE /api/admin/orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeErrResult(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Errorf("order delete id=%d: get: %v", id, err)
		writeErrResult(w, http.StatusInternalServerError, "internal server error")
		return
	}

	deleted, err := h.orders.Delete(r.Context(), id)
	if err != nil {
		logger.Errorf("order delete id=%d: %v", id, err)
		writeErrResult(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		writeErrResult(w, http.StatusNotFound, "order not found")
		return
	}
	if o != nil && o.FileKey != "" {
		h.files.Remove(o.FileKey)
	}
	writeOK(w, true)
}

// File отдаёт вложение заявки под исходным именем.
// GET /api/admin/orders/{id}/file
func (h *OrderHandler) File(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeErrResult(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrResult(w, http.StatusNotFound, "order not found")
			return
		}
		logger.Errorf("order file id=%d: %v", id, err)
		writeErrResult(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !o.HasAttachment() {
		writeErrResult(w, http.StatusNotFound, "order has no attachment")
		return
	}
	h.files.Serve(w, o.FileKey, o.FileName)
}
