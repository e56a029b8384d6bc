package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pixelcraft/internal/config"
	"github.com/pixelcraft/internal/email"
	"github.com/pixelcraft/internal/fileserver"
	"github.com/pixelcraft/internal/model"
	"github.com/pixelcraft/internal/push"
	"github.com/pixelcraft/internal/repository"
	"github.com/pixelcraft/internal/ws"
)

type memOrders struct {
	orders map[int64]*model.Order
	nextID int64
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[int64]*model.Order)}
}

func (m *memOrders) Create(ctx context.Context, o *model.Order) (int64, error) {
	m.nextID++
	stored := *o
	stored.ID = m.nextID
	m.orders[m.nextID] = &stored
	return m.nextID, nil
}

func (m *memOrders) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) ListAll(ctx context.Context, limit int) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *memOrders) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := m.orders[id]; !ok {
		return false, nil
	}
	delete(m.orders, id)
	return true, nil
}

func newOrderTestRouter(t *testing.T) (*chi.Mux, *memOrders) {
	t.Helper()
	store := newMemOrders()
	files := fileserver.New(t.TempDir(), 25<<20)
	h := NewOrderHandler(store, files, ws.NewHub(4), push.NewNotifier(nil, nil, ""),
		email.NewSender(&config.SMTPConfig{}), "")

	r := chi.NewRouter()
	r.Post("/api/orders", h.Create)
	r.Get("/api/admin/orders/{id}", h.Get)
	return r, store
}

func multipartOrder(t *testing.T, fields map[string]string, fileName string, fileBody []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(fileBody)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateOrderStampsCreationTime(t *testing.T) {
	r, store := newOrderTestRouter(t)

	body, contentType := multipartOrder(t, map[string]string{
		"service":     "logo",
		"fullName":    "Jane Doe",
		"email":       "jane@example.com",
		"description": "A logo for my bakery",
	}, "", nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.orders, 1)
	stored := store.orders[1]
	// Время заявки должно выставляться до записи, а не после.
	require.False(t, stored.CreatedAt.IsZero())
	require.WithinDuration(t, time.Now().UTC(), stored.CreatedAt, time.Minute)
}

func TestCreateOrderWithAttachment(t *testing.T) {
	r, store := newOrderTestRouter(t)

	body, contentType := multipartOrder(t, map[string]string{
		"service":     "site",
		"fullName":    "John Doe",
		"email":       "john@example.com",
		"description": "Landing page",
	}, "brief.pdf", []byte("%PDF-1.7 fake brief"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	stored := store.orders[1]
	require.True(t, stored.HasAttachment())
	require.Equal(t, "brief.pdf", stored.FileName)
	require.NotEmpty(t, stored.FileKey)
}

func TestCreateOrderMissingRequiredFields(t *testing.T) {
	r, _ := newOrderTestRouter(t)

	body, contentType := multipartOrder(t, map[string]string{"service": "logo"}, "", nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderBlockedAttachment(t *testing.T) {
	r, store := newOrderTestRouter(t)

	body, contentType := multipartOrder(t, map[string]string{
		"service":     "logo",
		"fullName":    "Jane Doe",
		"email":       "jane@example.com",
		"description": "desc",
	}, "run.sh", []byte("#!/bin/sh"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, store.orders)
}
