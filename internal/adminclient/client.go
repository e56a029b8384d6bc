// Package adminclient — HTTP-клиент админ-API для консоли. Реализует
// adminauth.Backend и авторизованные операции над заказами и контентом.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pixelcraft/internal/adminauth"
	"github.com/pixelcraft/internal/model"
)

const headerToken = "X-Admin-Token"

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// resultEnvelope — Result-форма ответа админ-API; поле kind у старых
// бэкендов может отсутствовать.
type resultEnvelope struct {
	Kind string          `json:"kind"`
	Ok   json.RawMessage `json:"ok"`
	Err  string          `json:"err"`
}

// do выполняет запрос и возвращает тело и статус. Транспортные сбои
// заворачиваются с фразой, которую классификатор относит к
// backend-unavailable.
func (c *Client) do(ctx context.Context, method, path, token string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(headerToken, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("backend unavailable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("backend unavailable: read body: %w", err)
	}
	return raw, resp.StatusCode, nil
}

// doResult выполняет запрос, разбирает Result-конверт и при успехе
// декодирует ok-значение в out (nil — значение не нужно).
func (c *Client) doResult(ctx context.Context, method, path, token string, body, out any) error {
	raw, status, err := c.do(ctx, method, path, token, body)
	if err != nil {
		return err
	}

	var env resultEnvelope
	if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil {
		if status >= 500 {
			return fmt.Errorf("backend unavailable: status %d", status)
		}
		return fmt.Errorf("unexpected response (status %d)", status)
	}
	if env.Err != "" {
		return errors.New(env.Err)
	}
	if out != nil && len(env.Ok) > 0 {
		if err := json.Unmarshal(env.Ok, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// AdminLogin обменивает учётные данные на токен. Тело ответа нормализуется
// через DecodeAuthResult (тегированная и нетегированная формы), срок
// действия приходит заголовком X-Session-Expires-At в наносекундах.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*adminauth.LoginReply, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("marshal login request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/admin/login", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend unavailable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("backend unavailable: read body: %w", err)
	}

	result, err := adminauth.DecodeAuthResult(raw)
	if err != nil {
		return nil, err
	}
	if result.Err != "" {
		return nil, errors.New(result.Err)
	}

	reply := &adminauth.LoginReply{Token: result.Token}
	if h := resp.Header.Get("X-Session-Expires-At"); h != "" {
		if ns, err := strconv.ParseInt(h, 10, 64); err == nil {
			reply.ExpiresAt = time.Unix(0, ns)
		}
	}
	return reply, nil
}

// AdminLogout уведомляет бэкенд о выходе.
func (c *Client) AdminLogout(ctx context.Context, token string) error {
	return c.doResult(ctx, http.MethodPost, "/api/admin/logout", token, nil, nil)
}

// AdminExists сообщает, создан ли хоть один админ. На 404 возвращается
// adminauth.ErrUnsupported: у старого бэкенда этой операции нет.
func (c *Client) AdminExists(ctx context.Context) (bool, error) {
	raw, status, err := c.do(ctx, http.MethodGet, "/api/admin/exists", "", nil)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		return false, adminauth.ErrUnsupported
	}
	var env resultEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, fmt.Errorf("unexpected response (status %d)", status)
	}
	if env.Err != "" {
		return false, errors.New(env.Err)
	}
	var exists bool
	if err := json.Unmarshal(env.Ok, &exists); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return exists, nil
}

// CreateDefaultAdmin просит бэкенд создать seed-учётку.
func (c *Client) CreateDefaultAdmin(ctx context.Context) (bool, error) {
	raw, status, err := c.do(ctx, http.MethodPost, "/api/admin/bootstrap", "", nil)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		return false, adminauth.ErrUnsupported
	}
	var env resultEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, fmt.Errorf("unexpected response (status %d)", status)
	}
	if env.Err != "" {
		return false, errors.New(env.Err)
	}
	var created bool
	if err := json.Unmarshal(env.Ok, &created); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return created, nil
}

// GetAllOrders возвращает все заказы. Используется и как верификационный
// probe сразу после логина.
func (c *Client) GetAllOrders(ctx context.Context, token string) ([]model.Order, error) {
	var orders []model.Order
	if err := c.doResult(ctx, http.MethodGet, "/api/admin/orders", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrderDetail возвращает один заказ.
func (c *Client) GetOrderDetail(ctx context.Context, token string, id int64) (*model.Order, error) {
	var o model.Order
	if err := c.doResult(ctx, http.MethodGet, fmt.Sprintf("/api/admin/orders/%d", id), token, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// DeleteOrder удаляет заказ вместе с вложением.
func (c *Client) DeleteOrder(ctx context.Context, token string, id int64) error {
	return c.doResult(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/orders/%d", id), token, nil, nil)
}

// GetContent читает секцию контента (публичная операция).
func (c *Client) GetContent(ctx context.Context, section string) (json.RawMessage, error) {
	raw, status, err := c.do(ctx, http.MethodGet, "/api/content/"+section, "", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		var env resultEnvelope
		if json.Unmarshal(raw, &env) == nil && env.Err != "" {
			return nil, errors.New(env.Err)
		}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return nil, errors.New(e.Error)
		}
		return nil, fmt.Errorf("unexpected response (status %d)", status)
	}
	return json.RawMessage(raw), nil
}

// SetContent обновляет секцию контента.
func (c *Client) SetContent(ctx context.Context, token, section string, payload json.RawMessage) error {
	return c.doResult(ctx, http.MethodPut, "/api/admin/content/"+section, token, payload, nil)
}
