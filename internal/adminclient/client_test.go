package adminclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pixelcraft/internal/adminauth"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second)
}

func TestAdminLoginTagged(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/admin/login", r.URL.Path)

		var req struct{ Email, Password string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "admin@example.com", req.Email)

		w.Header().Set("X-Session-Expires-At", strconv.FormatInt(expires.UnixNano(), 10))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind":"ok","ok":"tok-123"}`))
	})

	reply, err := client.AdminLogin(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok-123", reply.Token)
	require.Equal(t, expires.UnixNano(), reply.ExpiresAt.UnixNano())
}

func TestAdminLoginUntaggedLegacy(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":"tok-legacy"}`))
	})

	reply, err := client.AdminLogin(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok-legacy", reply.Token)
	require.True(t, reply.ExpiresAt.IsZero())
}

func TestAdminLoginErrResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"kind":"err","err":"Invalid credentials"}`))
	})

	_, err := client.AdminLogin(context.Background(), "admin@example.com", "wrong")
	require.EqualError(t, err, "Invalid credentials")
	require.Equal(t, adminauth.CategoryInvalidCredentials, adminauth.Classify(err).Category)
}

func TestAdminLoginUnrecognizedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"tok"}`))
	})

	_, err := client.AdminLogin(context.Background(), "admin@example.com", "secret")
	require.ErrorIs(t, err, adminauth.ErrUnrecognizedResult)
}

func TestTransportErrorClassifiedUnavailable(t *testing.T) {
	client := New("http://127.0.0.1:1", time.Second)
	_, err := client.AdminLogin(context.Background(), "admin@example.com", "secret")
	require.Error(t, err)
	require.Equal(t, adminauth.CategoryBackendUnavailable, adminauth.Classify(err).Category)
}

func TestGetAllOrders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/admin/orders", r.URL.Path)
		require.Equal(t, "tok-123", r.Header.Get("X-Admin-Token"))
		w.Write([]byte(`{"kind":"ok","ok":[{"id":1,"service":"logo","full_name":"Jane"},{"id":2,"service":"site","full_name":"John"}]}`))
	})

	orders, err := client.GetAllOrders(context.Background(), "tok-123")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, int64(1), orders[0].ID)
	require.Equal(t, "logo", orders[0].Service)
}

func TestGetAllOrdersInvalidToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"kind":"err","err":"Invalid or expired admin session token"}`))
	})

	_, err := client.GetAllOrders(context.Background(), "stale")
	require.Error(t, err)
	require.True(t, adminauth.IsInvalidTokenError(err))
}

func TestAdminExists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/admin/exists", r.URL.Path)
		w.Write([]byte(`{"kind":"ok","ok":true}`))
	})

	exists, err := client.AdminExists(context.Background())
	require.NoError(t, err)
	require.True(t, exists)
}

func TestAdminExistsNotFoundIsUnsupported(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.AdminExists(context.Background())
	require.ErrorIs(t, err, adminauth.ErrUnsupported)
}

func TestCreateDefaultAdmin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/admin/bootstrap", r.URL.Path)
		w.Write([]byte(`{"kind":"ok","ok":true}`))
	})

	created, err := client.CreateDefaultAdmin(context.Background())
	require.NoError(t, err)
	require.True(t, created)
}

func TestDeleteOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/admin/orders/7", r.URL.Path)
		w.Write([]byte(`{"kind":"ok","ok":true}`))
	})

	require.NoError(t, client.DeleteOrder(context.Background(), "tok", 7))
}

func TestGetContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/content/contact", r.URL.Path)
		w.Write([]byte(`{"email":"hello@example.com"}`))
	})

	raw, err := client.GetContent(context.Background(), "contact")
	require.NoError(t, err)
	require.JSONEq(t, `{"email":"hello@example.com"}`, string(raw))
}

func TestSetContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/admin/content/social", r.URL.Path)
		w.Write([]byte(`{"kind":"ok","ok":true}`))
	})

	err := client.SetContent(context.Background(), "tok", "social", json.RawMessage(`{"instagram":"https://instagram.com/x"}`))
	require.NoError(t, err)
}
