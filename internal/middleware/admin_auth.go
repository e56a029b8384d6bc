package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/service"
)

// TokenValidator проверяет токен админ-сессии и возвращает email владельца.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// AdminAuth требует валидный X-Admin-Token на админ-эндпоинтах.
// Отказ отдаётся в Result-форме с точной формулировкой MsgInvalidToken —
// клиентский классификатор по ней отличает невалидный токен от прочих ошибок.
func AdminAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			email, err := validator.Validate(r.Context(), token)
			if err != nil || email == "" {
				if err != nil && !errors.Is(err, service.ErrInvalidToken) {
					logger.Errorf("admin auth: validate token=%s: %v", MaskToken(token), err)
				}
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"kind": "err",
					"err":  service.MsgInvalidToken,
				})
				return
			}
			ctx := context.WithValue(r.Context(), AdminEmailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
