package model

import "time"

// Admin — учётная запись администратора сайта.
type Admin struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdminSession — серверная сессия админа. Токен непрозрачный (uuid),
// источник истины — Postgres; в token store лежит быстрый путь token → email.
type AdminSession struct {
	Token     string     `json:"-"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Active сообщает, действительна ли сессия в момент now.
func (s *AdminSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
