package middleware

import "context"

type contextKey string

const AdminEmailKey contextKey = "admin_email"

// GetAdminEmail возвращает email админа из контекста (устанавливается AdminAuth).
func GetAdminEmail(ctx context.Context) string {
	v, _ := ctx.Value(AdminEmailKey).(string)
	return v
}
