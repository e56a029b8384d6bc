package adminauth

import "strings"

// Category — закрытый набор категорий ошибок авторизации, по которым
// консоль выбирает, что показать и что предложить пользователю.
type Category string

const (
	CategoryAdminNotSetup      Category = "admin-not-setup"
	CategoryInvalidCredentials Category = "invalid-credentials"
	CategoryBackendUnavailable Category = "backend-unavailable"
	CategoryNoAdminRole        Category = "no-admin-role"
	CategoryUnknown            Category = "unknown"
)

// ClassifiedError — итог интерпретации произвольной ошибки: категория,
// безопасный текст для показа и подсказка, можно ли предложить создание
// seed-админа. Конструируется заново на каждую ошибку, нигде не хранится.
type ClassifiedError struct {
	Category              Category
	Message               string
	CanCreateDefaultAdmin bool
}

func (e *ClassifiedError) Error() string { return e.Message }

// Фразы бэкенда, по которым матчатся категории. Порядок проверки важен:
// admin-not-setup раньше no-admin-role, иначе более общий "unauthorized"
// перехватит частный случай.
var (
	adminNotSetupPhrases = []string{
		"admin not set up",
		"no admin account",
		"not been set up",
		"no admin exists",
	}
	invalidCredentialsPhrases = []string{
		"invalid credentials",
		"invalid email or password",
		"wrong password",
	}
	backendUnavailablePhrases = []string{
		"backend unavailable",
		"connection refused",
		"no such host",
		"timeout",
		"timed out",
		"deadline exceeded",
		"network",
		"service unavailable",
	}
	noAdminRolePhrases = []string{
		"no admin role",
		"unauthorized",
	}
	invalidTokenPhrases = []string{
		"invalid or expired admin session token",
		"no admin role",
	}
)

func matchAny(msg string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Classify сводит произвольную ошибку к ClassifiedError. Уже
// классифицированная ошибка проходит насквозь без повторного разбора.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return &ClassifiedError{Category: CategoryUnknown, Message: "Something went wrong. Please try again."}
	}
	if ce, ok := err.(*ClassifiedError); ok {
		return ce
	}
	return ClassifyMessage(err.Error())
}

// ClassifyMessage матчит текст ошибки по подстрокам без учёта регистра,
// первый матч побеждает. Для четырёх именованных категорий текст бэкенда
// наружу не просачивается; unknown отдаёт исходный текст как есть.
func ClassifyMessage(msg string) *ClassifiedError {
	lower := strings.ToLower(msg)

	switch {
	case matchAny(lower, adminNotSetupPhrases):
		return &ClassifiedError{
			Category:              CategoryAdminNotSetup,
			Message:               "Admin account is not set up yet. You can create the default admin to continue.",
			CanCreateDefaultAdmin: true,
		}
	case matchAny(lower, invalidCredentialsPhrases):
		return &ClassifiedError{
			Category: CategoryInvalidCredentials,
			Message:  "Invalid email or password.",
		}
	case matchAny(lower, backendUnavailablePhrases):
		return &ClassifiedError{
			Category: CategoryBackendUnavailable,
			Message:  "Cannot reach the server. Please check your connection and try again.",
		}
	case matchAny(lower, noAdminRolePhrases):
		return &ClassifiedError{
			Category: CategoryNoAdminRole,
			Message:  "This account does not have admin access.",
		}
	}

	if strings.TrimSpace(msg) == "" {
		msg = "Something went wrong. Please try again."
	}
	return &ClassifiedError{Category: CategoryUnknown, Message: msg}
}

// IsInvalidTokenError — узкий детектор: означает ли ошибка недействительный
// или просроченный токен. Держится отдельно от Classify, потому что только
// недействительность токена должна автоматически сбрасывать сессию —
// сетевой сбой или ошибка валидации разлогинивать админа не должны.
func IsInvalidTokenError(err error) bool {
	if err == nil {
		return false
	}
	return matchAny(strings.ToLower(err.Error()), invalidTokenPhrases)
}
