// Package adminsession — локальная сессия админа на стороне клиента:
// единственный источник правды «авторизован ли админ сейчас», с уведомлением
// подписчиков об изменениях и контролем истечения.
package adminsession

import (
	"strconv"
	"sync"
	"time"
)

// Ключи в Storage. Все значения — простой текст, срок действия хранится
// наносекундами Unix десятичной строкой.
const (
	keyToken        = "admin_session_token"
	keyUsername     = "admin_username"
	keyExpiry       = "admin_session_expiry"
	keyLogoutReason = "admin_logout_reason"
)

// DebounceWindow — окно подавления повторных clear-уведомлений.
const DebounceWindow = 2000 * time.Millisecond

// ExpiredReason записывается как причина выхода при истечении сессии,
// обнаруженном при чтении.
const ExpiredReason = "Your session has expired, please log in again"

// Session — учётные данные залогиненного админа.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time // нулевое время — без срока
}

// Store владеет сессией единолично: остальной код читает и меняет её только
// через методы Store, напрямую в Storage никто не пишет.
type Store struct {
	mu      sync.Mutex
	storage Storage
	guard   *Guard
	subs    map[int]func()
	nextSub int
	now     func() time.Time
}

func NewStore(storage Storage) *Store {
	return &Store{
		storage: storage,
		guard:   NewGuard(DebounceWindow),
		subs:    make(map[int]func()),
		now:     time.Now,
	}
}

// Get возвращает текущую сессию или nil. Обнаруженное истечение — это
// неявный logout: сессия очищается с причиной, возвращается nil.
// Ошибок нет: битое или отсутствующее значение означает «сессии нет».
func (s *Store) Get() *Session {
	s.mu.Lock()
	token := s.storage.Get(keyToken)
	username := s.storage.Get(keyUsername)
	rawExpiry := s.storage.Get(keyExpiry)
	s.mu.Unlock()

	if token == "" || username == "" {
		return nil
	}

	sess := &Session{Token: token, Username: username}
	if rawExpiry != "" {
		ns, err := strconv.ParseInt(rawExpiry, 10, 64)
		if err != nil || !s.now().Before(time.Unix(0, ns)) {
			s.ClearWithReason(ExpiredReason)
			return nil
		}
		sess.ExpiresAt = time.Unix(0, ns)
	}
	return sess
}

// Set сохраняет сессию. Прежняя причина выхода стирается: свежий логин
// отменяет старые объяснения. Подписчики уведомляются безусловно.
func (s *Store) Set(sess Session) {
	s.mu.Lock()
	s.storage.Set(keyToken, sess.Token)
	s.storage.Set(keyUsername, sess.Username)
	if sess.ExpiresAt.IsZero() {
		s.storage.Delete(keyExpiry)
	} else {
		s.storage.Set(keyExpiry, strconv.FormatInt(sess.ExpiresAt.UnixNano(), 10))
	}
	s.storage.Delete(keyLogoutReason)
	// Сессия снова есть — следующий clear должен пройти, а не попасть под дебаунс.
	s.guard.Reset()
	s.mu.Unlock()

	s.notify()
}

// Clear — ClearWithReason без причины.
func (s *Store) Clear() {
	s.ClearWithReason("")
}

// ClearWithReason удаляет сессию и запоминает причину (пустая строка —
// без причины). Повторный clear внутри DebounceWindow подавляется целиком:
// хранилище уже пусто, а подписчиков незачем будить второй раз.
func (s *Store) ClearWithReason(reason string) {
	if !s.guard.TryPass() {
		return
	}

	s.mu.Lock()
	s.storage.Delete(keyToken)
	s.storage.Delete(keyUsername)
	s.storage.Delete(keyExpiry)
	if reason == "" {
		s.storage.Delete(keyLogoutReason)
	} else {
		s.storage.Set(keyLogoutReason, reason)
	}
	s.mu.Unlock()

	s.notify()
}

// Token — токен текущей сессии или пустая строка.
func (s *Store) Token() string {
	if sess := s.Get(); sess != nil {
		return sess.Token
	}
	return ""
}

// Username — имя текущего админа или пустая строка.
func (s *Store) Username() string {
	if sess := s.Get(); sess != nil {
		return sess.Username
	}
	return ""
}

// Subscribe регистрирует слушателя, вызываемого после каждого Set/Clear.
// Возвращает функцию отписки. Слушатели зовутся синхронно, без очередей.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// LogoutReason — сохранённое объяснение последнего выхода или пустая строка.
func (s *Store) LogoutReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.Get(keyLogoutReason)
}

// ClearLogoutReason стирает объяснение (обычно после показа пользователю).
func (s *Store) ClearLogoutReason() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storage.Delete(keyLogoutReason)
}

// notify зовёт слушателей вне мьютекса: слушатель может снова дёрнуть Store.
func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
