package adminsession

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	return NewStore(storage), storage
}

func TestRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	expires := time.Now().Add(time.Hour)

	store.Set(Session{Token: "tok-123", Username: "admin@example.com", ExpiresAt: expires})

	sess := store.Get()
	require.NotNil(t, sess)
	require.Equal(t, "tok-123", sess.Token)
	require.Equal(t, "admin@example.com", sess.Username)
	require.Equal(t, expires.UnixNano(), sess.ExpiresAt.UnixNano())
	require.Equal(t, "tok-123", store.Token())
	require.Equal(t, "admin@example.com", store.Username())
}

func TestGetWithoutSession(t *testing.T) {
	store, _ := newTestStore(t)
	require.Nil(t, store.Get())
	require.Empty(t, store.Token())
	require.Empty(t, store.Username())
}

func TestSessionWithoutExpiryNeverExpires(t *testing.T) {
	store, _ := newTestStore(t)
	store.Set(Session{Token: "tok", Username: "admin"})

	store.now = func() time.Time { return time.Now().Add(1000 * time.Hour) }
	sess := store.Get()
	require.NotNil(t, sess)
	require.True(t, sess.ExpiresAt.IsZero())
}

func TestExpiredSessionClearedAtRead(t *testing.T) {
	store, storage := newTestStore(t)
	store.Set(Session{Token: "tok", Username: "admin", ExpiresAt: time.Now().Add(-time.Minute)})

	require.Nil(t, store.Get())
	require.Equal(t, ExpiredReason, store.LogoutReason())
	require.Empty(t, storage.Get(keyToken))
	require.Empty(t, storage.Get(keyUsername))
	require.Empty(t, storage.Get(keyExpiry))
}

func TestCorruptExpiryTreatedAsNoSession(t *testing.T) {
	store, storage := newTestStore(t)
	storage.Set(keyToken, "tok")
	storage.Set(keyUsername, "admin")
	storage.Set(keyExpiry, "not-a-number")

	require.Nil(t, store.Get())
	require.Empty(t, storage.Get(keyToken))
}

func TestSetClearsPriorLogoutReason(t *testing.T) {
	store, _ := newTestStore(t)
	store.ClearWithReason("kicked out")
	require.Equal(t, "kicked out", store.LogoutReason())

	store.Set(Session{Token: "tok", Username: "admin"})
	require.Empty(t, store.LogoutReason())
}

func TestClearLogoutReason(t *testing.T) {
	store, _ := newTestStore(t)
	store.ClearWithReason("because")
	store.ClearLogoutReason()
	require.Empty(t, store.LogoutReason())
}

func TestSubscribeNotifiedOnSetAndClear(t *testing.T) {
	store, _ := newTestStore(t)
	calls := 0
	unsubscribe := store.Subscribe(func() { calls++ })

	store.Set(Session{Token: "tok", Username: "admin"})
	require.Equal(t, 1, calls)

	store.Clear()
	require.Equal(t, 2, calls)

	unsubscribe()
	store.Set(Session{Token: "tok2", Username: "admin"})
	require.Equal(t, 2, calls)
}

func TestMultipleSubscribers(t *testing.T) {
	store, _ := newTestStore(t)
	var first, second int
	store.Subscribe(func() { first++ })
	store.Subscribe(func() { second++ })

	store.Set(Session{Token: "tok", Username: "admin"})
	require.Equal(t, 1, first)
	require.Equal(t, 1, second)
}

func TestClearDebouncedWithinWindow(t *testing.T) {
	store, _ := newTestStore(t)
	base := time.Now()
	store.guard.now = func() time.Time { return base }

	calls := 0
	store.Subscribe(func() { calls++ })

	store.ClearWithReason("first")
	store.ClearWithReason("second")
	require.Equal(t, 1, calls, "clear within the debounce window must be suppressed")
	require.Equal(t, "first", store.LogoutReason())

	// Окно истекло — гард взводится заново.
	store.guard.now = func() time.Time { return base.Add(DebounceWindow + time.Millisecond) }
	store.ClearWithReason("third")
	require.Equal(t, 2, calls)
	require.Equal(t, "third", store.LogoutReason())
}

func TestSetReopensClearGuard(t *testing.T) {
	store, _ := newTestStore(t)
	base := time.Now()
	store.guard.now = func() time.Time { return base }

	calls := 0
	store.Subscribe(func() { calls++ })

	store.Clear()
	store.Set(Session{Token: "tok", Username: "admin"})
	// Несмотря на недавний clear, после логина следующий clear должен пройти.
	store.ClearWithReason("logout")
	require.Equal(t, 3, calls)
	require.Nil(t, store.Get())
}

func TestFileStorageSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store := NewStore(NewFileStorage(path))
	expires := time.Now().Add(time.Hour)
	store.Set(Session{Token: "tok-persist", Username: "admin", ExpiresAt: expires})

	reloaded := NewStore(NewFileStorage(path))
	sess := reloaded.Get()
	require.NotNil(t, sess)
	require.Equal(t, "tok-persist", sess.Token)
	require.Equal(t, expires.UnixNano(), sess.ExpiresAt.UnixNano())
}

func TestFileStorageCorruptFileStartsClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewStore(NewFileStorage(path))
	require.Nil(t, store.Get())

	store.Set(Session{Token: "tok", Username: "admin"})
	require.NotNil(t, store.Get())
}

func TestGuardReArms(t *testing.T) {
	g := NewGuard(time.Second)
	base := time.Now()
	g.now = func() time.Time { return base }

	require.True(t, g.TryPass())
	require.False(t, g.TryPass())

	g.now = func() time.Time { return base.Add(999 * time.Millisecond) }
	require.False(t, g.TryPass())

	g.now = func() time.Time { return base.Add(time.Second) }
	require.True(t, g.TryPass())
}

func TestGuardReset(t *testing.T) {
	g := NewGuard(time.Hour)
	require.True(t, g.TryPass())
	require.False(t, g.TryPass())
	g.Reset()
	require.True(t, g.TryPass())
}
