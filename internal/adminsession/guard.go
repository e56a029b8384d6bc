package adminsession

import (
	"sync"
	"time"
)

// Guard — дебаунс повторных срабатываний одного и того же действия.
// Первый TryPass проходит, последующие в течение window подавляются,
// после истечения окна гард взводится заново сам.
type Guard struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
	now    func() time.Time
}

func NewGuard(window time.Duration) *Guard {
	return &Guard{window: window, now: time.Now}
}

// TryPass возвращает true, если действие разрешено, и закрывает окно.
func (g *Guard) TryPass() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.last.IsZero() && now.Sub(g.last) < g.window {
		return false
	}
	g.last = now
	return true
}

// Reset открывает гард немедленно, не дожидаясь окна.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = time.Time{}
}
