package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
)

// lockTable candados exclusivos por clave con espera acotada (equivalente a lock_timeout).
type lockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]chan struct{})}
}

func (l *lockTable) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// acquire espera hasta timeout; timeout <= 0 espera sin límite (solo ctx).
func (l *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := l.slot(key)
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case ch <- struct{}{}:
		return nil
	case <-expired:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *lockTable) release(key string) {
	<-l.slot(key)
}
