package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ============================================================
// Store Registry
// ============================================================

const stateKeyPrefix = "dashboard-layout:"

// DefaultLoadTimeout ограничивает чтение состояния владельца из хранилища.
const DefaultLoadTimeout = 5 * time.Second

// StateKey - ключ блоба состояния владельца в хранилище.
func StateKey(owner string) string {
	return stateKeyPrefix + owner
}

// Registry держит по одному Store на владельца и лениво поднимает их
// из хранилища. Параллельные первые запросы одного владельца грузят его один раз.
// Стор, загрузка которого не удалась, перечитывается при следующем Get:
// пока хранилище недоступно, владелец работает с тем же стором в памяти.
type Registry struct {
	loader StateLoader
	writer StateWriter
	scope  CollapseScope

	mu     sync.RWMutex
	stores map[string]*Store
	group  singleflight.Group
}

func NewRegistry(loader StateLoader, writer StateWriter, scope CollapseScope) *Registry {
	return &Registry{
		loader: loader,
		writer: writer,
		scope:  scope,
		stores: make(map[string]*Store),
	}
}

func (r *Registry) Get(ctx context.Context, owner string) *Store {
	if s, ok := r.cached(owner); ok && !s.MemoryOnly() {
		return s
	}

	v, _, _ := r.group.Do(owner, func() (any, error) {
		cached, ok := r.cached(owner)
		if ok && !cached.MemoryOnly() {
			return cached, nil
		}

		// загрузка не должна зависеть от отмены запроса, который ее начал
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultLoadTimeout)
		defer cancel()

		s := LoadStore(loadCtx, StateKey(owner), r.loader, r.writer, r.scope)
		if s.MemoryOnly() && ok {
			return cached, nil
		}
		r.mu.Lock()
		r.stores[owner] = s
		r.mu.Unlock()
		return s, nil
	})
	return v.(*Store)
}

func (r *Registry) cached(owner string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[owner]
	return s, ok
}
