package libretro

import (
	"path/filepath"
	"sync"
)

// libRegistry tracks which library files are owned by live sessions,
// so the same core can't be loaded twice in one process.
type libRegistry struct {
	mu    sync.Mutex
	inUse map[string]struct{}
}

var registry = libRegistry{inUse: map[string]struct{}{}}

func (r *libRegistry) acquire(path string) (release func(), err error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.inUse[key]; taken {
		return nil, ErrCoreInUse
	}
	r.inUse[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.inUse, key)
			r.mu.Unlock()
		})
	}, nil
}
