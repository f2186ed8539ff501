package storage

import "sync"

// MemoryBackend keeps records in a map. A quota of 0 means unbounded.
type MemoryBackend struct {
	mu    sync.RWMutex
	data  map[string]string
	quota int
}

func NewMemoryBackend(quota int) *MemoryBackend {
	return &MemoryBackend{data: make(map[string]string), quota: quota}
}

func (b *MemoryBackend) Get(key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *MemoryBackend) Set(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.quota > 0 {
		used := len(value)
		for k, v := range b.data {
			if k != key {
				used += len(v)
			}
		}
		if used > b.quota {
			return quotaError(used, b.quota)
		}
	}
	b.data[key] = value
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}
