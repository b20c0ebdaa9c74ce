package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
}

func (m memoryItem) expired(now time.Time) bool {
	return !m.expireAt.IsZero() && now.After(m.expireAt)
}

// MemoryCache implements ListService in process. Values are stored encoded,
// so Get always returns a copy.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	lists map[string][]string
	stop  chan struct{}
	once  sync.Once
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{CleanupInterval: 5 * time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}
	c := &MemoryCache{
		items: make(map[string]memoryItem),
		lists: make(map[string][]string),
		stop:  make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go c.janitor(cfg.CleanupInterval)
	}
	return c
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	item := memoryItem{data: data}
	if expiration > 0 {
		item.expireAt = time.Now().Add(expiration)
	}
	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || item.expired(time.Now()) {
		return ErrCacheMiss
	}
	if s, ok := dest.(*string); ok {
		*s = string(item.data)
		return nil
	}
	return json.Unmarshal(item.data, dest)
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
		delete(c.lists, k)
	}
	return nil
}

func (c *MemoryCache) PushCapped(_ context.Context, key string, max int, values ...interface{}) error {
	if len(values) == 0 {
		return nil
	}
	head := make([]string, len(values))
	for i, v := range values {
		data, err := encode(v)
		if err != nil {
			return err
		}
		head[len(values)-1-i] = string(data)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	list := append(head, c.lists[key]...)
	if max > 0 && len(list) > max {
		list = list[:max]
	}
	c.lists[key] = list
	return nil
}

func (c *MemoryCache) Range(_ context.Context, key string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := c.lists[key]
	if n < len(list) {
		list = list[:n]
	}
	return append([]string(nil), list...), nil
}

func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryCache) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			c.mu.Lock()
			for k, it := range c.items {
				if it.expired(now) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}
