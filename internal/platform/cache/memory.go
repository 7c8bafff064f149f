package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache is a process-local Cache for tests and single-node deployments
type MemoryCache struct {
	mu     sync.RWMutex
	hashes map[string]map[string][]byte
	sets   map[string]map[string]struct{}
	values map[string]memoryValue
}

type memoryValue struct {
	data      []byte
	expiresAt time.Time
}

func (v memoryValue) expired() bool {
	return !v.expiresAt.IsZero() && time.Now().After(v.expiresAt)
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		hashes: make(map[string]map[string][]byte),
		sets:   make(map[string]map[string]struct{}),
		values: make(map[string]memoryValue),
	}
}

func (c *MemoryCache) GetHashField(_ context.Context, key, field string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.hashes[key]
	if !ok {
		return nil, ErrMiss
	}
	val, ok := h[field]
	if !ok {
		return nil, ErrMiss
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (c *MemoryCache) PutHashField(_ context.Context, key, field string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hashes[key]
	if !ok {
		h = make(map[string][]byte)
		c.hashes[key] = h
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	h[field] = stored
	return nil
}

func (c *MemoryCache) DeleteHashFields(_ context.Context, key string, fields ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hashes[key]
	if !ok {
		return nil
	}
	for _, f := range fields {
		delete(h, f)
	}
	return nil
}

func (c *MemoryCache) DeleteKey(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.hashes, k)
		delete(c.sets, k)
		delete(c.values, k)
	}
	return nil
}

func (c *MemoryCache) AddToSet(_ context.Context, key string, members ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sets[key]
	if !ok {
		s = make(map[string]struct{})
		c.sets[key] = s
	}
	for _, m := range members {
		s[m] = struct{}{}
	}
	return nil
}

func (c *MemoryCache) RemoveFromSet(_ context.Context, key string, members ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sets[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(s, m)
	}
	return nil
}

func (c *MemoryCache) SetMembers(_ context.Context, key string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.sets[key]
	members := make([]string, 0, len(s))
	for m := range s {
		members = append(members, m)
	}
	return members, nil
}

func (c *MemoryCache) GetValue(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	v, ok := c.values[key]
	c.mu.RUnlock()
	if !ok || v.expired() {
		return nil, ErrMiss
	}
	out := make([]byte, len(v.data))
	copy(out, v.data)
	return out, nil
}

func (c *MemoryCache) SetValue(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	v := memoryValue{data: stored}
	if ttl > 0 {
		v.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.values[key] = v
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.values {
		if strings.HasPrefix(k, prefix) {
			delete(c.values, k)
		}
	}
	for k := range c.hashes {
		if strings.HasPrefix(k, prefix) {
			delete(c.hashes, k)
		}
	}
	for k := range c.sets {
		if strings.HasPrefix(k, prefix) {
			delete(c.sets, k)
		}
	}
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}
