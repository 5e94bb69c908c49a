package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory implementa Client sobre go-cache. Es seguro para uso concurrente.
type Memory struct {
	prefix string
	c      *gocache.Cache
}

// NewMemory crea un cache en memoria con limpieza cada minuto.
func NewMemory(prefix string) *Memory {
	return &Memory{prefix: prefix, c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(prefixed(m.prefix, key))
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.c.Set(prefixed(m.prefix, key), value, expiration(ttl))
	return nil
}

func (m *Memory) Add(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := m.c.Add(prefixed(m.prefix, key), value, expiration(ttl)); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(prefixed(m.prefix, key))
	return nil
}

// Len devuelve la cantidad de items (incluye expirados aún no limpiados).
func (m *Memory) Len() int { return m.c.ItemCount() }

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { m.c.Flush(); return nil }

// go-cache interpreta 0 como "default"; acá 0 es "no expira".
func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}
