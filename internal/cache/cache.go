// Package cache es un key/value con TTL sobre dos backends:
//   - memory (go-cache, in-process)
//   - redis (go-redis, compartido entre procesos)
//
// Lo usan el replay de idempotencia del fake server y el de-dup de eventos
// del receptor de webhooks.
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor. ttl 0 = no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Add guarda solo si la key no existe; devuelve false si ya estaba.
	Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Config para crear un cliente.
type Config struct {
	Kind     string // "memory" | "redis"
	Addr     string // host:port de redis
	Password string
	DB       int
	Prefix   string
}

var ErrNotFound = errors.New("cache: key not found")

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// New crea un cliente según Kind. Un Kind desconocido cae a memory.
func New(ctx context.Context, cfg Config) (Client, error) {
	if cfg.Kind == "redis" {
		return NewRedis(ctx, cfg)
	}
	return NewMemory(cfg.Prefix), nil
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
