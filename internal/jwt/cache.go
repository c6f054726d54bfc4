package jwt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultKeysetTTL es la ventana de frescura del key set (1 hora, igual que
// el cache de JWKs del deployment original).
const DefaultKeysetTTL = time.Hour

// ErrKeyFetch indica que no se pudo obtener o parsear el JWK set.
var ErrKeyFetch = errors.New("jwt: failed to fetch signing keys")

// KeysetFetcher obtiene el JWK set publicado por el identity provider.
type KeysetFetcher interface {
	FetchSigningKeys(ctx context.Context) (*JWKSet, error)
}

// KeysetCache cachea el JWK set con TTL. Es el único estado compartido del
// proceso: requests concurrentes pueden correr a refrescarlo y el último
// fetch gana, lo cual es benigno porque los valores son intercambiables.
//
// Si el fetch falla, el valor anterior queda intacto y el error se propaga;
// no hay fallback a claves vencidas.
type KeysetCache struct {
	fetcher KeysetFetcher
	ttl     time.Duration

	mu        sync.RWMutex
	keys      *JWKSet
	fetchedAt time.Time
}

// NewKeysetCache crea el cache. Con ttl <= 0 usa DefaultKeysetTTL.
func NewKeysetCache(fetcher KeysetFetcher, ttl time.Duration) *KeysetCache {
	if ttl <= 0 {
		ttl = DefaultKeysetTTL
	}
	return &KeysetCache{fetcher: fetcher, ttl: ttl}
}

// Get retorna el set cacheado si está fresco; si no, lo refetchea y
// reemplaza el cache entero (nunca updates parciales).
func (c *KeysetCache) Get(ctx context.Context) (*JWKSet, error) {
	now := time.Now()

	c.mu.RLock()
	if c.keys != nil && now.Sub(c.fetchedAt) < c.ttl {
		keys := c.keys
		c.mu.RUnlock()
		return keys, nil
	}
	c.mu.RUnlock()

	keys, err := c.fetcher.FetchSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFetch, err)
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = now
	c.mu.Unlock()
	return keys, nil
}

// Invalidate fuerza un refetch en el próximo Get. Solo se usa en tests.
func (c *KeysetCache) Invalidate() {
	c.mu.Lock()
	c.keys = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
