package jwt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chgasparoto/tf-aws-serverless/internal/cache"
	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
)

const sharedKeysKey = "jwt:jwks"

// SharedFetcher comparte el JWK set vía un cache externo para que varias
// instancias no refetcheen cada una por su cuenta. Solo pasa por acá
// material público (el documento jwks.json); ningún secreto toca el cache.
//
// Un miss o un error del cache solo degradan a fetchear del provider;
// nunca tumban la verificación.
type SharedFetcher struct {
	inner KeysetFetcher
	cache cache.Client
	ttl   time.Duration
}

// NewSharedFetcher envuelve inner con el cache dado. Con ttl <= 0 usa
// DefaultKeysetTTL.
func NewSharedFetcher(inner KeysetFetcher, c cache.Client, ttl time.Duration) *SharedFetcher {
	if ttl <= 0 {
		ttl = DefaultKeysetTTL
	}
	return &SharedFetcher{inner: inner, cache: c, ttl: ttl}
}

func (f *SharedFetcher) FetchSigningKeys(ctx context.Context) (*JWKSet, error) {
	if raw, err := f.cache.Get(ctx, sharedKeysKey); err == nil {
		if set, perr := ParseJWKSet(raw); perr == nil {
			return set, nil
		}
		// Entrada corrupta: la sacamos y seguimos al provider.
		_ = f.cache.Delete(ctx, sharedKeysKey)
	} else if !errors.Is(err, cache.ErrNotFound) {
		logger.From(ctx).Warn("jwks cache read failed", logger.Err(err))
	}

	set, err := f.inner.FetchSigningKeys(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(set); err == nil {
		if err := f.cache.Set(ctx, sharedKeysKey, raw, f.ttl); err != nil {
			logger.From(ctx).Warn("jwks cache write failed", logger.Err(err))
		}
	}
	return set, nil
}
