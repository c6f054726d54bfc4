package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/chgasparoto/tf-aws-serverless/internal/observability/logger"
)

// ErrInvalidToken cubre todos los rechazos de verificación: token malformado,
// kid desconocido, firma inválida, algoritmo distinto de RS256, claims
// vencidas. El detalle queda wrapeado para los logs; al cliente siempre le
// llega un 401 genérico.
var ErrInvalidToken = errors.New("jwt: invalid token")

// Claims es el contenido verificado de un bearer token. Solo se construye
// acá, nunca desde input sin verificar.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Verifier valida firma RS256 y claims temporales usando el KeysetCache.
// La verificación nunca toca la ventana de frescura del cache; el refresh
// es asunto exclusivo de KeysetCache.Get.
type Verifier struct {
	keys *KeysetCache
}

// NewVerifier crea el verifier sobre el cache inyectado.
func NewVerifier(keys *KeysetCache) *Verifier {
	return &Verifier{keys: keys}
}

// Verify valida el token y retorna las claims con el subject poblado.
// Un fallo de fetch del key set se propaga como ErrKeyFetch, no como
// token inválido.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("missing kid header")
		}
		set, err := v.keys.Get(ctx)
		if err != nil {
			return nil, err
		}
		jwk, ok := set.Find(kid)
		if !ok {
			logger.From(ctx).Debug("kid not present in current key set", logger.KID(kid))
			return nil, fmt.Errorf("no matching key found for kid %q", kid)
		}
		return jwk.PublicKey()
	}

	tok, err := jwtv5.Parse(token, keyfunc,
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, ErrKeyFetch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	claims := &Claims{Subject: sub}
	if email, _ := mc["email"].(string); email != "" {
		claims.Email = email
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
