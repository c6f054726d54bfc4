package middlewares

import (
	"context"

	jwtx "github.com/chgasparoto/tf-aws-serverless/internal/jwt"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyClaims
	ctxKeyUserID
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID retorna el request ID del contexto, o "" si no hay.
func GetRequestID(ctx context.Context) string {
	rid, _ := ctx.Value(ctxKeyRequestID).(string)
	return rid
}

// WithClaims guarda las claims verificadas en el contexto.
func WithClaims(ctx context.Context, claims *jwtx.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, claims)
}

// GetClaims retorna las claims del contexto, o nil si el request no venía
// autenticado.
func GetClaims(ctx context.Context) *jwtx.Claims {
	claims, _ := ctx.Value(ctxKeyClaims).(*jwtx.Claims)
	return claims
}

// WithUserID guarda el subject autenticado en el contexto.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// GetUserID retorna el subject autenticado, o "" si no hay.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}
