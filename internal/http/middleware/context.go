package middleware

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxAuthToken
	ctxIdentity
)

// Identity — аутентифицированный субъект запроса.
type Identity struct {
	UserID   uuid.UUID
	Username string
}

// RequestIDFrom возвращает request id запроса, если он есть в контексте.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxRequestID).(string)
	return id, ok
}

// TokenFrom возвращает сырой Bearer-токен, если он есть в контексте.
func TokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ctxAuthToken).(string)
	return token, ok
}

// IdentityFrom возвращает identity, положенный RequireAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(Identity)
	return id, ok
}
