package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/jstarsky/app-marvel-backend/internal/http/response"
)

// TokenValidator проверяет access-токен и возвращает identity владельца.
type TokenValidator interface {
	Authenticate(ctx context.Context, accessToken string) (uuid.UUID, string, error)
}

// RequireAuth закрывает маршрут: запрос без валидного access-токена
// отклоняется с 401, identity кладётся в контекст (см. IdentityFrom).
// Ожидает, что AuthBearer уже извлёк токен из Authorization.
func RequireAuth(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := TokenFrom(r.Context())
			if !ok {
				response.Error(w, http.StatusUnauthorized, "authorization_required", nil)
				return
			}

			userID, username, err := v.Authenticate(r.Context(), raw)
			if err != nil {
				response.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxIdentity, Identity{
				UserID:   userID,
				Username: username,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
