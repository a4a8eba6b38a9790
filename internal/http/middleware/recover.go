package middleware

import (
	"log/slog"
	"net/http"

	"github.com/jstarsky/app-marvel-backend/internal/http/response"
	logctx "github.com/jstarsky/app-marvel-backend/internal/pkg/log"
)

// Recover перехватывает panic, конвертирует в 500/internal и пишет унифицированный ответ.
// Детали паники не утекают на клиент.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					// Безопасно логируем факт паники; детали наружу не отдаем.
					logctx.From(r.Context()).
						LogAttrs(r.Context(), slog.LevelError, "panic",
							slog.String("path", r.URL.Path),
							slog.Any("reason", rec),
						)
					response.Error(w, http.StatusInternalServerError, "internal", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
