// response стандартизирует JSON-ответы HTTP-слоя.
//
// Каждый ответ — единый конверт {success, message, errors?, data?}:
//   - success — булев признак исхода;
//   - message — короткий машиночитаемый код (invalid_credentials,
//     tokens_unavailable, ...);
//   - errors — пофилдовая детализация валидации либо текст неожиданной
//     ошибки;
//   - data — полезная нагрузка успешного ответа.
//
// Все доменные ошибки сервиса переводятся в конверт здесь; наружу не
// уходит ни одна «сырая» транспортная ошибка.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jstarsky/app-marvel-backend/internal/service"
)

// Envelope — единый формат ответа для клиентов.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON пишет произвольный конверт с нужным статусом.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// Success — успешный ответ с полезной нагрузкой.
func Success(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Error — ответ об ошибке с кодом и детализацией.
func Error(w http.ResponseWriter, status int, message string, errs any) {
	JSON(w, status, Envelope{Success: false, Message: message, Errors: errs})
}

// FromService — базовый маппинг доменных ошибок сервиса в
// (HTTP-статус, код, детализация).
//
// Таблица:
//   - ErrValidation -> 400 validation_failed (+ пофилдовые коды)
//   - ErrUsernameTaken -> 400 registration_failed
//   - ErrMalformedToken -> 400 malformed_request
//   - ErrUserNotFound -> 400 user_not_found (токен был структурно валиден)
//   - ErrWrongPassword -> 400 old_password_incorrect
//   - ErrInvalidCredentials -> 401 invalid_credentials
//   - ErrInvalidToken -> 401 invalid_token
//   - ErrTokenExpired -> 401 token_expired
//   - ErrTokenRevoked -> 401 token_revoked
//   - ErrTokensUnavailable -> 500 tokens_unavailable (операторский сигнал:
//     искать непримененные миграции)
//   - прочее -> 500 internal; текст ошибки включается в errors — осознанное
//     решение для внутреннего бэкенда ради диагностируемости.
func FromService(err error) (int, string, any) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, "validation_failed", ve.Fields
	}

	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusBadRequest, "registration_failed", map[string][]string{"username": {"username_taken"}}
	case errors.Is(err, service.ErrMalformedToken):
		return http.StatusBadRequest, "malformed_request", nil
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusBadRequest, "user_not_found", nil
	case errors.Is(err, service.ErrWrongPassword):
		return http.StatusBadRequest, "old_password_incorrect", nil
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", nil
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token", nil
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "token_expired", nil
	case errors.Is(err, service.ErrTokenRevoked):
		return http.StatusUnauthorized, "token_revoked", nil
	case errors.Is(err, service.ErrTokensUnavailable):
		return http.StatusInternalServerError, "tokens_unavailable", nil
	default:
		return http.StatusInternalServerError, "internal", err.Error()
	}
}

// WriteError — хелпер для хендлеров: маппит доменную ошибку и пишет конверт.
func WriteError(w http.ResponseWriter, err error) {
	status, message, errs := FromService(err)
	Error(w, status, message, errs)
}
