package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jstarsky/app-marvel-backend/internal/http/response"
	"github.com/jstarsky/app-marvel-backend/internal/service"
)

// Register — POST /register.
//
// 201 возвращается и при недоступном леджере токенов: пользователь создан,
// ответ помечается tokens_unavailable, пара токенов отсутствует.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username        string `json:"username"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := decodeStrict(r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	user, pair, err := h.svc.RegisterUser(r.Context(), in.Username, in.Password, in.PasswordConfirm)
	if err != nil {
		if errors.Is(err, service.ErrTokensUnavailable) && user != nil {
			response.Success(w, http.StatusCreated, "tokens_unavailable", map[string]any{
				"user": toUserView(user),
			})
			return
		}

		var ve *service.ValidationError
		if errors.As(err, &ve) {
			response.Error(w, http.StatusBadRequest, "registration_failed", ve.Fields)
			return
		}

		response.WriteError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "", map[string]any{
		"user":          toUserView(user),
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Login — POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeStrict(r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	user, pair, err := h.svc.LoginUser(r.Context(), in.Username, in.Password)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "", map[string]any{
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          toUserView(user),
	})
}

// Refresh — POST /token/refresh. Обмен одноразовый: предъявленный refresh
// отзывается, выдаётся новая пара.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeStrict(r, &in); err != nil {
		writeBadJSON(w)
		return
	}
	if in.Refresh == "" {
		response.Error(w, http.StatusBadRequest, "malformed_request", nil)
		return
	}

	pair, _, err := h.svc.RefreshTokens(r.Context(), in.Refresh)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "", toTokenView(pair))
}

// Logout — POST /logout: отзыв всех refresh-токенов владельца access-токена.
//
// Заголовок разбирается здесь, а не в RequireAuth: просроченный access-токен
// допустим (identity-claim читается и из него), обычный гард такой запрос
// отклонил бы.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	raw, ok := bearerToken(r)
	if !ok {
		response.Error(w, http.StatusBadRequest, "malformed_request", nil)
		return
	}

	if _, err := h.svc.GlobalLogout(r.Context(), raw); err != nil {
		// Токен был структурно валиден, но владелец не найден — это
		// протокольная ошибка вызывающего, не 404 и не 500.
		if errors.Is(err, service.ErrUserNotFound) {
			response.Error(w, http.StatusBadRequest, "malformed_request", nil)
			return
		}

		response.WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "", nil)
}

// ChangePassword — POST /change-password (защищён RequireAuth).
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "authorization_required", nil)
		return
	}

	var in struct {
		OldPassword     string `json:"old_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := decodeStrict(r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), id.UserID, in.OldPassword, in.NewPassword, in.ConfirmPassword); err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			response.Error(w, http.StatusBadRequest, "password_change_failed", ve.Fields)
			return
		}

		response.WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "", nil)
}

// bearerToken достаёт сырой токен из Authorization: Bearer <token>.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}

	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}
