package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jstarsky/app-marvel-backend/internal/http/middleware"
	"github.com/jstarsky/app-marvel-backend/internal/http/response"
	"github.com/jstarsky/app-marvel-backend/internal/models"
)

// AuthService — контракт доменного сервиса, нужный HTTP-слою.
type AuthService interface {
	RegisterUser(ctx context.Context, username, password, passwordConfirm string) (*models.User, *models.TokenPair, error)
	LoginUser(ctx context.Context, username, password string) (*models.User, *models.TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error)
	GlobalLogout(ctx context.Context, accessToken string) (int64, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword, confirmPassword string) error
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, *models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error)
	Authenticate(ctx context.Context, accessToken string) (uuid.UUID, string, error)
}

// Handlers агрегирует зависимости HTTP-обработчиков.
type Handlers struct {
	svc AuthService
}

func New(svc AuthService) *Handlers {
	return &Handlers{svc: svc}
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// userView — проекция пользователя для клиентов (без хэша пароля).
type userView struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	CreatedAt time.Time  `json:"created_at"`
	Phone     *string    `json:"phone,omitempty"`
	AvatarURL *string    `json:"avatar,omitempty"`
	Bio       *string    `json:"bio,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toUserView(user *models.User) userView {
	return userView{
		ID:        user.ID.String(),
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}

// toFullUserView — пользователь вместе с полями профиля.
func toFullUserView(user *models.User, profile *models.Profile) userView {
	v := toUserView(user)
	if profile != nil {
		v.Phone = &profile.Phone
		v.AvatarURL = &profile.AvatarURL
		v.Bio = &profile.Bio
		if !profile.UpdatedAt.IsZero() {
			v.UpdatedAt = &profile.UpdatedAt
		}
	}
	return v
}

// tokenView — проекция пары токенов.
type tokenView struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

func toTokenView(pair *models.TokenPair) tokenView {
	return tokenView{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}

func writeBadJSON(w http.ResponseWriter) {
	response.Error(w, http.StatusBadRequest, "malformed_request", nil)
}

// identity достаёт аутентифицированного субъекта, положенного RequireAuth.
func identity(r *http.Request) (middleware.Identity, bool) {
	return middleware.IdentityFrom(r.Context())
}
