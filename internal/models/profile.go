package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile - расширенные данные пользователя (один-к-одному с User).
// Создаётся пустым при регистрации.
type Profile struct {
	UserID    uuid.UUID
	Phone     string
	AvatarURL string
	Bio       string
	UpdatedAt time.Time
}

// ProfileUpdate — частичное обновление профиля.
// nil-поле означает "не менять".
type ProfileUpdate struct {
	Phone     *string
	AvatarURL *string
	Bio       *string
}
