package models

import (
	"time"

	"github.com/google/uuid"
)

// User - модель пользователя в системе.
// Пользователи никогда не удаляются физически; деактивация — через флаг Active.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
