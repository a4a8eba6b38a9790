package models

import (
	"time"

	"github.com/google/uuid"
)

// OutstandingToken — учётная запись выпущенного refresh-токена.
//
// Описание:
//   - JTI — уникальный идентификатор токена (claim jti в JWT);
//   - запись создаётся строго ДО возврата refresh-токена клиенту:
//     токен без учётной записи невозможно отозвать;
//   - таблица append-only; записи удаляются только фоновой очисткой
//     после естественного истечения срока.
type OutstandingToken struct {
	// JTI — идентификатор refresh-токена.
	JTI uuid.UUID
	// UserID — владелец токена.
	UserID uuid.UUID
	// IssuedAt — момент выпуска (UTC).
	IssuedAt time.Time
	// ExpiresAt — момент естественного истечения (UTC).
	ExpiresAt time.Time
}
