// storage задаёт контракты работы с БД: пользователи, профили и
// леджер refresh-токенов (outstanding/blacklist).
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jstarsky/app-marvel-backend/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/профиль/токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (username/jti).
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotReady — таблицы леджера токенов не созданы (миграции не применены).
	// Отдельный сигнал: это операционная проблема провижининга, а не ошибка
	// данных, и наверху она маппится в 5xx, а не в 4xx.
	ErrNotReady = errors.New("token storage not provisioned")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByUsername находит пользователя по имени (без учёта регистра).
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UpdatePassword заменяет хэш пароля пользователя.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, updatedAt time.Time) error
}

// ProfileStorage выполняет операции над профилями пользователей.
type ProfileStorage interface {
	// SaveProfile создаёт профиль (один-к-одному с пользователем).
	SaveProfile(ctx context.Context, profile *models.Profile) error
	// ProfileByUserID находит профиль по ID пользователя.
	ProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	// UpdateProfile сохраняет изменённые поля профиля.
	UpdateProfile(ctx context.Context, profile *models.Profile) error
}

// TokenStorage — леджер refresh-токенов.
//
// Инварианты:
//   - outstanding-записи append-only: каждая выпущенная запись живёт до
//     естественного истечения (удаляется только фоновой очисткой);
//   - blacklist append-only и идемпотентен: повторный отзыв того же jti —
//     no-op, а не ошибка.
type TokenStorage interface {
	// SaveOutstanding регистрирует выпущенный refresh-токен.
	// Возвращает ErrNotReady, если таблицы леджера не созданы.
	SaveOutstanding(ctx context.Context, token *models.OutstandingToken) error
	// OutstandingByJTI находит учётную запись токена по jti.
	OutstandingByJTI(ctx context.Context, jti uuid.UUID) (*models.OutstandingToken, error)
	// IsBlacklisted сообщает, отозван ли токен.
	IsBlacklisted(ctx context.Context, jti uuid.UUID) (bool, error)
	// BlacklistToken отзывает один токен (get-or-create).
	// Возвращает:
	//	(true, nil)  — токен отозван этим вызовом;
	//	(false, nil) — токен уже был отозван ранее;
	//	(false, ErrNotFound) — jti не числится среди outstanding.
	BlacklistToken(ctx context.Context, jti uuid.UUID, at time.Time) (bool, error)
	// BlacklistAllForUser отзывает все outstanding-токены пользователя одним
	// атомарным запросом. Возвращает число впервые отозванных записей.
	BlacklistAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	// DeleteExpired удаляет естественно истёкшие outstanding-записи
	// (и каскадно их blacklist-отметки).
	DeleteExpired(ctx context.Context, now time.Time) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	ProfileStorage
	TokenStorage
	Close()
}
