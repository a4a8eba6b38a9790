package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jstarsky/app-marvel-backend/internal/models"
	"github.com/jstarsky/app-marvel-backend/internal/storage"
)

// SaveProfile создаёт профиль пользователя.
func (s *Storage) SaveProfile(ctx context.Context, profile *models.Profile) error {
	const op = "storage.postgres.SaveProfile"

	query := `
		INSERT INTO user_profiles(user_id, phone, avatar_url, bio, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query,
		profile.UserID,
		profile.Phone,
		profile.AvatarURL,
		profile.Bio,
		profile.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ProfileByUserID находит профиль по ID пользователя.
func (s *Storage) ProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	const op = "storage.postgres.ProfileByUserID"

	query := `
		SELECT user_id, phone, avatar_url, bio, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	var profile models.Profile
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Phone,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &profile, nil
}

// UpdateProfile сохраняет изменённые поля профиля.
func (s *Storage) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	const op = "storage.postgres.UpdateProfile"

	query := `
		UPDATE user_profiles
		SET phone = $2, avatar_url = $3, bio = $4, updated_at = $5
		WHERE user_id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query,
		profile.UserID,
		profile.Phone,
		profile.AvatarURL,
		profile.Bio,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
