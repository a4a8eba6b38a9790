package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jstarsky/app-marvel-backend/internal/models"
	"github.com/jstarsky/app-marvel-backend/internal/storage"
)

// SaveOutstanding регистрирует выпущенный refresh-токен в леджере.
// Обращение к несозданной таблице маппится в storage.ErrNotReady:
// выпуск токена без учётной записи недопустим.
func (s *Storage) SaveOutstanding(ctx context.Context, token *models.OutstandingToken) error {
	const op = "storage.postgres.SaveOutstanding"

	query := `
        INSERT INTO outstanding_tokens(jti, user_id, issued_at, expires_at)
        VALUES ($1, $2, $3, $4)
    `

	_, err := s.db.Exec(ctx, query,
		token.JTI,
		token.UserID,
		token.IssuedAt,
		token.ExpiresAt,
	)

	if err != nil {
		if isUndefinedTable(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrNotReady)
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// OutstandingByJTI находит учётную запись токена по jti.
func (s *Storage) OutstandingByJTI(ctx context.Context, jti uuid.UUID) (*models.OutstandingToken, error) {
	const op = "storage.postgres.OutstandingByJTI"

	query := `
        SELECT jti, user_id, issued_at, expires_at
        FROM outstanding_tokens
        WHERE jti = $1
    `

	var token models.OutstandingToken
	err := s.db.QueryRow(ctx, query, jti).Scan(
		&token.JTI,
		&token.UserID,
		&token.IssuedAt,
		&token.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		if isUndefinedTable(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotReady)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &token, nil
}

// IsBlacklisted сообщает, отозван ли токен.
func (s *Storage) IsBlacklisted(ctx context.Context, jti uuid.UUID) (bool, error) {
	const op = "storage.postgres.IsBlacklisted"

	query := `
        SELECT EXISTS(
            SELECT 1 FROM blacklisted_tokens WHERE jti = $1
        )
    `

	var revoked bool
	if err := s.db.QueryRow(ctx, query, jti).Scan(&revoked); err != nil {
		if isUndefinedTable(err) {
			return false, fmt.Errorf("%s: %w", op, storage.ErrNotReady)
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return revoked, nil
}

// BlacklistToken отзывает один токен (get-or-create).
// Возвращает:
//
//	(true, nil)  — токен отозван этим вызовом;
//	(false, nil) — токен уже был отозван ранее (повтор — no-op);
//	(false, ErrNotFound) — jti не числится среди outstanding.
func (s *Storage) BlacklistToken(ctx context.Context, jti uuid.UUID, at time.Time) (bool, error) {
	const op = "storage.postgres.BlacklistToken"

	// FK на outstanding_tokens гарантирует, что отзывать можно только
	// учтённые токены; ON CONFLICT даёт идемпотентность при гонках.
	query := `
        INSERT INTO blacklisted_tokens(jti, blacklisted_at)
        VALUES ($1, $2)
        ON CONFLICT (jti) DO NOTHING
    `

	cmdTag, err := s.db.Exec(ctx, query, jti, at)
	if err != nil {
		if isUndefinedTable(err) {
			return false, fmt.Errorf("%s: %w", op, storage.ErrNotReady)
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

// BlacklistAllForUser отзывает все outstanding-токены пользователя одним
// атомарным INSERT ... SELECT: частичных отзывов не бывает, повторный вызов
// идемпотентен (ON CONFLICT DO NOTHING). Возвращает число впервые отозванных.
func (s *Storage) BlacklistAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	const op = "storage.postgres.BlacklistAllForUser"

	query := `
        INSERT INTO blacklisted_tokens(jti, blacklisted_at)
        SELECT jti, $2
        FROM outstanding_tokens
        WHERE user_id = $1
        ON CONFLICT (jti) DO NOTHING
    `

	cmdTag, err := s.db.Exec(ctx, query, userID, at)
	if err != nil {
		if isUndefinedTable(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrNotReady)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected(), nil
}

// DeleteExpired удаляет естественно истёкшие outstanding-записи;
// blacklist-отметки уходят каскадом по FK.
func (s *Storage) DeleteExpired(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpired"

	query := `
        DELETE FROM outstanding_tokens
        WHERE expires_at <= $1
    `

	_, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
