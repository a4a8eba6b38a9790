package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jstarsky/app-marvel-backend/internal/models"
	"github.com/jstarsky/app-marvel-backend/internal/pkg/log"
	"github.com/jstarsky/app-marvel-backend/internal/storage"
	"github.com/jstarsky/app-marvel-backend/internal/token"
)

// issueTokenPair выпускает новую пару access+refresh токенов.
// Учётная запись refresh-токена (outstanding) создаётся строго ДО возврата
// пары: если леджер недоступен, операция целиком завершается
// ErrTokensUnavailable — токен без возможности отзыва не должен попасть
// в оборот.
func (s *Service) issueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.token.issueTokenPair"

	lg := log.From(ctx)
	now := time.Now().UTC()

	accessToken, _, err := s.codec.Encode(user.ID, user.Username, token.KindAccess, now)
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, jti, err := s.codec.Encode(user.ID, "", token.KindRefresh, now)
	if err != nil {
		lg.Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	outstanding := &models.OutstandingToken{
		JTI:       jti,
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.codec.TTL(token.KindRefresh)),
	}

	if err := s.storage.SaveOutstanding(ctx, outstanding); err != nil {
		if errors.Is(err, storage.ErrNotReady) {
			lg.Error("token_storage_not_provisioned",
				slog.String("op", op),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrTokensUnavailable)
		}

		lg.Error("save_outstanding_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.codec.TTL(token.KindAccess)),
	}, nil
}

// RefreshTokens обновляет пару токенов по refresh-токену.
//
// Refresh пригоден для обмена, только если: подпись валидна, срок не истёк,
// jti числится среди outstanding и не отозван. Обмен одноразовый:
// предъявленный токен отзывается (rotate-on-use) до выпуска новой пары.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.token.RefreshTokens"

	lg := log.From(ctx)

	decoded, err := s.codec.Decode(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if decoded.Kind != token.KindRefresh {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if _, err := s.storage.OutstandingByJTI(ctx, decoded.JTI); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_not_outstanding",
				slog.String("op", op),
				slog.String("jti", decoded.JTI.String()),
			)
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
		if errors.Is(err, storage.ErrNotReady) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokensUnavailable)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	revoked, err := s.isRevoked(ctx, decoded.JTI)
	if err != nil {
		if errors.Is(err, storage.ErrNotReady) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokensUnavailable)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		lg.Warn("refresh_revoked",
			slog.String("op", op),
			slog.String("user_id", decoded.UserID.String()),
		)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	user, err := s.storage.UserByID(ctx, decoded.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	// Ротация: предъявленный refresh отзывается до выпуска нового.
	now := time.Now().UTC()
	fresh, err := s.storage.BlacklistToken(ctx, decoded.JTI, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
		if errors.Is(err, storage.ErrNotReady) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokensUnavailable)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	if !fresh {
		// Конкурентное повторное использование того же refresh.
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	s.markRevokedCache(ctx, decoded.JTI, decoded.ExpiresAt)

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user.ID, nil
}

// GlobalLogout отзывает все outstanding refresh-токены владельца access-токена
// ("выход на всех устройствах"). Возвращает число впервые отозванных токенов
// (информационно).
//
// Если allow_expired_logout включён, identity-claim читается и из
// просроченного токена — подпись проверяется всегда.
func (s *Service) GlobalLogout(ctx context.Context, accessToken string) (int64, error) {
	const op = "service.token.GlobalLogout"

	lg := log.From(ctx)

	var (
		decoded *token.Token
		err     error
	)
	if s.cfg.AllowExpiredLogout {
		decoded, err = s.codec.DecodeAllowExpired(accessToken)
	} else {
		decoded, err = s.codec.Decode(accessToken)
	}
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return 0, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return 0, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if decoded.Kind != token.KindAccess {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if decoded.UserID == uuid.Nil {
		return 0, fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	user, err := s.storage.UserByID(ctx, decoded.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	count, err := s.storage.BlacklistAllForUser(ctx, user.ID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotReady) {
			lg.Error("token_storage_not_provisioned",
				slog.String("op", op),
			)
			return 0, fmt.Errorf("%s: %w", op, ErrTokensUnavailable)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("global_logout",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
		slog.Int64("revoked", count),
	)

	return count, nil
}

// isRevoked проверяет отзыв jti: сначала быстрый путь через кэш
// (только положительные ответы), затем леджер в БД.
func (s *Service) isRevoked(ctx context.Context, jti uuid.UUID) (bool, error) {
	if s.rcache != nil {
		revoked, err := s.rcache.IsRevoked(ctx, jti)
		if err == nil && revoked {
			return true, nil
		}
		// Ошибка кэша не фатальна — источник истины в БД.
	}

	return s.storage.IsBlacklisted(ctx, jti)
}

// markRevokedCache помечает jti отозванным в кэше (best-effort).
func (s *Service) markRevokedCache(ctx context.Context, jti uuid.UUID, expiresAt time.Time) {
	if s.rcache == nil {
		return
	}

	ttl := time.Until(expiresAt)
	if err := s.rcache.MarkRevoked(ctx, jti, ttl); err != nil {
		log.From(ctx).Warn("revocation_cache_mark_failed",
			slog.String("jti", jti.String()),
			slog.String("err", err.Error()),
		)
	}
}
