package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jstarsky/app-marvel-backend/internal/models"
	"github.com/jstarsky/app-marvel-backend/internal/pkg/log"
	"github.com/jstarsky/app-marvel-backend/internal/pkg/redact"
	"github.com/jstarsky/app-marvel-backend/internal/storage"
	"github.com/jstarsky/app-marvel-backend/internal/token"
)

const maxUsernameLength = 150

// RegisterUser регистрирует нового пользователя и выпускает пару токенов.
//
// Деградация: если леджер токенов не доступен (ErrTokensUnavailable),
// пользователь всё равно остаётся созданным — возвращаются (user, nil, err),
// и транспорт отвечает 201 с пометкой tokens_unavailable. Регистрация не
// откатывается из-за операционной проблемы с токенами.
func (s *Service) RegisterUser(ctx context.Context, username, password, passwordConfirm string) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.RegisterUser"

	norm := strings.TrimSpace(username)

	ve := &ValidationError{}
	switch {
	case norm == "":
		ve.add("username", "username_required")
	case len([]rune(norm)) > maxUsernameLength:
		ve.add("username", "username_too_long")
	}

	if password != passwordConfirm {
		ve.add("password_confirm", "passwords_mismatch")
	}

	for _, code := range s.validateNewPassword(password, norm) {
		ve.add("password", code)
	}

	if !ve.empty() {
		return nil, nil, fmt.Errorf("%s: %w", op, ve)
	}

	_, err := s.storage.UserByUsername(ctx, norm)
	if err == nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     norm,
		PasswordHash: hashedPassword,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.SaveProfile(ctx, &models.Profile{UserID: user.ID, UpdatedAt: now}); err != nil {
		// Профиль — вторичная запись; регистрацию из-за него не валим.
		log.From(ctx).Error("profile_create_failed",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		log.From(ctx).Warn("register_tokens_unavailable",
			slog.String("op", op),
			slog.String("username", redact.Username(norm)),
		)
		return user, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

// LoginUser выполняет вход по username+пароль.
// Неизвестный пользователь и неверный пароль неразличимы для вызывающего
// (ErrInvalidCredentials); сбой леджера токенов отдаётся отдельным
// ErrTokensUnavailable и не смешивается с 401.
func (s *Service) LoginUser(ctx context.Context, username, password string) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.LoginUser"

	norm := strings.TrimSpace(username)
	if norm == "" || len(password) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByUsername(ctx, norm)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.Active {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

// ChangePassword меняет пароль пользователя.
// Существующие сессии при этом НЕ отзываются — поведение исходной системы
// сохранено сознательно (см. DESIGN.md).
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword, confirmPassword string) error {
	const op = "service.auth.ChangePassword"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	ve := &ValidationError{}
	if newPassword != confirmPassword {
		ve.add("confirm_password", "passwords_mismatch")
	}
	for _, code := range s.validateNewPassword(newPassword, user.Username) {
		ve.add("new_password", code)
	}
	if !ve.empty() {
		return fmt.Errorf("%s: %w", op, ve)
	}

	if !checkPassword(user.PasswordHash, oldPassword) {
		return fmt.Errorf("%s: %w", op, ErrWrongPassword)
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePassword(ctx, user.ID, hashedPassword, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Authenticate проверяет access-токен и возвращает identity для middleware.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (uuid.UUID, string, error) {
	const op = "service.auth.Authenticate"

	decoded, err := s.codec.Decode(accessToken)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return uuid.Nil, "", fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return uuid.Nil, "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if decoded.Kind != token.KindAccess {
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return decoded.UserID, decoded.Username, nil
}
