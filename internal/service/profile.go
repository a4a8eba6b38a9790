package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jstarsky/app-marvel-backend/internal/models"
	"github.com/jstarsky/app-marvel-backend/internal/storage"
)

const (
	maxPhoneLength = 20
	maxBioLength   = 500
)

// Profile возвращает пользователя вместе с профилем.
// Отсутствующий профиль (пользователи, созданные до введения профилей)
// подменяется пустым — это не ошибка.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.User, *models.Profile, error) {
	const op = "service.profile.Profile"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	profile, err := s.storage.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user, &models.Profile{UserID: userID}, nil
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, profile, nil
}

// UpdateProfile применяет частичное обновление профиля (nil-поля не меняются).
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error) {
	const op = "service.profile.UpdateProfile"

	ve := &ValidationError{}
	if upd.Phone != nil && len([]rune(*upd.Phone)) > maxPhoneLength {
		ve.add("phone", "phone_too_long")
	}
	if upd.Bio != nil && len([]rune(*upd.Bio)) > maxBioLength {
		ve.add("bio", "bio_too_long")
	}
	if !ve.empty() {
		return nil, fmt.Errorf("%s: %w", op, ve)
	}

	if _, err := s.storage.UserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile, err := s.storage.ProfileByUserID(ctx, userID)
	missing := false
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		missing = true
		profile = &models.Profile{UserID: userID}
	}

	if upd.Phone != nil {
		profile.Phone = *upd.Phone
	}
	if upd.AvatarURL != nil {
		profile.AvatarURL = *upd.AvatarURL
	}
	if upd.Bio != nil {
		profile.Bio = *upd.Bio
	}
	profile.UpdatedAt = time.Now().UTC()

	if missing {
		err = s.storage.SaveProfile(ctx, profile)
	} else {
		err = s.storage.UpdateProfile(ctx, profile)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}
