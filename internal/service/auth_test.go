package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jstarsky/app-marvel-backend/internal/config"
	"github.com/jstarsky/app-marvel-backend/internal/models"
	"github.com/jstarsky/app-marvel-backend/internal/storage"
	"github.com/jstarsky/app-marvel-backend/mocks"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:          "unit-secret",
		AccessTokenTTL:     30 * time.Second,
		RefreshTokenTTL:    24 * time.Hour,
		Issuer:             "app-marvel-backend",
		AllowExpiredLogout: true,
	}
}

func testPwCfg() config.PasswordConfig {
	return config.PasswordConfig{MinLength: 8, MaxLength: 128}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc := New(st, testCfg(), testPwCfg())
	return svc, st, ctrl
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := hashPassword(pw)
	require.NoError(t, err)
	return h
}

func TestRegisterUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	pw := "Str0ngPass!"

	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().SaveProfile(gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().SaveOutstanding(gomock.Any(), gomock.Any()).Return(nil)

	user, pair, err := svc.RegisterUser(ctx, "alice", pw, pw)
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.NotEqual(t, uuid.Nil, user.ID)
	require.True(t, user.Active)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.WithinDuration(t, time.Now().Add(svc.cfg.AccessTokenTTL), pair.AccessExpiresAt, 2*time.Second)
}

func TestRegisterUser_TrimsUsername(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	pw := "Str0ngPass!"

	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().SaveProfile(gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().SaveOutstanding(gomock.Any(), gomock.Any()).Return(nil)

	user, _, err := svc.RegisterUser(context.Background(), "  alice  ", pw, pw)
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
}

func TestRegisterUser_PasswordMismatch(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, _, err := svc.RegisterUser(context.Background(), "alice", "Str0ngPass!", "Another1!")
	require.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Fields, "password_confirm")
}

func TestRegisterUser_CollectsAllViolations(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Короткий и полностью числовой: оба кода должны попасть в ответ.
	_, _, err := svc.RegisterUser(context.Background(), "alice", "1234", "1234")
	require.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Fields["password"], "password_too_short")
	require.Contains(t, ve.Fields["password"], "password_entirely_numeric")
}

func TestRegisterUser_EmptyUsername(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, _, err := svc.RegisterUser(context.Background(), "   ", "Str0ngPass!", "Str0ngPass!")
	require.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Fields, "username")
}

func TestRegisterUser_UsernameTaken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	existing := &models.User{ID: uuid.New(), Username: "alice"}
	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(existing, nil)

	_, _, err := svc.RegisterUser(context.Background(), "alice", "Str0ngPass!", "Str0ngPass!")
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterUser_RaceOnSave(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Гонка двух регистраций: проверка прошла, вставка упёрлась в unique.
	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, _, err := svc.RegisterUser(context.Background(), "alice", "Str0ngPass!", "Str0ngPass!")
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterUser_TokensUnavailable_GracefulDegradation(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().SaveProfile(gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().SaveOutstanding(gomock.Any(), gomock.Any()).Return(storage.ErrNotReady)

	user, pair, err := svc.RegisterUser(context.Background(), "alice", "Str0ngPass!", "Str0ngPass!")
	require.ErrorIs(t, err, ErrTokensUnavailable)
	// Пользователь создан несмотря на недоступный леджер.
	require.NotNil(t, user)
	require.Nil(t, pair)
}

func TestRegisterUser_ProfileFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().SaveProfile(gomock.Any(), gomock.Any()).Return(errors.New("boom"))
	st.EXPECT().SaveOutstanding(gomock.Any(), gomock.Any()).Return(nil)

	user, pair, err := svc.RegisterUser(context.Background(), "alice", "Str0ngPass!", "Str0ngPass!")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, pair)
}

func TestLoginUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	pw := "Str0ngPass!"
	user := &models.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: mustHashPW(t, pw),
		Active:       true,
	}

	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(user, nil)
	st.EXPECT().SaveOutstanding(gomock.Any(), gomock.Any()).Return(nil)

	got, pair, err := svc.LoginUser(context.Background(), "alice", pw)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestLoginUser_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: mustHashPW(t, "Str0ngPass!"),
		Active:       true,
	}
	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(user, nil)

	_, _, err := svc.LoginUser(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUser_UnknownUser(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByUsername(gomock.Any(), "ghost").Return(nil, storage.ErrNotFound)

	// Неизвестный пользователь неотличим от неверного пароля.
	_, _, err := svc.LoginUser(context.Background(), "ghost", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUser_InactiveUser(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: mustHashPW(t, "Str0ngPass!"),
		Active:       false,
	}
	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(user, nil)

	_, _, err := svc.LoginUser(context.Background(), "alice", "Str0ngPass!")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUser_TokensUnavailable(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	pw := "Str0ngPass!"
	user := &models.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: mustHashPW(t, pw),
		Active:       true,
	}
	st.EXPECT().UserByUsername(gomock.Any(), "alice").Return(user, nil)
	st.EXPECT().SaveOutstanding(gomock.Any(), gomock.Any()).Return(storage.ErrNotReady)

	// Операционный сбой леджера не маскируется под invalid_credentials.
	_, _, err := svc.LoginUser(context.Background(), "alice", pw)
	require.ErrorIs(t, err, ErrTokensUnavailable)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: mustHashPW(t, "OldPass123!"),
		Active:       true,
	}
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	st.EXPECT().UpdatePassword(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).Return(nil)

	err := svc.ChangePassword(context.Background(), user.ID, "OldPass123!", "NewPass456!", "NewPass456!")
	require.NoError(t, err)
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: mustHashPW(t, "OldPass123!"),
	}
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	err := svc.ChangePassword(context.Background(), user.ID, "wrong", "NewPass456!", "NewPass456!")
	require.ErrorIs(t, err, ErrWrongPassword)
}

func TestChangePassword_Mismatch(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: mustHashPW(t, "OldPass123!"),
	}
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	err := svc.ChangePassword(context.Background(), user.ID, "OldPass123!", "NewPass456!", "Other789!")
	require.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Fields, "confirm_password")
}

func TestChangePassword_PolicyViolation(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: mustHashPW(t, "OldPass123!"),
	}
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	err := svc.ChangePassword(context.Background(), user.ID, "OldPass123!", "short1!", "short1!")
	require.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Fields["new_password"], "password_too_short")
}

func TestChangePassword_UserNotFound(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	st.EXPECT().UserByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)

	err := svc.ChangePassword(context.Background(), id, "OldPass123!", "NewPass456!", "NewPass456!")
	require.ErrorIs(t, err, ErrUserNotFound)
}
