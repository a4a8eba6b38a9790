package service

import (
	"context"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jstarsky/app-marvel-backend/internal/models"
	"github.com/jstarsky/app-marvel-backend/internal/storage"
)

func strPtr(s string) *string { return &s }

func TestProfile_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Username: "alice", Active: true}
	profile := &models.Profile{UserID: user.ID, Phone: "+70000000000", Bio: "hi"}

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	st.EXPECT().ProfileByUserID(gomock.Any(), user.ID).Return(profile, nil)

	gotUser, gotProfile, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, gotUser.ID)
	require.Equal(t, "+70000000000", gotProfile.Phone)
}

func TestProfile_MissingProfileIsEmpty(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Username: "alice", Active: true}

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	st.EXPECT().ProfileByUserID(gomock.Any(), user.ID).Return(nil, storage.ErrNotFound)

	_, gotProfile, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, gotProfile.UserID)
	require.Empty(t, gotProfile.Phone)
}

func TestProfile_UserNotFound(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	st.EXPECT().UserByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)

	_, _, err := svc.Profile(context.Background(), id)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile_PartialApply(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Username: "alice", Active: true}
	existing := &models.Profile{UserID: user.ID, Phone: "+70000000000", Bio: "old"}

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	st.EXPECT().ProfileByUserID(gomock.Any(), user.ID).Return(existing, nil)
	st.EXPECT().UpdateProfile(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *models.Profile) error {
			// Телефон не передан — не меняется.
			require.Equal(t, "+70000000000", p.Phone)
			require.Equal(t, "new bio", p.Bio)
			return nil
		})

	got, err := svc.UpdateProfile(context.Background(), user.ID, models.ProfileUpdate{Bio: strPtr("new bio")})
	require.NoError(t, err)
	require.Equal(t, "new bio", got.Bio)
}

func TestUpdateProfile_CreatesMissingProfile(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: uuid.New(), Username: "alice", Active: true}

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	st.EXPECT().ProfileByUserID(gomock.Any(), user.ID).Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveProfile(gomock.Any(), gomock.Any()).Return(nil)

	got, err := svc.UpdateProfile(context.Background(), user.ID, models.ProfileUpdate{Phone: strPtr("+7123")})
	require.NoError(t, err)
	require.Equal(t, "+7123", got.Phone)
}

func TestUpdateProfile_Validation(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	longBio := strings.Repeat("x", 501)
	_, err := svc.UpdateProfile(context.Background(), uuid.New(), models.ProfileUpdate{Bio: &longBio})
	require.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Fields, "bio")
}
