package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jstarsky/app-marvel-backend/internal/config"
)

func policySvc(t *testing.T, cfg config.PasswordConfig) *Service {
	t.Helper()
	// Хранилище для проверки политики не нужно.
	return &Service{validators: newPasswordPolicy(cfg)}
}

func TestPasswordPolicy(t *testing.T) {
	t.Parallel()

	svc := policySvc(t, config.PasswordConfig{MinLength: 8, MaxLength: 20})

	tests := []struct {
		name     string
		password string
		username string
		want     []string
	}{
		{
			name:     "strong password passes",
			password: "Str0ngPass!",
			username: "alice",
			want:     nil,
		},
		{
			name:     "too short",
			password: "Ab1!",
			username: "alice",
			want:     []string{"password_too_short"},
		},
		{
			name:     "too long",
			password: "Abcdefghij1234567890!",
			username: "alice",
			want:     []string{"password_too_long"},
		},
		{
			name:     "contains username",
			password: "xxalice2024!",
			username: "alice",
			want:     []string{"password_too_similar"},
		},
		{
			name:     "similar ignores case",
			password: "xxALICE2024!",
			username: "alice",
			want:     []string{"password_too_similar"},
		},
		{
			name:     "common password",
			password: "password",
			username: "alice",
			want:     []string{"password_too_common"},
		},
		{
			name:     "entirely numeric",
			password: "987654321098",
			username: "alice",
			want:     []string{"password_entirely_numeric"},
		},
		{
			name:     "collects multiple violations",
			password: "1234",
			username: "alice",
			want:     []string{"password_too_short", "password_entirely_numeric"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			codes := svc.validateNewPassword(tc.password, tc.username)
			for _, want := range tc.want {
				require.Contains(t, codes, want)
			}
			if tc.want == nil {
				require.Empty(t, codes)
			}
		})
	}
}

func TestPasswordPolicy_MaxLengthDisabled(t *testing.T) {
	t.Parallel()

	svc := policySvc(t, config.PasswordConfig{MinLength: 8, MaxLength: 0})

	codes := svc.validateNewPassword("Abcdefghij1234567890Abcdefghij!", "alice")
	require.NotContains(t, codes, "password_too_long")
}

func TestLCSRatio(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 1.0, lcsRatio("alice", "alice"), 1e-9)
	require.InDelta(t, 0.0, lcsRatio("abc", "xyz"), 1e-9)
	require.Zero(t, lcsRatio("", "alice"))

	// LCS("alicia","alice")="alic": 2*4/11 > 0.7.
	require.Greater(t, lcsRatio("alicia", "alice"), 0.7)
}

func TestHashCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := hashPassword("Str0ngPass!")
	require.NoError(t, err)
	require.NotEqual(t, "Str0ngPass!", hash)

	require.True(t, checkPassword(hash, "Str0ngPass!"))
	require.False(t, checkPassword(hash, "wrong"))
}
