package token

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testCodec() *Codec {
	return New("unit-secret", "app-marvel-backend", 30*time.Second, 24*time.Hour)
}

func TestEncodeDecode_Access_OK(t *testing.T) {
	t.Parallel()

	c := testCodec()
	uid := uuid.New()
	now := time.Now().UTC()

	raw, jti, err := c.Encode(uid, "alice", KindAccess, now)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NotEqual(t, uuid.Nil, jti)

	decoded, err := c.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, uid, decoded.UserID)
	require.Equal(t, "alice", decoded.Username)
	require.Equal(t, KindAccess, decoded.Kind)
	require.Equal(t, jti, decoded.JTI)
	require.WithinDuration(t, now.Add(30*time.Second), decoded.ExpiresAt, 2*time.Second)
}

func TestEncodeDecode_Refresh_NoUsername(t *testing.T) {
	t.Parallel()

	c := testCodec()

	raw, _, err := c.Encode(uuid.New(), "alice", KindRefresh, time.Now().UTC())
	require.NoError(t, err)

	decoded, err := c.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, KindRefresh, decoded.Kind)
	// Username в refresh-токен не попадает.
	require.Empty(t, decoded.Username)
}

func TestDecode_TamperedPayload(t *testing.T) {
	t.Parallel()

	c := testCodec()

	raw, _, err := c.Encode(uuid.New(), "alice", KindAccess, time.Now().UTC())
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)

	// Переворачиваем полезную нагрузку без переподписи.
	tampered := parts[0] + "." + parts[1][1:] + "e." + parts[2]

	_, err = c.Decode(tampered)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()

	raw, _, err := testCodec().Encode(uuid.New(), "alice", KindAccess, time.Now().UTC())
	require.NoError(t, err)

	other := New("other-secret", "app-marvel-backend", 30*time.Second, 24*time.Hour)
	_, err = other.Decode(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_Expired(t *testing.T) {
	t.Parallel()

	c := testCodec()

	// exp в прошлом с запасом больше leeway.
	past := time.Now().UTC().Add(-time.Hour)
	raw, _, err := c.Encode(uuid.New(), "alice", KindAccess, past)
	require.NoError(t, err)

	_, err = c.Decode(raw)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestDecodeAllowExpired_ReadsIdentity(t *testing.T) {
	t.Parallel()

	c := testCodec()
	uid := uuid.New()

	past := time.Now().UTC().Add(-time.Hour)
	raw, _, err := c.Encode(uid, "alice", KindAccess, past)
	require.NoError(t, err)

	decoded, err := c.DecodeAllowExpired(raw)
	require.NoError(t, err)
	require.Equal(t, uid, decoded.UserID)
	require.Equal(t, "alice", decoded.Username)
}

func TestDecodeAllowExpired_StillChecksSignature(t *testing.T) {
	t.Parallel()

	raw, _, err := testCodec().Encode(uuid.New(), "alice", KindAccess, time.Now().UTC())
	require.NoError(t, err)

	other := New("other-secret", "app-marvel-backend", 30*time.Second, 24*time.Hour)
	_, err = other.DecodeAllowExpired(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_WrongIssuer(t *testing.T) {
	t.Parallel()

	foreign := New("unit-secret", "someone-else", 30*time.Second, 24*time.Hour)
	raw, _, err := foreign.Encode(uuid.New(), "alice", KindAccess, time.Now().UTC())
	require.NoError(t, err)

	_, err = testCodec().Decode(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_Garbage(t *testing.T) {
	t.Parallel()

	_, err := testCodec().Decode("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTTL_PerKind(t *testing.T) {
	t.Parallel()

	c := testCodec()
	require.Equal(t, 30*time.Second, c.TTL(KindAccess))
	require.Equal(t, 24*time.Hour, c.TTL(KindRefresh))
}
