// token реализует кодек подписанных токенов (access/refresh).
//
// Кодек не знает про хранилище: валидность здесь — это только подпись,
// формат полезной нагрузки и срок действия. Проверка отзыва (blacklist)
// выполняется сервисным слоем поверх результата Decode.
//
// Формат: JWT HS256 с клеймами uid, username (только access), kind и
// стандартными jti/iat/exp/iss. Любое изменение полезной нагрузки без
// переподписи приводит к ErrInvalidToken.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind различает назначение токена.
type Kind string

const (
	// KindAccess — короткоживущий токен доступа к API.
	KindAccess Kind = "access"
	// KindRefresh — долгоживущий токен для выпуска новой пары.
	KindRefresh Kind = "refresh"
)

var (
	// ErrInvalidToken — подпись не сходится, полезная нагрузка битая
	// или алгоритм подписи не HS256.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired — срок действия токена истёк (подпись при этом валидна).
	ErrTokenExpired = errors.New("token expired")
)

type claims struct {
	UserID   string `json:"uid"`
	Username string `json:"username,omitempty"`
	Kind     Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Token — результат декодирования.
type Token struct {
	UserID    uuid.UUID
	Username  string
	Kind      Kind
	JTI       uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec кодирует и декодирует подписанные токены.
// Экземпляр иммутабелен и безопасен для конкурентного использования.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New создаёт кодек с процессным секретом и TTL по видам токенов.
func New(secret, issuer string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// TTL возвращает срок жизни токена данного вида.
func (c *Codec) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.refreshTTL
	}

	return c.accessTTL
}

// Encode подписывает новый токен и возвращает строку и его jti.
// Username включается только в access-токены.
// Ошибка возможна лишь при сбое подписи — в нормальной работе не случается.
func (c *Codec) Encode(userID uuid.UUID, username string, kind Kind, now time.Time) (string, uuid.UUID, error) {
	const op = "token.Encode"

	jti := uuid.New()

	cl := claims{
		UserID: userID.String(),
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL(kind))),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.issuer,
			Subject:   userID.String(),
		},
	}
	if kind == KindAccess {
		cl.Username = username
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return signed, jti, nil
}

// Decode проверяет подпись и срок действия токена.
// Возвращает ErrInvalidToken при битой подписи/формате и ErrTokenExpired,
// когда подпись валидна, но exp в прошлом.
func (c *Codec) Decode(raw string) (*Token, error) {
	return c.decode(raw, false)
}

// DecodeAllowExpired проверяет подпись, но игнорирует истечение срока.
// Используется logout'ом при allow_expired_logout: identity-claim читается
// и из просроченного токена, пока подпись целая.
func (c *Codec) DecodeAllowExpired(raw string) (*Token, error) {
	return c.decode(raw, true)
}

func (c *Codec) decode(raw string, allowExpired bool) (*Token, error) {
	const op = "token.Decode"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5 * time.Second),
		jwt.WithIssuer(c.issuer),
	}
	if allowExpired {
		// Подпись проверяется всегда; пропускаем только валидацию клеймов.
		opts = []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		}
	}

	parsed, err := jwt.ParseWithClaims(raw, &claims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return c.secret, nil
		},
		opts...,
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if cl.Kind != KindAccess && cl.Kind != KindRefresh {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(cl.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	jti, err := uuid.Parse(cl.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	t := &Token{
		UserID:   uid,
		Username: cl.Username,
		Kind:     cl.Kind,
		JTI:      jti,
	}
	if cl.IssuedAt != nil {
		t.IssuedAt = cl.IssuedAt.Time.UTC()
	}
	if cl.ExpiresAt != nil {
		t.ExpiresAt = cl.ExpiresAt.Time.UTC()
	}

	return t, nil
}
