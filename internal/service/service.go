// service содержит бизнес-логику auth-бэкенда: регистрацию и аутентификацию
// пользователей, выпуск/проверку/отзыв токенов и работу с хранилищем через
// интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются наверх и маппятся HTTP-слоем в единый конверт
//     ответа (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/jstarsky/app-marvel-backend/internal/cache"
	"github.com/jstarsky/app-marvel-backend/internal/config"
	"github.com/jstarsky/app-marvel-backend/internal/storage"
	"github.com/jstarsky/app-marvel-backend/internal/token"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// Намеренно неразличимо (защита от перечисления пользователей). HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен некорректен по формату/подписи или его jti
	// не числится в леджере. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked — refresh-токен отозван (logout/ротация) и недействителен
	// независимо от срока. HTTP 401.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrMalformedToken — токен подписан корректно, но в клеймах нет
	// identity-информации. Ошибка протокола вызова. HTTP 400.
	ErrMalformedToken = errors.New("token missing user information")

	// ErrUsernameTaken — имя пользователя уже занято. HTTP 400 (в составе
	// registration_failed с пофилдовой детализацией).
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUserNotFound — пользователь из структурно валидного токена не найден.
	// На logout это 400, а не 404/500: сам токен был корректен.
	ErrUserNotFound = errors.New("user not found")

	// ErrWrongPassword — старый пароль при смене не совпал с хэшем.
	// Пользователь уже идентифицирован, поэтому ошибка конкретная. HTTP 400.
	ErrWrongPassword = errors.New("old password is incorrect")

	// ErrTokensUnavailable — леджер токенов не доступен (таблицы не созданы).
	// Операционная проблема, HTTP 500; по этому сообщению операторы ищут
	// непримененные миграции в логах.
	ErrTokensUnavailable = errors.New("tokens unavailable: token storage not provisioned")

	// ErrValidation — вход не прошёл политику валидации; детали в
	// *ValidationError. HTTP 400.
	ErrValidation = errors.New("validation failed")
)

// ValidationError несёт пофилдовую детализацию ошибок валидации.
// Совместим с errors.Is(err, ErrValidation).
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string { return ErrValidation.Error() }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) add(field, code string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], code)
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

// Service описывает бизнес-логику auth-бэкенда.
type Service struct {
	storage    storage.Storage
	cfg        config.AuthConfig
	codec      *token.Codec
	validators []passwordValidator
	rcache     cache.RevocationCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig, pwCfg config.PasswordConfig) *Service {
	return &Service{
		storage:    storage,
		cfg:        cfg,
		codec:      token.New(cfg.JWTSecret, cfg.Issuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		validators: newPasswordPolicy(pwCfg),
	}
}

// SetRevocationCache устанавливает кэш отозванных токенов (опционально).
func (s *Service) SetRevocationCache(c cache.RevocationCache) {
	s.rcache = c
}
