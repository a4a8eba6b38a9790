package models

import "time"

// TokenPair — пара токенов, выдаваемая при аутентификации/регистрации.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API; не хранится
//     на сервере и не отзывается индивидуально;
//   - RefreshToken — долгоживущий JWT для выпуска новой пары; его jti
//     учитывается в леджере и может быть отозван;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
