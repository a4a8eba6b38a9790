package models

import (
	"time"

	"github.com/google/uuid"
)

// BlacklistedToken — отметка об отзыве refresh-токена до истечения срока.
// Ссылается на OutstandingToken по JTI; наличие записи делает токен
// навсегда недействительным. Вставка идемпотентна (get-or-create).
type BlacklistedToken struct {
	JTI           uuid.UUID
	BlacklistedAt time.Time
}
