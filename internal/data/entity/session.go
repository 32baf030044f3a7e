package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated caller. Sessions are issued outside this
// service; UserID doubles as the seat lock holder.
type Session struct {
	AppendOnly
	UserID    uuid.UUID  `db:"user_id"`
	Token     uuid.UUID  `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
