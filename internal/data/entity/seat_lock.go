package entity

import (
	"time"

	"github.com/google/uuid"
)

// SeatLockWindow is how long an unreleased lock stays active.
const SeatLockWindow = 5 * time.Minute

type SeatLock struct {
	AppendOnly
	SeatLabel  string     `db:"seat_label"`
	ShowingID  uuid.UUID  `db:"showing_id"`
	HolderID   uuid.UUID  `db:"holder_id"`
	Released   bool       `db:"released"`
	ReleasedAt *time.Time `db:"released_at"`
}

// IsActive reports whether the lock still guards its seat at now.
func (l *SeatLock) IsActive(now time.Time, window time.Duration) bool {
	return !l.Released && !l.CreatedAt.Before(now.Add(-window))
}

func (l *SeatLock) ExpiresAt(window time.Duration) time.Time {
	return l.CreatedAt.Add(window)
}
