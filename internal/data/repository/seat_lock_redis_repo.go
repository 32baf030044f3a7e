package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-ticketing/internal/data/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseSeatLockScript marks the lock record released and drops the seat key
// only if it still points at this lock.
//
// KEYS[1] lock record, KEYS[2] seat key, ARGV[1] lock id, ARGV[2] released_at
var releaseSeatLockScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
if redis.call('HGET', KEYS[1], 'released') == '1' then
	return 1
end
redis.call('HSET', KEYS[1], 'released', '1', 'released_at', ARGV[2])
if redis.call('GET', KEYS[2]) == ARGV[1] then
	redis.call('DEL', KEYS[2])
end
return 1
`)

// redisSeatLockRepository keeps one key per (showing, seat) with a TTL equal
// to the lock window, so expiry is enforced by redis itself. Lock records
// outlive the seat key for the retention period so late releases and lookups
// by ID still work.
type redisSeatLockRepository struct {
	client    *redis.Client
	retention time.Duration
	log       *zap.Logger
}

func NewRedisSeatLockRepository(client *redis.Client, retention time.Duration, log *zap.Logger) SeatLockRepository {
	return &redisSeatLockRepository{
		client:    client,
		retention: retention,
		log:       log.With(zap.String("repository", "seat_lock_redis")),
	}
}

func seatKey(showingID uuid.UUID, seatLabel string) string {
	return "seatlock:seat:" + showingID.String() + ":" + seatLabel
}

func lockKey(id uuid.UUID) string {
	return "seatlock:id:" + id.String()
}

func (r *redisSeatLockRepository) Acquire(ctx context.Context, lock *entity.SeatLock, window time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, seatKey(lock.ShowingID, lock.SeatLabel), lock.ID.String(), window).Result()
	if err != nil {
		r.log.Error("Failed to acquire seat lock",
			zap.Error(err),
			zap.String("showing_id", lock.ShowingID.String()),
			zap.String("seat", lock.SeatLabel),
		)
		return false, fmt.Errorf("acquire seat lock %s/%s: %w", lock.ShowingID, lock.SeatLabel, err)
	}
	if !ok {
		return false, nil
	}

	retention := r.retention
	if retention < window {
		retention = window
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, lockKey(lock.ID),
			"seat_label", lock.SeatLabel,
			"showing_id", lock.ShowingID.String(),
			"holder_id", lock.HolderID.String(),
			"created_at", lock.CreatedAt.UTC().Format(time.RFC3339Nano),
			"released", "0",
		)
		pipe.Expire(ctx, lockKey(lock.ID), retention)
		return nil
	})
	if err != nil {
		// without a record the lock cannot be released, so give the seat back
		r.client.Del(ctx, seatKey(lock.ShowingID, lock.SeatLabel))
		r.log.Error("Failed to store seat lock record",
			zap.Error(err),
			zap.String("lock_id", lock.ID.String()),
		)
		return false, fmt.Errorf("store seat lock record %s: %w", lock.ID, err)
	}

	return true, nil
}

func (r *redisSeatLockRepository) FindActive(ctx context.Context, showingID uuid.UUID, seatLabel string, now time.Time, window time.Duration) (*entity.SeatLock, error) {
	raw, err := r.client.Get(ctx, seatKey(showingID, seatLabel)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to read seat key",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
			zap.String("seat", seatLabel),
		)
		return nil, fmt.Errorf("find active seat lock %s/%s: %w", showingID, seatLabel, err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("seat key %s holds %q: %w", seatKey(showingID, seatLabel), raw, err)
	}

	lock, err := r.FindByID(ctx, id)
	if err != nil || lock == nil {
		return nil, err
	}
	if !lock.IsActive(now, window) {
		return nil, nil
	}

	return lock, nil
}

func (r *redisSeatLockRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SeatLock, error) {
	fields, err := r.client.HGetAll(ctx, lockKey(id)).Result()
	if err != nil {
		r.log.Error("Failed to read seat lock record",
			zap.Error(err),
			zap.String("lock_id", id.String()),
		)
		return nil, fmt.Errorf("find seat lock by ID %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	lock, err := decodeSeatLock(id, fields)
	if err != nil {
		return nil, fmt.Errorf("decode seat lock %s: %w", id, err)
	}

	return lock, nil
}

func decodeSeatLock(id uuid.UUID, fields map[string]string) (*entity.SeatLock, error) {
	showingID, err := uuid.Parse(fields["showing_id"])
	if err != nil {
		return nil, fmt.Errorf("showing_id: %w", err)
	}
	holderID, err := uuid.Parse(fields["holder_id"])
	if err != nil {
		return nil, fmt.Errorf("holder_id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}

	lock := &entity.SeatLock{
		AppendOnly: entity.AppendOnly{ID: id, CreatedAt: createdAt},
		SeatLabel:  fields["seat_label"],
		ShowingID:  showingID,
		HolderID:   holderID,
		Released:   fields["released"] == "1",
	}

	if raw := fields["released_at"]; raw != "" {
		releasedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("released_at: %w", err)
		}
		lock.ReleasedAt = &releasedAt
	}

	return lock, nil
}

func (r *redisSeatLockRepository) Release(ctx context.Context, lock *entity.SeatLock, at time.Time) error {
	keys := []string{lockKey(lock.ID), seatKey(lock.ShowingID, lock.SeatLabel)}

	_, err := releaseSeatLockScript.Run(ctx, r.client, keys, lock.ID.String(), at.UTC().Format(time.RFC3339Nano)).Result()
	if err != nil {
		r.log.Error("Failed to release seat lock",
			zap.Error(err),
			zap.String("lock_id", lock.ID.String()),
		)
		return fmt.Errorf("release seat lock %s: %w", lock.ID, err)
	}

	return nil
}

// Compact is a no-op: redis expires seat keys and lock records on its own.
func (r *redisSeatLockRepository) Compact(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

