package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Compactor removes aged seat locks.
type Compactor interface {
	Compact(ctx context.Context) (int64, error)
}

// SeatLockJanitor keeps the postgres seat_locks table from growing without
// bound. Redis locks expire on their own and need no janitor.
type SeatLockJanitor struct {
	compactor Compactor
	interval  time.Duration
	log       *zap.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewSeatLockJanitor(compactor Compactor, interval time.Duration, log *zap.Logger) *SeatLockJanitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &SeatLockJanitor{
		compactor: compactor,
		interval:  interval,
		log:       log.With(zap.String("worker", "seat_lock_janitor")),
		stopCh:    make(chan struct{}),
	}
}

func (j *SeatLockJanitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return errors.New("seat lock janitor already running")
	}
	j.running = true

	j.wg.Add(1)
	go j.loop(ctx)
	return nil
}

func (j *SeatLockJanitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
}

func (j *SeatLockJanitor) loop(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *SeatLockJanitor) sweep(ctx context.Context) {
	removed, err := j.compactor.Compact(ctx)
	if err != nil {
		j.log.Error("Seat lock compaction failed", zap.Error(err))
		return
	}
	if removed > 0 {
		j.log.Info("Seat locks compacted", zap.Int64("removed", removed))
	}
}
