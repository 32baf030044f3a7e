package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/pkg/utils"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const applyTries = 3

// Settler applies one settlement to its account balance.
type Settler interface {
	Settle(ctx context.Context, settlement *entity.Settlement) (bool, error)
}

// SettlementWorker drains the settlements outbox written next to bookings.
// Rows that keep failing are parked as failed for reconciliation.
type SettlementWorker struct {
	store   repository.SettlementRepository
	settler Settler
	config  utils.SettlementConfig
	log     *zap.Logger

	wake    chan struct{}
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewSettlementWorker(store repository.SettlementRepository, settler Settler, config utils.SettlementConfig, log *zap.Logger) *SettlementWorker {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}

	return &SettlementWorker{
		store:   store,
		settler: settler,
		config:  config,
		log:     log.With(zap.String("worker", "settlement")),
		wake:    make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
}

// Notify asks for an early poll. It never blocks.
func (w *SettlementWorker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *SettlementWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("settlement worker already running")
	}
	w.running = true

	w.log.Info("Starting settlement worker",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

func (w *SettlementWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Settlement worker stopped")
}

func (w *SettlementWorker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
		case <-w.wake:
		}
		w.processPending(ctx)
	}
}

// processPending handles one page of pending rows and returns how many were
// applied.
func (w *SettlementWorker) processPending(ctx context.Context) int {
	pending, err := w.store.FindPending(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error("Failed to load pending settlements", zap.Error(err))
		return 0
	}

	applied := 0
	for _, s := range pending {
		ok, err := w.apply(ctx, s)
		if err != nil {
			w.recordFailure(ctx, s, err)
			continue
		}
		if ok {
			applied++
		}
	}
	return applied
}

func (w *SettlementWorker) apply(ctx context.Context, s *entity.Settlement) (bool, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = time.Second

	return backoff.Retry(ctx, func() (bool, error) {
		ok, err := w.settler.Settle(ctx, s)
		if err != nil && isPermanent(err) {
			return false, backoff.Permanent(err)
		}
		return ok, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(applyTries),
	)
}

// isPermanent reports failures that retrying cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, repository.ErrCheckViolation) ||
		errors.Is(err, repository.ErrForeignKeyViolation) ||
		errors.Is(err, repository.ErrNoRowsAffected)
}

func (w *SettlementWorker) recordFailure(ctx context.Context, s *entity.Settlement, cause error) {
	permanent := isPermanent(cause)
	status, err := w.store.RecordFailure(ctx, s.ID, cause.Error(), w.config.MaxAttempts, permanent)
	if err != nil {
		w.log.Error("Failed to record settlement failure",
			zap.String("settlement_id", s.ID.String()),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}

	fields := []zap.Field{
		zap.String("settlement_id", s.ID.String()),
		zap.String("account_id", s.AccountID.String()),
		zap.String("kind", string(s.Kind)),
		zap.Float64("amount", s.Amount),
		zap.String("reference", s.Reference),
		zap.Bool("permanent", permanent),
		zap.Error(cause),
	}
	if status == entity.SettlementStatusFailed {
		w.log.Error("Settlement parked for reconciliation", fields...)
		return
	}
	w.log.Warn("Settlement failed, will retry", fields...)
}
