package usecase

import (
	"context"
	"fmt"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService owns every balance mutation. Debit trusts its caller: the
// floor is checked by the booking coordinator and backed by the accounts
// check constraint.
type LedgerService interface {
	GetAccount(ctx context.Context, accountID string) (*response.AccountResponse, error)
	TopUp(ctx context.Context, accountID string, req *request.TopUpRequest) (*response.AccountResponse, error)
	Credit(ctx context.Context, accountID uuid.UUID, amount float64) (float64, error)
	Debit(ctx context.Context, accountID uuid.UUID, amount float64) (float64, error)
	// Settle applies one pending outbox row. It reports false when another
	// worker already applied it.
	Settle(ctx context.Context, settlement *entity.Settlement) (bool, error)
}

type ledgerService struct {
	repo *repository.Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewLedgerService(repo *repository.Repository, log *zap.Logger) LedgerService {
	return &ledgerService{
		repo: repo,
		now:  time.Now,
		log:  log.With(zap.String("service", "ledger")),
	}
}

func (s *ledgerService) GetAccount(ctx context.Context, accountID string) (*response.AccountResponse, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, invalidID("account_id", accountID, err)
	}

	account, err := s.repo.Account.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", accountID, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", ErrPayerNotFound, accountID)
	}

	resp := response.AccountToResponse(account)
	return &resp, nil
}

func (s *ledgerService) TopUp(ctx context.Context, accountID string, req *request.TopUpRequest) (*response.AccountResponse, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, invalidID("account_id", accountID, err)
	}

	account, err := s.repo.Account.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("top up account %s: %w", accountID, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", ErrPayerNotFound, accountID)
	}

	balance, err := s.Credit(ctx, id, req.Amount)
	if err != nil {
		return nil, err
	}

	account.Balance = balance
	resp := response.AccountToResponse(account)
	return &resp, nil
}

func (s *ledgerService) Credit(ctx context.Context, accountID uuid.UUID, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credit amount must be positive, got %.2f", ErrValidation, amount)
	}
	return s.adjust(ctx, accountID, amount)
}

func (s *ledgerService) Debit(ctx context.Context, accountID uuid.UUID, amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: debit amount must not be negative, got %.2f", ErrValidation, amount)
	}
	return s.adjust(ctx, accountID, -amount)
}

func (s *ledgerService) adjust(ctx context.Context, accountID uuid.UUID, delta float64) (float64, error) {
	balance, err := s.repo.Account.AdjustBalance(ctx, accountID, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust balance of %s by %.2f: %w", accountID, delta, err)
	}

	s.log.Info("Balance adjusted",
		zap.String("account_id", accountID.String()),
		zap.Float64("delta", delta),
		zap.Float64("balance", balance),
	)
	return balance, nil
}

func (s *ledgerService) Settle(ctx context.Context, settlement *entity.Settlement) (bool, error) {
	applied, err := s.repo.Settlement.Apply(ctx, settlement, s.now())
	if err != nil {
		return false, fmt.Errorf("settle %s %s: %w", settlement.Kind, settlement.ID, err)
	}

	if applied {
		s.log.Info("Settlement applied",
			zap.String("settlement_id", settlement.ID.String()),
			zap.String("account_id", settlement.AccountID.String()),
			zap.String("kind", string(settlement.Kind)),
			zap.Float64("amount", settlement.Amount),
			zap.String("reference", settlement.Reference),
		)
	}
	return applied, nil
}
