package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/dto/response"
	"cinema-ticketing/pkg/seatlabel"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// serialAttempts bounds redraws after a serial number collision.
const serialAttempts = 3

type BookingService interface {
	CreateBooking(ctx context.Context, holderID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	CreateBatchBooking(ctx context.Context, holderID uuid.UUID, req *request.CreateBatchBookingRequest) (*response.BatchBookingResponse, error)
	GetBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	GetBatch(ctx context.Context, batchRef string) (*response.BatchBookingResponse, error)
	ListShowingBatches(ctx context.Context, showingID string) ([]response.BatchSummaryResponse, error)
	ListAccountBookings(ctx context.Context, accountID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	ReassignBeneficiary(ctx context.Context, bookingID string, req *request.ReassignBeneficiaryRequest) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
}

// SettlementNotifier wakes the settlement worker after new outbox rows commit.
type SettlementNotifier interface {
	Notify()
}

type bookingService struct {
	repo       *repository.Repository
	batchRefs  *utils.BatchRefGenerator
	notifier   SettlementNotifier
	cfg        utils.BookingConfig
	lockWindow time.Duration
	now        func() time.Time
	log        *zap.Logger
}

func NewBookingService(repo *repository.Repository, config *utils.Config, notifier SettlementNotifier, log *zap.Logger) BookingService {
	window := config.SeatLock.Window
	if window <= 0 {
		window = entity.SeatLockWindow
	}

	return &bookingService{
		repo:       repo,
		batchRefs:  utils.NewBatchRefGenerator(config.Booking.BatchRefLength, config.Booking.BatchRefMaxAttempts),
		notifier:   notifier,
		cfg:        config.Booking,
		lockWindow: window,
		now:        time.Now,
		log:        log.With(zap.String("service", "booking")),
	}
}

// checkoutStage tracks how far a checkout got, for logging rejections.
type checkoutStage string

const (
	stageRequested checkoutStage = "requested"
	stageValidated checkoutStage = "validated"
	stagePriced    checkoutStage = "priced"
	stagePersisted checkoutStage = "persisted"
	stageSettled   checkoutStage = "settled"
)

type seatOrder struct {
	label         string
	categoryID    uuid.UUID
	beneficiaryID uuid.UUID
}

type checkout struct {
	accountID   uuid.UUID
	showingID   uuid.UUID
	clubID      *uuid.UUID
	holderID    uuid.UUID
	seats       []seatOrder
	cashSettled bool
	stage       checkoutStage
}

// checkoutData is everything a checkout reads before deciding.
type checkoutData struct {
	showing    *entity.Showing
	hall       *entity.Hall
	account    *entity.Account
	categories map[uuid.UUID]*entity.PersonCategory
	members    map[uuid.UUID]struct{}
	takenRefs  map[string]struct{}
}

type checkoutResult struct {
	bookings []*entity.Booking
	batchRef string
	total    float64
}

func (s *bookingService) CreateBooking(ctx context.Context, holderID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	c, err := newCheckout(holderID, req.AccountID, req.ShowingID, nil, req.CashSettled)
	if err != nil {
		return nil, err
	}

	seat, err := parseSeatOrder(req.SeatLabel, req.PersonCategoryID, req.BeneficiaryID)
	if err != nil {
		return nil, err
	}
	c.seats = []seatOrder{seat}

	result, err := s.run(ctx, c)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(result.bookings[0])
	return &resp, nil
}

func (s *bookingService) CreateBatchBooking(ctx context.Context, holderID uuid.UUID, req *request.CreateBatchBookingRequest) (*response.BatchBookingResponse, error) {
	c, err := newCheckout(holderID, req.AccountID, req.ShowingID, req.ClubID, req.CashSettled)
	if err != nil {
		return nil, err
	}

	if len(req.Seats) == 0 {
		return nil, fmt.Errorf("%w: at least one seat is required", ErrValidation)
	}
	if s.cfg.MaxSeatsPerBatch > 0 && len(req.Seats) > s.cfg.MaxSeatsPerBatch {
		return nil, fmt.Errorf("%w: %d requested, limit is %d", ErrTooManySeats, len(req.Seats), s.cfg.MaxSeatsPerBatch)
	}

	for _, seat := range req.Seats {
		order, err := parseSeatOrder(seat.SeatLabel, seat.PersonCategoryID, seat.BeneficiaryID)
		if err != nil {
			return nil, err
		}
		c.seats = append(c.seats, order)
	}

	result, err := s.run(ctx, c)
	if err != nil {
		return nil, err
	}

	return batchToResponse(result.batchRef, result.bookings), nil
}

func newCheckout(holderID uuid.UUID, accountID, showingID string, clubID *string, cashSettled bool) (*checkout, error) {
	c := &checkout{holderID: holderID, cashSettled: cashSettled, stage: stageRequested}

	var err error
	if c.accountID, err = uuid.Parse(accountID); err != nil {
		return nil, invalidID("account_id", accountID, err)
	}
	if c.showingID, err = uuid.Parse(showingID); err != nil {
		return nil, invalidID("showing_id", showingID, err)
	}
	if clubID != nil {
		id, err := uuid.Parse(*clubID)
		if err != nil {
			return nil, invalidID("club_id", *clubID, err)
		}
		c.clubID = &id
	}

	return c, nil
}

func parseSeatOrder(label, categoryID, beneficiaryID string) (seatOrder, error) {
	order := seatOrder{label: label}

	var err error
	if order.categoryID, err = uuid.Parse(categoryID); err != nil {
		return seatOrder{}, invalidID("person_category_id", categoryID, err)
	}
	if order.beneficiaryID, err = uuid.Parse(beneficiaryID); err != nil {
		return seatOrder{}, invalidID("beneficiary_id", beneficiaryID, err)
	}

	return order, nil
}

// run drives one checkout from request to settlement. Every rejection happens
// before the single write in persist.
func (s *bookingService) run(ctx context.Context, c *checkout) (*checkoutResult, error) {
	result, err := s.process(ctx, c)
	if err != nil {
		s.log.Warn("Checkout rejected",
			zap.String("stage", string(c.stage)),
			zap.String("account_id", c.accountID.String()),
			zap.String("showing_id", c.showingID.String()),
			zap.Int("seats", len(c.seats)),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("Checkout completed",
		zap.String("batch_ref", result.batchRef),
		zap.String("account_id", c.accountID.String()),
		zap.String("showing_id", c.showingID.String()),
		zap.Int("seats", len(result.bookings)),
		zap.Float64("total", result.total),
		zap.Bool("cash_settled", c.cashSettled),
	)
	return result, nil
}

func (s *bookingService) process(ctx context.Context, c *checkout) (*checkoutResult, error) {
	data, err := s.load(ctx, c)
	if err != nil {
		return nil, err
	}

	if err := s.validate(c, data); err != nil {
		return nil, err
	}

	labels, err := s.validateSeats(ctx, c, data)
	if err != nil {
		return nil, err
	}
	c.stage = stageValidated

	amounts, total, err := s.price(c, data)
	if err != nil {
		return nil, err
	}
	if !c.cashSettled && wouldBreachFloor(data.account.Available(), total, entity.BalanceFloor) {
		return nil, fmt.Errorf("%w: balance %.2f with %.2f pending cannot cover %.2f",
			ErrInsufficientFunds, data.account.Balance, data.account.PendingDebits, total)
	}
	c.stage = stagePriced

	batchRef, err := s.batchRefs.Generate(data.takenRefs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBatchGenerationExhausted, err)
	}

	now := s.now()
	bookings := make([]*entity.Booking, len(c.seats))
	for i, seat := range c.seats {
		bookings[i] = &entity.Booking{
			Record: entity.Record{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			SeatLabel:        labels[i],
			ShowingID:        c.showingID,
			AccountID:        c.accountID,
			PersonCategoryID: seat.categoryID,
			BeneficiaryID:    seat.beneficiaryID,
			Amount:           amounts[i],
			BatchRef:         batchRef,
			CashSettled:      c.cashSettled,
			Status:           entity.BookingStatusActive,
		}
	}

	var settlement *entity.Settlement
	if !c.cashSettled && total > 0 {
		settlement = newSettlement(c.accountID, entity.SettlementKindDebit, total, batchRef, now)
	}

	if err := s.persist(ctx, c, bookings, settlement); err != nil {
		return nil, err
	}
	c.stage = stagePersisted

	if settlement != nil {
		s.notifier.Notify()
	}
	c.stage = stageSettled

	return &checkoutResult{bookings: bookings, batchRef: batchRef, total: total}, nil
}

// load fans the independent lookups out. Missing rows come back as nil and
// are judged by validate.
func (s *bookingService) load(ctx context.Context, c *checkout) (*checkoutData, error) {
	data := &checkoutData{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		showing, err := s.repo.Showing.FindByID(gctx, c.showingID)
		if err != nil || showing == nil {
			return err
		}
		hall, err := s.repo.Hall.FindByID(gctx, showing.HallID)
		if err != nil {
			return err
		}
		data.showing, data.hall = showing, hall
		return nil
	})

	g.Go(func() error {
		account, err := s.repo.Account.FindByID(gctx, c.accountID)
		data.account = account
		return err
	})

	g.Go(func() error {
		categories, err := s.repo.PersonCategory.FindByIDs(gctx, distinctCategories(c.seats))
		data.categories = categories
		return err
	})

	g.Go(func() error {
		refs, err := s.repo.Booking.BatchRefs(gctx)
		data.takenRefs = refs
		return err
	})

	if c.clubID != nil {
		clubID := *c.clubID
		g.Go(func() error {
			members, err := s.repo.Club.MemberIDs(gctx, clubID)
			data.members = members
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load checkout data: %w", err)
	}
	return data, nil
}

func distinctCategories(seats []seatOrder) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(seats))
	ids := make([]uuid.UUID, 0, len(seats))
	for _, seat := range seats {
		if _, ok := seen[seat.categoryID]; ok {
			continue
		}
		seen[seat.categoryID] = struct{}{}
		ids = append(ids, seat.categoryID)
	}
	return ids
}

func (s *bookingService) validate(c *checkout, data *checkoutData) error {
	if data.showing == nil {
		return fmt.Errorf("%w: %s", ErrShowingNotFound, c.showingID)
	}
	if data.account == nil {
		return fmt.Errorf("%w: %s", ErrPayerNotFound, c.accountID)
	}
	if data.account.Status != entity.AccountStatusEnabled {
		return fmt.Errorf("%w: account %s is %s", ErrPayerDisabled, c.accountID, data.account.Status)
	}
	if !data.showing.OnSale {
		return fmt.Errorf("%w: %s", ErrShowingClosed, c.showingID)
	}
	if !data.showing.StartsAt.After(s.now()) {
		return fmt.Errorf("%w: %s started at %s", ErrShowingInPast, c.showingID, data.showing.StartsAt.Format(time.RFC3339))
	}
	if data.hall == nil {
		return fmt.Errorf("%w: showing %s points at hall %s", ErrHallNotFound, c.showingID, data.showing.HallID)
	}

	if c.clubID != nil {
		if !data.account.IsGroup() || data.account.OwnerID != *c.clubID {
			return fmt.Errorf("%w: account %s does not belong to club %s", ErrPayerNotFound, c.accountID, *c.clubID)
		}
		for _, seat := range c.seats {
			if _, ok := data.members[seat.beneficiaryID]; !ok {
				return fmt.Errorf("%w: %s in club %s", ErrBeneficiaryNotMember, seat.beneficiaryID, *c.clubID)
			}
		}
	}

	return nil
}

// validateSeats returns the canonical label of every seat. It rejects seats
// outside the hall, repeated seats and seats under someone else's lock.
func (s *bookingService) validateSeats(ctx context.Context, c *checkout, data *checkoutData) ([]string, error) {
	labels := make([]string, len(c.seats))
	seen := make(map[string]struct{}, len(c.seats))
	now := s.now()

	for i, seat := range c.seats {
		parsed, err := seatlabel.Validate(seat.label, data.hall.Rows, data.hall.SeatsPerRow)
		if err != nil {
			return nil, err
		}

		label := parsed.Label()
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("%w: %s requested twice", ErrSeatAlreadyBooked, label)
		}
		seen[label] = struct{}{}
		labels[i] = label

		lock, err := s.repo.SeatLock.FindActive(ctx, c.showingID, label, now, s.lockWindow)
		if err != nil {
			return nil, fmt.Errorf("check seat lock %s: %w", label, err)
		}
		if lock != nil && lock.HolderID != c.holderID {
			return nil, fmt.Errorf("%w: %s until %s", ErrSeatLocked, label, lock.ExpiresAt(s.lockWindow).Format(time.RFC3339))
		}
	}

	return labels, nil
}

func (s *bookingService) price(c *checkout, data *checkoutData) ([]float64, float64, error) {
	accountDiscount := data.account.EffectiveDiscount()
	amounts := make([]float64, len(c.seats))

	for i, seat := range c.seats {
		category, ok := data.categories[seat.categoryID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrPersonCategoryNotFound, seat.categoryID)
		}
		amounts[i] = Price(data.showing.TicketPrice, category.DiscountPct, accountDiscount)
	}

	return amounts, sumAmounts(amounts), nil
}

// persist writes the batch and its settlement in one transaction, redrawing
// serial numbers if one collides.
func (s *bookingService) persist(ctx context.Context, c *checkout, bookings []*entity.Booking, settlement *entity.Settlement) error {
	var err error
	for attempt := 0; attempt < serialAttempts; attempt++ {
		for _, b := range bookings {
			b.SerialNo = utils.GenerateSerialNo()
		}

		err = s.repo.Booking.CreateBatch(ctx, bookings, settlement)
		if !repository.IsConstraint(err, repository.ConstraintSerialNo) {
			break
		}
		s.log.Warn("Serial number collision, redrawing", zap.Int("attempt", attempt+1))
	}

	switch {
	case err == nil:
		return nil
	case repository.IsConstraint(err, repository.ConstraintSerialNo):
		return fmt.Errorf("persist bookings: serial numbers kept colliding: %w", err)
	case errors.Is(err, repository.ErrBalanceFloor):
		return fmt.Errorf("%w: account %s cannot cover the batch", ErrInsufficientFunds, c.accountID)
	case errors.Is(err, repository.ErrUniqueViolation):
		return fmt.Errorf("%w: a requested seat was sold for showing %s", ErrSeatAlreadyBooked, c.showingID)
	default:
		return fmt.Errorf("persist bookings: %w", err)
	}
}

func newSettlement(accountID uuid.UUID, kind entity.SettlementKind, amount float64, reference string, now time.Time) *entity.Settlement {
	return &entity.Settlement{
		AppendOnly: entity.AppendOnly{ID: uuid.New(), CreatedAt: now},
		AccountID:  accountID,
		Kind:       kind,
		Amount:     amount,
		Reference:  reference,
		Status:     entity.SettlementStatusPending,
	}
}

func batchToResponse(batchRef string, bookings []*entity.Booking) *response.BatchBookingResponse {
	resp := &response.BatchBookingResponse{
		BatchRef: batchRef,
		Bookings: make([]response.BookingResponse, len(bookings)),
	}

	amounts := make([]float64, 0, len(bookings))
	for i, b := range bookings {
		resp.Bookings[i] = response.BookingToResponse(b)
		resp.CashSettled = b.CashSettled
		if b.Status == entity.BookingStatusActive {
			amounts = append(amounts, b.Amount)
		}
	}
	resp.Total = sumAmounts(amounts)

	return resp
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) findBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, invalidID("booking_id", bookingID, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}

	return booking, nil
}

func (s *bookingService) GetBatch(ctx context.Context, batchRef string) (*response.BatchBookingResponse, error) {
	bookings, err := s.repo.Booking.FindByBatchRef(ctx, batchRef)
	if err != nil {
		return nil, fmt.Errorf("get batch %s: %w", batchRef, err)
	}
	if len(bookings) == 0 {
		return nil, fmt.Errorf("%w: no bookings in batch %s", ErrBookingNotFound, batchRef)
	}

	return batchToResponse(batchRef, bookings), nil
}

func (s *bookingService) ListShowingBatches(ctx context.Context, showingID string) ([]response.BatchSummaryResponse, error) {
	id, err := uuid.Parse(showingID)
	if err != nil {
		return nil, invalidID("showing_id", showingID, err)
	}

	showing, err := s.repo.Showing.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list batches of showing %s: %w", showingID, err)
	}
	if showing == nil {
		return nil, fmt.Errorf("%w: %s", ErrShowingNotFound, showingID)
	}

	summaries, err := s.repo.Booking.SummarizeBatches(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list batches of showing %s: %w", showingID, err)
	}

	resp := make([]response.BatchSummaryResponse, len(summaries))
	for i, summary := range summaries {
		resp[i] = response.BatchSummaryToResponse(summary)
	}
	return resp, nil
}

func (s *bookingService) ListAccountBookings(ctx context.Context, accountID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, invalidID("account_id", accountID, err)
	}

	bookings, err := s.repo.Booking.FindByAccountID(ctx, id, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list bookings of account %s: %w", accountID, err)
	}

	total, err := s.repo.Booking.CountByAccountID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count bookings of account %s: %w", accountID, err)
	}

	items := make([]response.BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = response.BookingToResponse(b)
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

func (s *bookingService) ReassignBeneficiary(ctx context.Context, bookingID string, req *request.ReassignBeneficiaryRequest) (*response.BookingResponse, error) {
	beneficiaryID, err := uuid.Parse(req.BeneficiaryID)
	if err != nil {
		return nil, invalidID("beneficiary_id", req.BeneficiaryID, err)
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entity.BookingStatusActive {
		return nil, fmt.Errorf("%w: %s", ErrBookingCancelled, bookingID)
	}

	account, err := s.repo.Account.FindByID(ctx, booking.AccountID)
	if err != nil {
		return nil, fmt.Errorf("reassign booking %s: %w", bookingID, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", ErrPayerNotFound, booking.AccountID)
	}
	if account.IsGroup() {
		return nil, fmt.Errorf("%w: booking %s", ErrReassignNotPermitted, bookingID)
	}

	if err := s.repo.Booking.UpdateBeneficiary(ctx, booking.ID, beneficiaryID); err != nil {
		return nil, fmt.Errorf("reassign booking %s: %w", bookingID, err)
	}

	s.log.Info("Beneficiary reassigned",
		zap.String("booking_id", bookingID),
		zap.String("from", booking.BeneficiaryID.String()),
		zap.String("to", beneficiaryID.String()),
	)

	booking.BeneficiaryID = beneficiaryID
	booking.Touch(s.now())
	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entity.BookingStatusActive {
		return nil, fmt.Errorf("%w: %s", ErrBookingCancelled, bookingID)
	}

	var refund *entity.Settlement
	if !booking.CashSettled && booking.Amount > 0 {
		refund = newSettlement(booking.AccountID, entity.SettlementKindCredit, booking.Amount, "refund:"+booking.SerialNo, s.now())
	}

	if err := s.repo.Booking.Cancel(ctx, booking.ID, refund); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, fmt.Errorf("%w: %s", ErrBookingCancelled, bookingID)
		}
		return nil, fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}

	if refund != nil {
		s.notifier.Notify()
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("serial_no", booking.SerialNo),
		zap.Bool("refund_queued", refund != nil),
	)

	booking.Status = entity.BookingStatusCancelled
	booking.Touch(s.now())
	resp := response.BookingToResponse(booking)
	return &resp, nil
}
