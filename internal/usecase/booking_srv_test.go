package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) single(account *entity.Account, seat string) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		AccountID:        account.ID.String(),
		ShowingID:        f.showing.ID.String(),
		SeatLabel:        seat,
		PersonCategoryID: f.adult.ID.String(),
		BeneficiaryID:    account.OwnerID.String(),
	}
}

func (f *fixture) batch(account *entity.Account, seats ...string) *request.CreateBatchBookingRequest {
	req := &request.CreateBatchBookingRequest{
		AccountID: account.ID.String(),
		ShowingID: f.showing.ID.String(),
	}
	for i, seat := range seats {
		req.Seats = append(req.Seats, request.BatchSeatRequest{
			SeatLabel:        seat,
			PersonCategoryID: f.adult.ID.String(),
			BeneficiaryID:    f.members[i%len(f.members)].String(),
		})
	}
	return req
}

func (f *fixture) clubBatch(seats ...string) *request.CreateBatchBookingRequest {
	req := f.batch(f.group, seats...)
	club := f.clubID.String()
	req.ClubID = &club
	return req
}

func TestCreateBooking(t *testing.T) {
	f := newFixture()
	svc := f.bookingService()

	resp, err := svc.CreateBooking(context.Background(), uuid.Nil, f.single(f.individual, "c07"))
	require.NoError(t, err)

	assert.Equal(t, "C7", resp.SeatLabel)
	assert.Equal(t, 100.0, resp.Amount)
	assert.Len(t, resp.SerialNo, 8)
	assert.Len(t, resp.BatchRef, 6)
	assert.Equal(t, entity.BookingStatusActive, resp.Status)
	assert.False(t, resp.CashSettled)

	pending := f.store.pendingSettlements()
	require.Len(t, pending, 1)
	assert.Equal(t, entity.SettlementKindDebit, pending[0].Kind)
	assert.Equal(t, 100.0, pending[0].Amount)
	assert.Equal(t, resp.BatchRef, pending[0].Reference)
	assert.Equal(t, 1, f.notifier.count())

	// the balance moves when the settlement worker applies the debit
	assert.Equal(t, 150.0, f.store.accounts[f.individual.ID].Balance)
}

func TestCreateBooking_CashSkipsSettlementAndBalanceCheck(t *testing.T) {
	f := newFixture()
	f.store.accounts[f.individual.ID].Balance = -100
	svc := f.bookingService()

	req := f.single(f.individual, "A1")
	req.CashSettled = true

	resp, err := svc.CreateBooking(context.Background(), uuid.Nil, req)
	require.NoError(t, err)
	assert.True(t, resp.CashSettled)
	assert.Empty(t, f.store.pendingSettlements())
	assert.Zero(t, f.notifier.count())
}

func TestCreateBooking_BalanceFloor(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		wantErr error
	}{
		{name: "lands exactly on the floor", balance: 0},
		{name: "one cent past the floor", balance: -0.01, wantErr: ErrInsufficientFunds},
		{name: "already at the floor", balance: -100, wantErr: ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.store.accounts[f.individual.ID].Balance = tt.balance

			_, err := f.bookingService().CreateBooking(context.Background(), uuid.Nil, f.single(f.individual, "B2"))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.store.activeBookings())
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateBooking_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *fixture, req *request.CreateBookingRequest)
		wantErr error
	}{
		{
			name:    "unknown showing",
			mutate:  func(f *fixture, req *request.CreateBookingRequest) { req.ShowingID = uuid.NewString() },
			wantErr: ErrShowingNotFound,
		},
		{
			name:    "unknown payer",
			mutate:  func(f *fixture, req *request.CreateBookingRequest) { req.AccountID = uuid.NewString() },
			wantErr: ErrPayerNotFound,
		},
		{
			name: "disabled payer",
			mutate: func(f *fixture, req *request.CreateBookingRequest) {
				f.store.accounts[f.individual.ID].Status = entity.AccountStatusDisabled
			},
			wantErr: ErrPayerDisabled,
		},
		{
			name: "pending payer",
			mutate: func(f *fixture, req *request.CreateBookingRequest) {
				f.store.accounts[f.individual.ID].Status = entity.AccountStatusPending
			},
			wantErr: ErrPayerDisabled,
		},
		{
			name:    "closed for sale",
			mutate:  func(f *fixture, req *request.CreateBookingRequest) { f.showing.OnSale = false },
			wantErr: ErrShowingClosed,
		},
		{
			name:    "already started",
			mutate:  func(f *fixture, req *request.CreateBookingRequest) { f.showing.StartsAt = f.now },
			wantErr: ErrShowingInPast,
		},
		{
			name:    "row past the hall",
			mutate:  func(f *fixture, req *request.CreateBookingRequest) { req.SeatLabel = "K1" },
			wantErr: ErrSeatOutOfRange,
		},
		{
			name:    "column past the hall",
			mutate:  func(f *fixture, req *request.CreateBookingRequest) { req.SeatLabel = "A13" },
			wantErr: ErrSeatOutOfRange,
		},
		{
			name:    "malformed seat",
			mutate:  func(f *fixture, req *request.CreateBookingRequest) { req.SeatLabel = "A 1" },
			wantErr: ErrInvalidSeatFormat,
		},
		{
			name:    "unknown person category",
			mutate:  func(f *fixture, req *request.CreateBookingRequest) { req.PersonCategoryID = uuid.NewString() },
			wantErr: ErrPersonCategoryNotFound,
		},
		{
			name:    "malformed account id",
			mutate:  func(f *fixture, req *request.CreateBookingRequest) { req.AccountID = "nope" },
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := f.single(f.individual, "C3")
			tt.mutate(f, req)

			_, err := f.bookingService().CreateBooking(context.Background(), uuid.Nil, req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.store.activeBookings())
			assert.Empty(t, f.store.pendingSettlements())
		})
	}
}

func TestCreateBooking_PendingDebitsCountAgainstFloor(t *testing.T) {
	f := newFixture()
	f.store.accounts[f.individual.ID].Balance = 50
	svc := f.bookingService()
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, uuid.Nil, f.single(f.individual, "A1"))
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, uuid.Nil, f.single(f.individual, "A2"))
	assert.ErrorIs(t, err, ErrInsufficientFunds, "the first debit is still pending")
	assert.Len(t, f.store.activeBookings(), 1)
	assert.Len(t, f.store.pendingSettlements(), 1)
	assert.Equal(t, 50.0, f.store.accounts[f.individual.ID].Balance)

	_, err = f.ledgerService().Settle(ctx, f.store.pendingSettlements()[0])
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, uuid.Nil, f.single(f.individual, "A2"))
	assert.ErrorIs(t, err, ErrInsufficientFunds, "still short once the debit is applied")
}

func TestCreateBooking_StorageGuardsTheFloor(t *testing.T) {
	f := newFixture()
	f.store.accounts[f.individual.ID].Balance = 50
	svc := f.bookingService()
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, uuid.Nil, f.single(f.individual, "A1"))
	require.NoError(t, err)

	f.store.staleAccounts = true
	_, err = svc.CreateBooking(ctx, uuid.Nil, f.single(f.individual, "A2"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Len(t, f.store.activeBookings(), 1)
}

func TestCreateBooking_ConcurrentCheckoutsShareOneBalance(t *testing.T) {
	f := newFixture()
	f.store.accounts[f.individual.ID].Balance = 200
	svc := f.bookingService()

	seats := []string{"B1", "B2", "B3", "B4", "B5", "B6"}
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, len(seats))
	)
	for i, seat := range seats {
		wg.Add(1)
		go func(i int, seat string) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.CreateBooking(context.Background(), uuid.Nil, f.single(f.individual, seat))
		}(i, seat)
	}
	close(start)
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrInsufficientFunds)
	}
	// 200 available down to the -100 floor pays for three tickets at 100.
	assert.Equal(t, 3, ok)
	assert.Len(t, f.store.pendingSettlements(), 3)
}

func TestCreateBooking_ConcurrentSameSeat(t *testing.T) {
	f := newFixture()
	f.store.accounts[f.individual.ID].Balance = 1000
	svc := f.bookingService()

	const callers = 8
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.CreateBooking(context.Background(), uuid.Nil, f.single(f.individual, "E5"))
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSeatAlreadyBooked):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, taken)
	assert.Len(t, f.store.activeBookings(), 1)
}

func TestCreateBooking_SeatAlreadySold(t *testing.T) {
	f := newFixture()
	f.store.accounts[f.individual.ID].Balance = 1000
	svc := f.bookingService()

	_, err := svc.CreateBooking(context.Background(), uuid.Nil, f.single(f.individual, "D4"))
	require.NoError(t, err)

	_, err = svc.CreateBooking(context.Background(), uuid.Nil, f.single(f.individual, "d04"))
	assert.ErrorIs(t, err, ErrSeatAlreadyBooked)
	assert.NotContains(t, err.Error(), "duplicate key", "storage errors stay internal")
}

func TestCreateBooking_SeatLocks(t *testing.T) {
	f := newFixture()
	holder := uuid.New()
	locks := f.seatLockService()

	_, err := locks.Acquire(context.Background(), holder, f.showing.ID.String(), &request.AcquireSeatLockRequest{SeatLabel: "F6"})
	require.NoError(t, err)

	svc := f.bookingService()

	_, err = svc.CreateBooking(context.Background(), uuid.New(), f.single(f.individual, "F6"))
	assert.ErrorIs(t, err, ErrSeatLocked)

	_, err = svc.CreateBooking(context.Background(), holder, f.single(f.individual, "F6"))
	assert.NoError(t, err, "the lock holder may book its own seat")
}

func TestCreateBooking_ExpiredLockIsIgnored(t *testing.T) {
	f := newFixture()
	locks := f.seatLockService()

	_, err := locks.Acquire(context.Background(), uuid.New(), f.showing.ID.String(), &request.AcquireSeatLockRequest{SeatLabel: "F6"})
	require.NoError(t, err)

	f.now = f.now.Add(entity.SeatLockWindow + time.Second)

	_, err = f.bookingService().CreateBooking(context.Background(), uuid.New(), f.single(f.individual, "F6"))
	assert.NoError(t, err)
}

func TestCreateBooking_SerialCollisionRedraws(t *testing.T) {
	f := newFixture()
	f.store.serialCollisions = serialAttempts - 1

	_, err := f.bookingService().CreateBooking(context.Background(), uuid.Nil, f.single(f.individual, "A2"))
	require.NoError(t, err)
	assert.Len(t, f.store.activeBookings(), 1)
}

func TestCreateBooking_SerialCollisionGivesUp(t *testing.T) {
	f := newFixture()
	f.store.serialCollisions = serialAttempts

	_, err := f.bookingService().CreateBooking(context.Background(), uuid.Nil, f.single(f.individual, "A2"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSeatAlreadyBooked)
	assert.Empty(t, f.store.activeBookings())
}

func TestCreateBooking_BatchRefExhausted(t *testing.T) {
	f := newFixture()
	for c := 'A'; c <= 'Z'; c++ {
		f.store.bookings = append(f.store.bookings, &entity.Booking{BatchRef: string(c), Status: entity.BookingStatusCancelled})
	}

	svc := f.bookingService()
	cfg := testConfig()
	cfg.Booking.BatchRefLength = 1
	cfg.Booking.BatchRefMaxAttempts = 10
	svc.batchRefs = NewBookingService(f.repo, cfg, f.notifier, svc.log).(*bookingService).batchRefs

	_, err := svc.CreateBooking(context.Background(), uuid.Nil, f.single(f.individual, "A3"))
	assert.ErrorIs(t, err, ErrBatchGenerationExhausted)
	assert.Empty(t, f.store.activeBookings())
}

func TestCreateBatchBooking(t *testing.T) {
	f := newFixture()
	f.store.accounts[f.group.ID].Balance = 500
	svc := f.bookingService()

	req := f.clubBatch("A1", "A2", "b1")
	req.Seats[1].PersonCategoryID = f.child.ID.String()

	resp, err := svc.CreateBatchBooking(context.Background(), uuid.Nil, req)
	require.NoError(t, err)

	require.Len(t, resp.Bookings, 3)
	// 10% club discount on top of the category discount
	assert.Equal(t, 90.0, resp.Bookings[0].Amount)
	assert.Equal(t, 70.0, resp.Bookings[1].Amount)
	assert.Equal(t, 90.0, resp.Bookings[2].Amount)
	assert.Equal(t, 250.0, resp.Total)
	assert.Equal(t, "B1", resp.Bookings[2].SeatLabel)

	serials := map[string]struct{}{}
	for _, b := range resp.Bookings {
		assert.Equal(t, resp.BatchRef, b.BatchRef)
		serials[b.SerialNo] = struct{}{}
	}
	assert.Len(t, serials, 3)

	pending := f.store.pendingSettlements()
	require.Len(t, pending, 1)
	assert.Equal(t, 250.0, pending[0].Amount)
}

func TestCreateBatchBooking_InsufficientFundsPersistsNothing(t *testing.T) {
	f := newFixture()
	svc := f.bookingService()

	// 3 x 90 against a balance of 50 crosses the -100 floor
	_, err := svc.CreateBatchBooking(context.Background(), uuid.Nil, f.clubBatch("A1", "A2", "A3"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Empty(t, f.store.activeBookings())
	assert.Empty(t, f.store.pendingSettlements())
	assert.Zero(t, f.notifier.count())
}

func TestCreateBatchBooking_OneBadSeatPersistsNothing(t *testing.T) {
	f := newFixture()
	f.store.accounts[f.group.ID].Balance = 500
	svc := f.bookingService()

	_, err := svc.CreateBatchBooking(context.Background(), uuid.Nil, f.clubBatch("A1", "Z99"))
	assert.ErrorIs(t, err, ErrSeatOutOfRange)
	assert.Empty(t, f.store.activeBookings())
}

func TestCreateBatchBooking_SoldSeatPersistsNothing(t *testing.T) {
	f := newFixture()
	f.store.accounts[f.group.ID].Balance = 500
	svc := f.bookingService()

	_, err := svc.CreateBooking(context.Background(), uuid.Nil, f.single(f.individual, "A2"))
	require.NoError(t, err)

	_, err = svc.CreateBatchBooking(context.Background(), uuid.Nil, f.clubBatch("A1", "A2"))
	assert.ErrorIs(t, err, ErrSeatAlreadyBooked)
	assert.Len(t, f.store.activeBookings(), 1)
}

func TestCreateBatchBooking_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     func(f *fixture) *request.CreateBatchBookingRequest
		wantErr error
	}{
		{
			name:    "same seat twice",
			req:     func(f *fixture) *request.CreateBatchBookingRequest { return f.clubBatch("A1", "a01") },
			wantErr: ErrSeatAlreadyBooked,
		},
		{
			name: "beneficiary outside the club",
			req: func(f *fixture) *request.CreateBatchBookingRequest {
				req := f.clubBatch("A1", "A2")
				req.Seats[1].BeneficiaryID = uuid.NewString()
				return req
			},
			wantErr: ErrBeneficiaryNotMember,
		},
		{
			name: "club payer that is not the club's account",
			req: func(f *fixture) *request.CreateBatchBookingRequest {
				req := f.batch(f.individual, "A1")
				club := f.clubID.String()
				req.ClubID = &club
				return req
			},
			wantErr: ErrPayerNotFound,
		},
		{
			name: "too many seats",
			req: func(f *fixture) *request.CreateBatchBookingRequest {
				return f.batch(f.group, "A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10", "A11")
			},
			wantErr: ErrTooManySeats,
		},
		{
			name: "no seats",
			req: func(f *fixture) *request.CreateBatchBookingRequest {
				return f.batch(f.group)
			},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.store.accounts[f.group.ID].Balance = 5000
			f.store.accounts[f.individual.ID].Balance = 5000

			_, err := f.bookingService().CreateBatchBooking(context.Background(), uuid.Nil, tt.req(f))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.store.activeBookings())
		})
	}
}

func TestReassignBeneficiary(t *testing.T) {
	f := newFixture()
	f.store.accounts[f.group.ID].Balance = 500
	svc := f.bookingService()
	ctx := context.Background()

	single, err := svc.CreateBooking(ctx, uuid.Nil, f.single(f.individual, "C1"))
	require.NoError(t, err)
	group, err := svc.CreateBatchBooking(ctx, uuid.Nil, f.clubBatch("C2"))
	require.NoError(t, err)

	friend := uuid.New()
	resp, err := svc.ReassignBeneficiary(ctx, single.ID, &request.ReassignBeneficiaryRequest{BeneficiaryID: friend.String()})
	require.NoError(t, err)
	assert.Equal(t, friend.String(), resp.BeneficiaryID)

	stored, err := svc.GetBooking(ctx, single.ID)
	require.NoError(t, err)
	assert.Equal(t, friend.String(), stored.BeneficiaryID)

	_, err = svc.ReassignBeneficiary(ctx, group.Bookings[0].ID, &request.ReassignBeneficiaryRequest{BeneficiaryID: friend.String()})
	assert.ErrorIs(t, err, ErrReassignNotPermitted)

	_, err = svc.ReassignBeneficiary(ctx, uuid.NewString(), &request.ReassignBeneficiaryRequest{BeneficiaryID: friend.String()})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = svc.CancelBooking(ctx, single.ID)
	require.NoError(t, err)
	_, err = svc.ReassignBeneficiary(ctx, single.ID, &request.ReassignBeneficiaryRequest{BeneficiaryID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrBookingCancelled)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture()
	svc := f.bookingService()
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, uuid.Nil, f.single(f.individual, "G7"))
	require.NoError(t, err)

	resp, err := svc.CancelBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, resp.Status)

	pending := f.store.pendingSettlements()
	require.Len(t, pending, 2)
	assert.Equal(t, entity.SettlementKindCredit, pending[1].Kind)
	assert.Equal(t, 100.0, pending[1].Amount)
	assert.Equal(t, "refund:"+booking.SerialNo, pending[1].Reference)
	assert.Equal(t, 2, f.notifier.count())

	_, err = svc.CancelBooking(ctx, booking.ID)
	assert.ErrorIs(t, err, ErrBookingCancelled)

	_, err = svc.CreateBooking(ctx, uuid.Nil, f.single(f.individual, "G7"))
	assert.NoError(t, err, "a cancelled seat can be sold again")
}

func TestCancelBooking_CashHasNoRefund(t *testing.T) {
	f := newFixture()
	svc := f.bookingService()
	ctx := context.Background()

	req := f.single(f.individual, "G8")
	req.CashSettled = true
	booking, err := svc.CreateBooking(ctx, uuid.Nil, req)
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Empty(t, f.store.pendingSettlements())
}

func TestBatchQueries(t *testing.T) {
	f := newFixture()
	f.store.accounts[f.group.ID].Balance = 500
	f.store.accounts[f.individual.ID].Balance = 500
	svc := f.bookingService()
	ctx := context.Background()

	group, err := svc.CreateBatchBooking(ctx, uuid.Nil, f.clubBatch("H1", "H2"))
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, uuid.Nil, f.single(f.individual, "H3"))
	require.NoError(t, err)

	batch, err := svc.GetBatch(ctx, group.BatchRef)
	require.NoError(t, err)
	assert.Len(t, batch.Bookings, 2)
	assert.Equal(t, 180.0, batch.Total)

	_, err = svc.GetBatch(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	summaries, err := svc.ListShowingBatches(ctx, f.showing.ID.String())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, group.BatchRef, summaries[0].BatchRef)
	assert.Equal(t, 2, summaries[0].Count)

	_, err = svc.ListShowingBatches(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrShowingNotFound)

	page, err := svc.ListAccountBookings(ctx, f.group.ID.String(), &request.PaginatedRequest{Page: 2, PerPage: 1})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, int64(2), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)

	page, err = svc.ListAccountBookings(ctx, uuid.NewString(), &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Zero(t, page.Pagination.Total)
}
