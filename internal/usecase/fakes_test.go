package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// store is an in-memory stand-in for the database behind every repository.
// It enforces the same uniqueness and balance rules as schema.sql.
type store struct {
	mu          sync.Mutex
	films       map[uuid.UUID]*entity.Film
	halls       map[uuid.UUID]*entity.Hall
	showings    map[uuid.UUID]*entity.Showing
	categories  map[uuid.UUID]*entity.PersonCategory
	accounts    map[uuid.UUID]*entity.Account
	clubs       map[uuid.UUID]map[uuid.UUID]struct{}
	bookings    []*entity.Booking
	locks       map[uuid.UUID]*entity.SeatLock
	settlements []*entity.Settlement

	// serialCollisions makes the next CreateBatch calls fail on the serial index.
	serialCollisions int
	// staleAccounts hides pending debits from account reads, as a read taken
	// before a concurrent checkout committed would.
	staleAccounts bool
}

func newStore() *store {
	return &store{
		films:      map[uuid.UUID]*entity.Film{},
		halls:      map[uuid.UUID]*entity.Hall{},
		showings:   map[uuid.UUID]*entity.Showing{},
		categories: map[uuid.UUID]*entity.PersonCategory{},
		accounts:   map[uuid.UUID]*entity.Account{},
		clubs:      map[uuid.UUID]map[uuid.UUID]struct{}{},
		locks:      map[uuid.UUID]*entity.SeatLock{},
	}
}

func (s *store) repository() *repository.Repository {
	return &repository.Repository{
		Film:           filmRepo{s},
		Hall:           hallRepo{s},
		Showing:        showingRepo{s},
		PersonCategory: categoryRepo{s},
		Account:        accountRepo{s},
		Club:           clubRepo{s},
		Booking:        bookingRepo{s},
		SeatLock:       seatLockRepo{s},
		Settlement:     settlementRepo{s},
	}
}

func (s *store) activeBookings() []*entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.Booking
	for _, b := range s.bookings {
		if b.Status == entity.BookingStatusActive {
			out = append(out, b)
		}
	}
	return out
}

func (s *store) pendingSettlements() []*entity.Settlement {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.Settlement
	for _, st := range s.settlements {
		if st.Status == entity.SettlementStatusPending {
			out = append(out, st)
		}
	}
	return out
}

func uniqueViolation(constraint string) error {
	return &repository.ConstraintError{
		Kind:       repository.ErrUniqueViolation,
		Constraint: constraint,
		Err:        errors.New("duplicate key value violates unique constraint"),
	}
}

type filmRepo struct{ s *store }

func (r filmRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.films[id], nil
}

type hallRepo struct{ s *store }

func (r hallRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Hall, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.halls[id], nil
}

type showingRepo struct{ s *store }

func (r showingRepo) Create(_ context.Context, showing *entity.Showing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *showing
	r.s.showings[showing.ID] = &copied
	return nil
}

func (r showingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Showing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	showing, ok := r.s.showings[id]
	if !ok {
		return nil, nil
	}
	copied := *showing
	return &copied, nil
}

func (r showingRepo) FindSlotsByHallID(_ context.Context, hallID uuid.UUID) ([]entity.ShowingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var slots []entity.ShowingSlot
	for _, showing := range r.s.showings {
		if showing.HallID != hallID {
			continue
		}
		slots = append(slots, entity.ShowingSlot{
			ShowingID:    showing.ID,
			StartsAt:     showing.StartsAt,
			FilmDuration: r.s.films[showing.FilmID].Duration(),
		})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartsAt.Before(slots[j].StartsAt) })
	return slots, nil
}

func (r showingRepo) Update(_ context.Context, showing *entity.Showing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.showings[showing.ID]; !ok {
		return repository.ErrNoRowsAffected
	}
	copied := *showing
	r.s.showings[showing.ID] = &copied
	return nil
}

type categoryRepo struct{ s *store }

func (r categoryRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.PersonCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make(map[uuid.UUID]*entity.PersonCategory, len(ids))
	for _, id := range ids {
		if c, ok := r.s.categories[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type accountRepo struct{ s *store }

func (r accountRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *account
	if !r.s.staleAccounts {
		copied.PendingDebits = r.s.pendingDebitsLocked(id)
	}
	return &copied, nil
}

func (s *store) pendingDebitsLocked(accountID uuid.UUID) float64 {
	var sum float64
	for _, st := range s.settlements {
		if st.AccountID == accountID && st.Kind == entity.SettlementKindDebit && st.Status == entity.SettlementStatusPending {
			sum += st.Amount
		}
	}
	return sum
}

func (r accountRepo) AdjustBalance(_ context.Context, id uuid.UUID, delta float64) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.adjustLocked(id, delta)
}

func (s *store) adjustLocked(id uuid.UUID, delta float64) (float64, error) {
	account, ok := s.accounts[id]
	if !ok {
		return 0, repository.ErrNoRowsAffected
	}
	if account.Balance+delta < entity.BalanceFloor {
		return 0, &repository.ConstraintError{
			Kind:       repository.ErrCheckViolation,
			Constraint: repository.ConstraintBalanceFloor,
			Err:        errors.New("new row violates check constraint"),
		}
	}
	account.Balance += delta
	return account.Balance, nil
}

type clubRepo struct{ s *store }

func (r clubRepo) MemberIDs(_ context.Context, clubID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := map[uuid.UUID]struct{}{}
	for id := range r.s.clubs[clubID] {
		out[id] = struct{}{}
	}
	return out, nil
}

type bookingRepo struct{ s *store }

func (r bookingRepo) CreateBatch(_ context.Context, bookings []*entity.Booking, settlement *entity.Settlement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.serialCollisions > 0 {
		r.s.serialCollisions--
		return uniqueViolation(repository.ConstraintSerialNo)
	}

	if settlement != nil && settlement.Kind == entity.SettlementKindDebit {
		account, ok := r.s.accounts[settlement.AccountID]
		if !ok {
			return repository.ErrNoRowsAffected
		}
		if account.Balance-r.s.pendingDebitsLocked(account.ID)-settlement.Amount < entity.BalanceFloor {
			return repository.ErrBalanceFloor
		}
	}

	for _, b := range bookings {
		for _, existing := range r.s.bookings {
			if existing.Status == entity.BookingStatusActive && existing.ShowingID == b.ShowingID && existing.SeatLabel == b.SeatLabel {
				return uniqueViolation(repository.ConstraintActiveSeat)
			}
		}
	}

	for _, b := range bookings {
		copied := *b
		r.s.bookings = append(r.s.bookings, &copied)
	}
	if settlement != nil {
		copied := *settlement
		r.s.settlements = append(r.s.settlements, &copied)
	}
	return nil
}

func (r bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.ID == id {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (r bookingRepo) FindByBatchRef(_ context.Context, batchRef string) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Booking
	for _, b := range r.s.bookings {
		if b.BatchRef == batchRef {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r bookingRepo) FindByAccountID(_ context.Context, accountID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var all []*entity.Booking
	for _, b := range r.s.bookings {
		if b.AccountID == accountID {
			copied := *b
			all = append(all, &copied)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r bookingRepo) CountByAccountID(_ context.Context, accountID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, b := range r.s.bookings {
		if b.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (r bookingRepo) SummarizeBatches(_ context.Context, showingID uuid.UUID) ([]*entity.BatchSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byRef := map[string]*entity.BatchSummary{}
	var out []*entity.BatchSummary
	for _, b := range r.s.bookings {
		if b.ShowingID != showingID || b.Status != entity.BookingStatusActive {
			continue
		}
		summary, ok := byRef[b.BatchRef]
		if !ok {
			summary = &entity.BatchSummary{BatchRef: b.BatchRef, AccountID: b.AccountID, FirstCreatedAt: b.CreatedAt}
			byRef[b.BatchRef] = summary
			out = append(out, summary)
		}
		summary.Count++
		summary.Total += b.Amount
	}
	return out, nil
}

func (r bookingRepo) BatchRefs(_ context.Context) (map[string]struct{}, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := map[string]struct{}{}
	for _, b := range r.s.bookings {
		out[b.BatchRef] = struct{}{}
	}
	return out, nil
}

func (r bookingRepo) UpdateBeneficiary(_ context.Context, id, beneficiaryID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.ID == id {
			b.BeneficiaryID = beneficiaryID
			return nil
		}
	}
	return repository.ErrNoRowsAffected
}

func (r bookingRepo) Cancel(_ context.Context, id uuid.UUID, refund *entity.Settlement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.ID == id && b.Status == entity.BookingStatusActive {
			b.Status = entity.BookingStatusCancelled
			if refund != nil {
				copied := *refund
				r.s.settlements = append(r.s.settlements, &copied)
			}
			return nil
		}
	}
	return repository.ErrNoRowsAffected
}

type seatLockRepo struct{ s *store }

func (r seatLockRepo) Acquire(_ context.Context, lock *entity.SeatLock, window time.Duration) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.findActiveLocked(lock.ShowingID, lock.SeatLabel, lock.CreatedAt, window) != nil {
		return false, nil
	}
	copied := *lock
	r.s.locks[lock.ID] = &copied
	return true, nil
}

func (s *store) findActiveLocked(showingID uuid.UUID, seatLabel string, now time.Time, window time.Duration) *entity.SeatLock {
	for _, l := range s.locks {
		if l.ShowingID == showingID && l.SeatLabel == seatLabel && l.IsActive(now, window) {
			return l
		}
	}
	return nil
}

func (r seatLockRepo) FindActive(_ context.Context, showingID uuid.UUID, seatLabel string, now time.Time, window time.Duration) (*entity.SeatLock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lock := r.s.findActiveLocked(showingID, seatLabel, now, window)
	if lock == nil {
		return nil, nil
	}
	copied := *lock
	return &copied, nil
}

func (r seatLockRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.SeatLock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lock, ok := r.s.locks[id]
	if !ok {
		return nil, nil
	}
	copied := *lock
	return &copied, nil
}

func (r seatLockRepo) Release(_ context.Context, lock *entity.SeatLock, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if stored, ok := r.s.locks[lock.ID]; ok && !stored.Released {
		stored.Released = true
		stored.ReleasedAt = &at
	}
	return nil
}

func (r seatLockRepo) Compact(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, l := range r.s.locks {
		if l.CreatedAt.Before(cutoff) {
			delete(r.s.locks, id)
			n++
		}
	}
	return n, nil
}

type settlementRepo struct{ s *store }

func (r settlementRepo) FindPending(_ context.Context, limit int) ([]*entity.Settlement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Settlement
	for _, st := range r.s.settlements {
		if st.Status == entity.SettlementStatusPending && len(out) < limit {
			copied := *st
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r settlementRepo) Apply(_ context.Context, settlement *entity.Settlement, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, st := range r.s.settlements {
		if st.ID != settlement.ID {
			continue
		}
		if st.Status != entity.SettlementStatusPending {
			return false, nil
		}
		if _, err := r.s.adjustLocked(st.AccountID, st.SignedAmount()); err != nil {
			return false, err
		}
		st.Status = entity.SettlementStatusSettled
		st.SettledAt = &at
		return true, nil
	}
	return false, nil
}

func (r settlementRepo) RecordFailure(_ context.Context, id uuid.UUID, cause string, maxAttempts int, permanent bool) (entity.SettlementStatus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, st := range r.s.settlements {
		if st.ID != id {
			continue
		}
		st.Attempts++
		st.LastError = &cause
		if permanent || st.Attempts >= maxAttempts {
			st.Status = entity.SettlementStatusFailed
		}
		return st.Status, nil
	}
	return "", repository.ErrNoRowsAffected
}

type countingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNotifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

func testConfig() *utils.Config {
	return &utils.Config{
		SeatLock: utils.SeatLockConfig{
			Backend:   utils.SeatLockBackendPostgres,
			Window:    entity.SeatLockWindow,
			Retention: time.Hour,
		},
		Booking: utils.BookingConfig{
			BatchRefLength:      6,
			BatchRefMaxAttempts: 64,
			MaxSeatsPerBatch:    10,
		},
	}
}

// fixture is a small cinema: one 10x12 hall, one film, one showing tomorrow
// and a handful of payers.
type fixture struct {
	store    *store
	repo     *repository.Repository
	notifier *countingNotifier
	now      time.Time

	hall       *entity.Hall
	film       *entity.Film
	showing    *entity.Showing
	adult      *entity.PersonCategory
	child      *entity.PersonCategory
	individual *entity.Account
	group      *entity.Account
	clubID     uuid.UUID
	members    []uuid.UUID
}

func newFixture() *fixture {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := newStore()

	f := &fixture{store: s, notifier: &countingNotifier{}, now: now}

	f.hall = &entity.Hall{Name: "Hall 1", Rows: 10, SeatsPerRow: 12}
	f.hall.ID = uuid.New()
	s.halls[f.hall.ID] = f.hall

	f.film = &entity.Film{
		Title:           "Night Train",
		DurationSeconds: 2 * 60 * 60,
		OnAirFrom:       now.AddDate(0, 0, -7),
		OnAirTo:         now.AddDate(0, 1, 0),
		IsActive:        true,
	}
	f.film.ID = uuid.New()
	s.films[f.film.ID] = f.film

	f.showing = &entity.Showing{
		HallID:      f.hall.ID,
		FilmID:      f.film.ID,
		StartsAt:    now.Add(24 * time.Hour),
		TicketPrice: 100,
		OnSale:      true,
	}
	f.showing.ID = uuid.New()
	s.showings[f.showing.ID] = f.showing

	f.adult = &entity.PersonCategory{Name: "adult"}
	f.adult.ID = uuid.New()
	f.child = &entity.PersonCategory{Name: "child", DiscountPct: 20}
	f.child.ID = uuid.New()
	s.categories[f.adult.ID] = f.adult
	s.categories[f.child.ID] = f.child

	f.individual = &entity.Account{
		OwnerType: entity.OwnerTypeIndividual,
		OwnerID:   uuid.New(),
		Name:      "Dana",
		Status:    entity.AccountStatusEnabled,
		Balance:   150,
	}
	f.individual.ID = uuid.New()
	s.accounts[f.individual.ID] = f.individual

	f.clubID = uuid.New()
	f.members = []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	s.clubs[f.clubID] = map[uuid.UUID]struct{}{}
	for _, m := range f.members {
		s.clubs[f.clubID][m] = struct{}{}
	}

	f.group = &entity.Account{
		OwnerType:   entity.OwnerTypeGroup,
		OwnerID:     f.clubID,
		Name:        "Film Club",
		Status:      entity.AccountStatusEnabled,
		DiscountPct: 10,
		Balance:     50,
	}
	f.group.ID = uuid.New()
	s.accounts[f.group.ID] = f.group

	f.repo = s.repository()
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) bookingService() *bookingService {
	svc := NewBookingService(f.repo, testConfig(), f.notifier, zap.NewNop()).(*bookingService)
	svc.now = f.clock
	return svc
}

func (f *fixture) seatLockService() *seatLockService {
	svc := NewSeatLockService(f.repo, testConfig(), zap.NewNop()).(*seatLockService)
	svc.now = f.clock
	return svc
}

func (f *fixture) scheduleService() *scheduleService {
	svc := NewScheduleService(f.repo, zap.NewNop()).(*scheduleService)
	svc.now = f.clock
	return svc
}

func (f *fixture) ledgerService() *ledgerService {
	svc := NewLedgerService(f.repo, zap.NewNop()).(*ledgerService)
	svc.now = f.clock
	return svc
}
