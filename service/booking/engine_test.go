package booking

import (
	"context"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uxpromo/limboquest-api/db"
)

// In-memory Store fake. WithinTx holds one mutex for the whole callback,
// which models the session row lock: concurrent admissions serialize the
// same way they do against Postgres.
type fakeState struct {
	sessions map[uuid.UUID]db.QuestSession
	quests   map[uuid.UUID]db.Quest
	rules    map[uuid.UUID]db.PricingRule
	bookings map[uuid.UUID]db.Booking

	// Fault injection
	duplicateCodes int  // next N CreateBooking calls report a code collision
	conflictOnce   bool // next conditional update loses the status race
}

func (state *fakeState) getSession(id uuid.UUID) (*db.QuestSession, error) {
	session, ok := state.sessions[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &session, nil
}

func (state *fakeState) getQuest(id uuid.UUID) (*db.Quest, error) {
	quest, ok := state.quests[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &quest, nil
}

func (state *fakeState) getRule(id uuid.UUID) (*db.PricingRule, error) {
	rule, ok := state.rules[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &rule, nil
}

func (state *fakeState) getBooking(id uuid.UUID) (*db.Booking, error) {
	booking, ok := state.bookings[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &booking, nil
}

func (state *fakeState) hasActiveBooking(sessionID uuid.UUID) bool {
	for _, booking := range state.bookings {
		if booking.QuestSessionID == sessionID && booking.IsActive() {
			return true
		}
	}
	return false
}

func (state *fakeState) createBooking(booking *db.Booking) error {
	if state.duplicateCodes > 0 {
		state.duplicateCodes--
		return db.ErrDuplicateBookingCode
	}
	for _, existing := range state.bookings {
		if existing.BookingCode == booking.BookingCode {
			return db.ErrDuplicateBookingCode
		}
	}
	if booking.IsActive() && state.hasActiveBooking(booking.QuestSessionID) {
		return db.ErrActiveBookingExists
	}
	state.bookings[booking.ID] = *booking
	return nil
}

func (state *fakeState) updateBookingStatus(booking *db.Booking, from db.BookingStatus) bool {
	if state.conflictOnce {
		state.conflictOnce = false
		return false
	}
	stored, ok := state.bookings[booking.ID]
	if !ok || stored.Status != from {
		return false
	}
	stored.Status = booking.Status
	stored.ConfirmedAt = booking.ConfirmedAt
	stored.CancelledAt = booking.CancelledAt
	stored.PlayTime = booking.PlayTime
	stored.Winners = booking.Winners
	stored.Hints = booking.Hints
	state.bookings[booking.ID] = stored
	return true
}

func (state *fakeState) updateBookingDiscount(booking *db.Booking, from db.BookingStatus) bool {
	if state.conflictOnce {
		state.conflictOnce = false
		return false
	}
	stored, ok := state.bookings[booking.ID]
	if !ok || stored.Status != from {
		return false
	}
	stored.ManualDiscount = booking.ManualDiscount
	stored.ManualDiscountReason = booking.ManualDiscountReason
	stored.TotalPrice = booking.TotalPrice
	state.bookings[booking.ID] = stored
	return true
}

type fakeStore struct {
	mu    sync.Mutex
	state *fakeState
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: &fakeState{
		sessions: make(map[uuid.UUID]db.QuestSession),
		quests:   make(map[uuid.UUID]db.Quest),
		rules:    make(map[uuid.UUID]db.PricingRule),
		bookings: make(map[uuid.UUID]db.Booking),
	}}
}

func (store *fakeStore) WithinTx(ctx context.Context, fn func(db.Store) error) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	// Roll failed transactions back so a collided booking leaves no trace
	snapshot := maps.Clone(store.state.bookings)
	err := fn(&fakeTx{state: store.state})
	if err != nil {
		store.state.bookings = snapshot
	}
	return err
}

func (store *fakeStore) GetSessionForUpdate(ctx context.Context, id uuid.UUID) (*db.QuestSession, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.getSession(id)
}

func (store *fakeStore) GetSession(ctx context.Context, id uuid.UUID) (*db.QuestSession, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.getSession(id)
}

func (store *fakeStore) GetQuest(ctx context.Context, id uuid.UUID) (*db.Quest, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.getQuest(id)
}

func (store *fakeStore) GetPricingRule(ctx context.Context, id uuid.UUID) (*db.PricingRule, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.getRule(id)
}

func (store *fakeStore) HasActiveBooking(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.hasActiveBooking(sessionID), nil
}

func (store *fakeStore) CreateBooking(ctx context.Context, booking *db.Booking) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.createBooking(booking)
}

func (store *fakeStore) GetBooking(ctx context.Context, id uuid.UUID) (*db.Booking, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.getBooking(id)
}

func (store *fakeStore) UpdateBookingStatus(ctx context.Context, booking *db.Booking, from db.BookingStatus) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.updateBookingStatus(booking, from), nil
}

func (store *fakeStore) UpdateBookingDiscount(ctx context.Context, booking *db.Booking, from db.BookingStatus) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.updateBookingDiscount(booking, from), nil
}

// fakeTx is the view of the fake handed to WithinTx callbacks; the mutex is
// already held, so it must not lock again.
type fakeTx struct {
	state *fakeState
}

func (tx *fakeTx) WithinTx(ctx context.Context, fn func(db.Store) error) error {
	return fn(tx)
}

func (tx *fakeTx) GetSessionForUpdate(ctx context.Context, id uuid.UUID) (*db.QuestSession, error) {
	return tx.state.getSession(id)
}

func (tx *fakeTx) GetSession(ctx context.Context, id uuid.UUID) (*db.QuestSession, error) {
	return tx.state.getSession(id)
}

func (tx *fakeTx) GetQuest(ctx context.Context, id uuid.UUID) (*db.Quest, error) {
	return tx.state.getQuest(id)
}

func (tx *fakeTx) GetPricingRule(ctx context.Context, id uuid.UUID) (*db.PricingRule, error) {
	return tx.state.getRule(id)
}

func (tx *fakeTx) HasActiveBooking(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	return tx.state.hasActiveBooking(sessionID), nil
}

func (tx *fakeTx) CreateBooking(ctx context.Context, booking *db.Booking) error {
	return tx.state.createBooking(booking)
}

func (tx *fakeTx) GetBooking(ctx context.Context, id uuid.UUID) (*db.Booking, error) {
	return tx.state.getBooking(id)
}

func (tx *fakeTx) UpdateBookingStatus(ctx context.Context, booking *db.Booking, from db.BookingStatus) (bool, error) {
	return tx.state.updateBookingStatus(booking, from), nil
}

func (tx *fakeTx) UpdateBookingDiscount(ctx context.Context, booking *db.Booking, from db.BookingStatus) (bool, error) {
	return tx.state.updateBookingDiscount(booking, from), nil
}

// Shared fixture: a quest for 2-6 players on the standard 3000+500 rule,
// with one session 24 hours out.
type fixture struct {
	store   *fakeStore
	engine  *Engine
	now     time.Time
	rule    db.PricingRule
	quest   db.Quest
	session db.QuestSession
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()

	rule := *playerBasedRule(3000, 4, 500)
	store.state.rules[rule.ID] = rule

	quest := db.Quest{
		Model:         db.NewModel(),
		Slug:          "the-vault",
		Title:         "The Vault",
		PlayersMin:    intPtr(2),
		PlayersMax:    intPtr(6),
		PricingRuleID: rule.ID,
	}
	store.state.quests[quest.ID] = quest

	session := db.QuestSession{
		Model:         db.NewModel(),
		QuestID:       quest.ID,
		StartsAt:      now.Add(24 * time.Hour),
		PricingRuleID: rule.ID,
	}
	store.state.sessions[session.ID] = session

	engine := NewEngine(store)
	engine.now = func() time.Time { return now }

	return &fixture{
		store:   store,
		engine:  engine,
		now:     now,
		rule:    rule,
		quest:   quest,
		session: session,
	}
}

func (f *fixture) admitRequest() AdmitRequest {
	return AdmitRequest{
		SessionID:    f.session.ID,
		PlayersCount: 6,
		Name:         "Iris Vane",
		Phone:        "+15550100",
		Email:        "iris@example.com",
	}
}

func TestAdmitCreatesPendingBooking(t *testing.T) {
	f := newFixture(t)

	admitted, err := f.engine.Admit(context.Background(), f.admitRequest())
	require.NoError(t, err)

	require.Equal(t, db.BookingPending, admitted.Status)
	require.Equal(t, f.session.ID, admitted.QuestSessionID)
	require.Equal(t, db.SourceAdmin, admitted.SourceID)
	require.Equal(t, 4000, admitted.PricingSnapshot.Price)
	require.Equal(t, 4000, admitted.TotalPrice)
	require.Equal(t, 0, admitted.PaidAmount)
	require.NotEmpty(t, admitted.BookingCode)

	stored, err := f.store.GetBooking(context.Background(), admitted.ID)
	require.NoError(t, err)
	require.Equal(t, admitted.BookingCode, stored.BookingCode)
}

func TestAdmitSessionNotFound(t *testing.T) {
	f := newFixture(t)

	req := f.admitRequest()
	req.SessionID = uuid.New()

	_, err := f.engine.Admit(context.Background(), req)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAdmitPastSession(t *testing.T) {
	f := newFixture(t)
	f.engine.now = func() time.Time { return f.session.StartsAt.Add(time.Minute) }

	_, err := f.engine.Admit(context.Background(), f.admitRequest())
	require.ErrorIs(t, err, ErrSessionUnavailable)
}

func TestAdmitOccupiedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)

	_, err = f.engine.Admit(ctx, f.admitRequest())
	require.ErrorIs(t, err, ErrSessionUnavailable)

	// Cancelling frees the slot: a session becomes bookable again
	_, err = f.engine.Transition(ctx, first.ID, db.BookingCancelled, nil)
	require.NoError(t, err)

	_, err = f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)
}

func TestAdmitPlayerBounds(t *testing.T) {
	f := newFixture(t)

	for _, players := range []int{0, 1, 7} {
		req := f.admitRequest()
		req.PlayersCount = players

		_, err := f.engine.Admit(context.Background(), req)
		require.ErrorIs(t, err, ErrPlayerCountOutOfRange, "players=%d", players)
	}
}

func TestAdmitInactiveRule(t *testing.T) {
	f := newFixture(t)

	rule := f.store.state.rules[f.rule.ID]
	rule.IsActive = false
	f.store.state.rules[f.rule.ID] = rule

	_, err := f.engine.Admit(context.Background(), f.admitRequest())
	require.ErrorIs(t, err, ErrRuleInactive)
}

func TestAdmitConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 16
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Admit(ctx, f.admitRequest())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	admitted, rejected := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			admitted++
		default:
			require.ErrorIs(t, err, ErrSessionUnavailable)
			rejected++
		}
	}

	require.Equal(t, 1, admitted, "exactly one admission may win the slot")
	require.Equal(t, workers-1, rejected)
}

func TestAdmitRetriesCodeCollision(t *testing.T) {
	f := newFixture(t)
	f.store.state.duplicateCodes = 2

	admitted, err := f.engine.Admit(context.Background(), f.admitRequest())
	require.NoError(t, err)
	require.NotEmpty(t, admitted.BookingCode)
}

func TestAdmitGivesUpAfterCodeExhaustion(t *testing.T) {
	f := newFixture(t)
	f.store.state.duplicateCodes = maxCodeAttempts

	_, err := f.engine.Admit(context.Background(), f.admitRequest())
	require.ErrorIs(t, err, ErrPersistence)
	require.Empty(t, f.store.state.bookings, "a failed admission must leave nothing behind")
}

func TestSnapshotSurvivesRuleEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admitted, err := f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)

	// Reprice the rule after admission
	rule := f.store.state.rules[f.rule.ID]
	rule.BasePrice = 9900
	f.store.state.rules[f.rule.ID] = rule

	// A later transition must not recompute anything
	confirmed, err := f.engine.Transition(ctx, admitted.ID, db.BookingConfirmed, nil)
	require.NoError(t, err)
	require.Equal(t, 4000, confirmed.PricingSnapshot.Price)
	require.Equal(t, 4000, confirmed.TotalPrice)
	require.Equal(t, 3000, confirmed.PricingSnapshot.BasePrice)
}

func TestIsAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	available, err := f.engine.IsAvailable(ctx, f.session.ID)
	require.NoError(t, err)
	require.True(t, available)

	_, err = f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)

	available, err = f.engine.IsAvailable(ctx, f.session.ID)
	require.NoError(t, err)
	require.False(t, available, "occupied session is not available")

	f.engine.now = func() time.Time { return f.session.StartsAt }
	available, err = f.engine.IsAvailable(ctx, f.session.ID)
	require.NoError(t, err)
	require.False(t, available, "started session is not available")

	_, err = f.engine.IsAvailable(ctx, uuid.New())
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTransitionConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admitted, err := f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)

	confirmed, err := f.engine.Transition(ctx, admitted.ID, db.BookingConfirmed, nil)
	require.NoError(t, err)
	require.Equal(t, db.BookingConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)
	require.Equal(t, f.now, *confirmed.ConfirmedAt)
}

func TestTransitionCancelSetsTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admitted, err := f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)

	cancelled, err := f.engine.Transition(ctx, admitted.ID, db.BookingCancelled, nil)
	require.NoError(t, err)
	require.Equal(t, db.BookingCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
}

func TestTransitionCompleteRequiresStartedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admitted, err := f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)
	_, err = f.engine.Transition(ctx, admitted.ID, db.BookingConfirmed, nil)
	require.NoError(t, err)

	// Session has not started yet
	_, err = f.engine.Transition(ctx, admitted.ID, db.BookingCompleted, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// After the start it goes through and records the play statistics
	f.engine.now = func() time.Time { return f.session.StartsAt.Add(time.Hour) }
	won := true
	completed, err := f.engine.Transition(ctx, admitted.ID, db.BookingCompleted, &PlayStats{
		PlayTime: intPtr(3420),
		Winners:  &won,
		Hints:    intPtr(2),
	})
	require.NoError(t, err)
	require.Equal(t, db.BookingCompleted, completed.Status)
	require.Equal(t, 3420, *completed.PlayTime)
	require.True(t, *completed.Winners)
	require.Equal(t, 2, *completed.Hints)
}

func TestTransitionAbsentRequiresStartedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admitted, err := f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)

	_, err = f.engine.Transition(ctx, admitted.ID, db.BookingAbsent, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)

	f.engine.now = func() time.Time { return f.session.StartsAt.Add(time.Minute) }
	absent, err := f.engine.Transition(ctx, admitted.ID, db.BookingAbsent, nil)
	require.NoError(t, err)
	require.Equal(t, db.BookingAbsent, absent.Status)
}

func TestTransitionRejectsIllegalTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admitted, err := f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)

	// pending cannot skip straight to completed, nor go back to pending,
	// nor to a made-up status
	for _, target := range []db.BookingStatus{db.BookingCompleted, db.BookingPending, "paid"} {
		_, err = f.engine.Transition(ctx, admitted.ID, target, nil)
		require.ErrorIs(t, err, ErrInvalidTransition, "target=%s", target)
	}

	// Terminal statuses accept nothing further
	_, err = f.engine.Transition(ctx, admitted.ID, db.BookingCancelled, nil)
	require.NoError(t, err)
	_, err = f.engine.Transition(ctx, admitted.ID, db.BookingConfirmed, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionUnknownBooking(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Transition(context.Background(), uuid.New(), db.BookingConfirmed, nil)
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestTransitionConcurrentModification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admitted, err := f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)

	// Another writer changes the row between our read and our update
	f.store.state.conflictOnce = true
	_, err = f.engine.Transition(ctx, admitted.ID, db.BookingConfirmed, nil)
	require.ErrorIs(t, err, ErrConcurrentModification)

	// A retry after re-reading succeeds
	_, err = f.engine.Transition(ctx, admitted.ID, db.BookingConfirmed, nil)
	require.NoError(t, err)
}

func TestApplyDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admitted, err := f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)
	require.Equal(t, 4000, admitted.TotalPrice)

	discounted, err := f.engine.ApplyDiscount(ctx, admitted.ID, 1500, "regulars")
	require.NoError(t, err)
	require.Equal(t, 1500, discounted.ManualDiscount)
	require.Equal(t, "regulars", discounted.ManualDiscountReason)
	require.Equal(t, 2500, discounted.TotalPrice)

	// A replacement discount applies to the snapshot price, not the
	// already-discounted total
	discounted, err = f.engine.ApplyDiscount(ctx, admitted.ID, 500, "corrected")
	require.NoError(t, err)
	require.Equal(t, 3500, discounted.TotalPrice)
}

func TestApplyDiscountLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admitted, err := f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)

	_, err = f.engine.ApplyDiscount(ctx, admitted.ID, 5000, "too much")
	require.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = f.engine.ApplyDiscount(ctx, admitted.ID, -1, "negative")
	require.ErrorIs(t, err, ErrInvalidDiscount)

	// Discounting the whole price down to zero is allowed
	free, err := f.engine.ApplyDiscount(ctx, admitted.ID, 4000, "voucher")
	require.NoError(t, err)
	require.Equal(t, 0, free.TotalPrice)
}

func TestApplyDiscountTerminalBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admitted, err := f.engine.Admit(ctx, f.admitRequest())
	require.NoError(t, err)
	_, err = f.engine.Transition(ctx, admitted.ID, db.BookingCancelled, nil)
	require.NoError(t, err)

	_, err = f.engine.ApplyDiscount(ctx, admitted.ID, 100, "late")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApplyDiscountUnknownBooking(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.ApplyDiscount(context.Background(), uuid.New(), 100, "x")
	require.ErrorIs(t, err, ErrBookingNotFound)
}
