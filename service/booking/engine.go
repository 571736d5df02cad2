package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uxpromo/limboquest-api/db"
	"github.com/uxpromo/limboquest-api/util"
)

// How many fresh booking codes to try before giving up on admission.
const maxCodeAttempts = 5

// Engine is the booking admission and pricing core. Handlers hand it a
// session id and candidate booking attributes; it decides admission,
// freezes the price and guards every later status change. All decisions go
// through the Store so concurrent admissions on one session serialize on
// the session row.
type Engine struct {
	store db.Store
	now   func() time.Time
}

func NewEngine(store db.Store) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
	}
}

// AdmitRequest carries the candidate booking attributes. SourceID is empty
// for bookings created through the admin surface and defaults accordingly.
type AdmitRequest struct {
	SessionID    uuid.UUID
	PlayersCount int
	Name         string
	Phone        string
	Email        string
	UserID       *uuid.UUID
	SourceID     string
	Notes        string
}

// PlayStats are the post-session numbers a completed transition may carry.
type PlayStats struct {
	PlayTime *int
	Winners  *bool
	Hints    *int
}

// Admit validates the request against the session, prices it and persists a
// pending booking with a frozen snapshot, all inside one transaction per
// attempt. A booking-code collision aborts the transaction and retries with
// a fresh code a bounded number of times.
func (engine *Engine) Admit(ctx context.Context, req AdmitRequest) (*db.Booking, error) {
	if req.PlayersCount < 1 {
		return nil, ErrPlayerCountOutOfRange
	}

	sourceID := req.SourceID
	if sourceID == "" {
		sourceID = db.SourceAdmin
	}

	var admitted *db.Booking
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := util.GenerateBookingCode()

		err := engine.store.WithinTx(ctx, func(tx db.Store) error {
			session, err := tx.GetSessionForUpdate(ctx, req.SessionID)
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					return ErrSessionNotFound
				}
				return fmt.Errorf("%w: %v", ErrPersistence, err)
			}

			// Availability re-checked under the row lock: future start and
			// no active booking.
			if !session.StartsAt.After(engine.now()) {
				return ErrSessionUnavailable
			}
			active, err := tx.HasActiveBooking(ctx, session.ID)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrPersistence, err)
			}
			if active {
				return ErrSessionUnavailable
			}

			quest, err := tx.GetQuest(ctx, session.QuestID)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrPersistence, err)
			}
			if quest.PlayersMin != nil && req.PlayersCount < *quest.PlayersMin {
				return ErrPlayerCountOutOfRange
			}
			if quest.PlayersMax != nil && req.PlayersCount > *quest.PlayersMax {
				return ErrPlayerCountOutOfRange
			}

			rule, err := tx.GetPricingRule(ctx, session.PricingRuleID)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrPersistence, err)
			}
			snapshot, err := Evaluate(rule, req.PlayersCount)
			if err != nil {
				return err
			}

			candidate := &db.Booking{
				Model:           db.NewModel(),
				QuestSessionID:  session.ID,
				UserID:          req.UserID,
				Name:            req.Name,
				Phone:           req.Phone,
				Email:           req.Email,
				PlayersCount:    req.PlayersCount,
				Status:          db.BookingPending,
				SourceID:        sourceID,
				PricingSnapshot: snapshot,
				TotalPrice:      snapshot.Price,
				PaidAmount:      0,
				Notes:           req.Notes,
				BookingCode:     code,
			}

			if err := tx.CreateBooking(ctx, candidate); err != nil {
				if errors.Is(err, db.ErrActiveBookingExists) {
					// Lost the race despite the lock; the partial index is
					// the authority.
					return ErrSessionUnavailable
				}
				if errors.Is(err, db.ErrDuplicateBookingCode) {
					return err
				}
				return fmt.Errorf("%w: %v", ErrPersistence, err)
			}

			admitted = candidate
			return nil
		})

		if errors.Is(err, db.ErrDuplicateBookingCode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return admitted, nil
	}

	return nil, fmt.Errorf("%w: could not allocate a unique booking code", ErrPersistence)
}

// IsAvailable reports whether the session can accept a booking right now:
// it has not started and carries no active booking. Advisory outside the
// admission transaction; Admit re-checks under the lock.
func (engine *Engine) IsAvailable(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	session, err := engine.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return false, ErrSessionNotFound
		}
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if !session.StartsAt.After(engine.now()) {
		return false, nil
	}

	active, err := engine.store.HasActiveBooking(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return !active, nil
}

// Transition moves a booking to the target status, enforcing the state
// machine, the session-start guards and optimistic concurrency: if the
// stored status no longer matches the one read here, the caller gets
// ErrConcurrentModification and should re-read before retrying.
func (engine *Engine) Transition(ctx context.Context, bookingID uuid.UUID, target db.BookingStatus, stats *PlayStats) (*db.Booking, error) {
	if !ValidStatus(target) || target == db.BookingPending {
		return nil, ErrInvalidTransition
	}

	record, err := engine.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	from := record.Status
	if !CanTransition(from, target) {
		return nil, ErrInvalidTransition
	}

	now := engine.now()
	switch target {
	case db.BookingConfirmed:
		record.ConfirmedAt = &now

	case db.BookingCancelled:
		record.CancelledAt = &now

	case db.BookingCompleted, db.BookingAbsent:
		// Post-session outcomes only make sense after the session started.
		session, err := engine.store.GetSession(ctx, record.QuestSessionID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if session.StartsAt.After(now) {
			return nil, ErrInvalidTransition
		}
		if target == db.BookingCompleted && stats != nil {
			record.PlayTime = stats.PlayTime
			record.Winners = stats.Winners
			record.Hints = stats.Hints
		}
	}

	record.Status = target
	ok, err := engine.store.UpdateBookingStatus(ctx, record, from)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !ok {
		return nil, ErrConcurrentModification
	}

	return record, nil
}

// ApplyDiscount sets a manual discount on an active booking. The discount
// comes off the snapshot price, never below zero, and may not exceed it.
func (engine *Engine) ApplyDiscount(ctx context.Context, bookingID uuid.UUID, discount int, reason string) (*db.Booking, error) {
	if discount < 0 {
		return nil, ErrInvalidDiscount
	}

	record, err := engine.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Terminal bookings keep their final price.
	if !record.IsActive() {
		return nil, ErrInvalidTransition
	}

	if discount > record.PricingSnapshot.Price {
		return nil, ErrInvalidDiscount
	}

	total := record.PricingSnapshot.Price - discount
	if total < 0 {
		total = 0
	}

	from := record.Status
	record.ManualDiscount = discount
	record.ManualDiscountReason = reason
	record.TotalPrice = total

	ok, err := engine.store.UpdateBookingDiscount(ctx, record, from)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !ok {
		return nil, ErrConcurrentModification
	}

	return record, nil
}
