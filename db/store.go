package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage errors surfaced to the booking engine. Handlers never see these
// directly; the engine maps them onto its own error kinds.
var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateBookingCode = errors.New("booking code already taken")
	ErrActiveBookingExists  = errors.New("session already has an active booking")
)

// Store is the transactional storage surface the booking engine runs against.
// The gorm implementation below is the production one; tests substitute an
// in-memory fake.
type Store interface {
	// WithinTx runs fn inside a single database transaction. The Store
	// passed to fn is bound to that transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error

	// GetSessionForUpdate loads a session and, inside a transaction, locks
	// its row so concurrent admissions on the same session serialize.
	GetSessionForUpdate(ctx context.Context, id uuid.UUID) (*QuestSession, error)

	GetSession(ctx context.Context, id uuid.UUID) (*QuestSession, error)
	GetQuest(ctx context.Context, id uuid.UUID) (*Quest, error)
	GetPricingRule(ctx context.Context, id uuid.UUID) (*PricingRule, error)

	// HasActiveBooking reports whether the session holds a pending or
	// confirmed booking.
	HasActiveBooking(ctx context.Context, sessionID uuid.UUID) (bool, error)

	CreateBooking(ctx context.Context, booking *Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)

	// UpdateBookingStatus applies the booking's current field values under
	// the condition that the stored status still equals `from`. Returns
	// false when another writer got there first.
	UpdateBookingStatus(ctx context.Context, booking *Booking, from BookingStatus) (bool, error)

	// UpdateBookingDiscount persists manual discount fields and the derived
	// total price, also guarded on the previously read status.
	UpdateBookingDiscount(ctx context.Context, booking *Booking, from BookingStatus) (bool, error)
}

// SQLStore implements Store on top of gorm/Postgres.
type SQLStore struct {
	db *gorm.DB
}

func NewStore(conn *gorm.DB) *SQLStore {
	return &SQLStore{db: conn}
}

func (store *SQLStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SQLStore{db: tx})
	})
}

func (store *SQLStore) GetSessionForUpdate(ctx context.Context, id uuid.UUID) (*QuestSession, error) {
	var session QuestSession
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (store *SQLStore) GetSession(ctx context.Context, id uuid.UUID) (*QuestSession, error) {
	var session QuestSession
	err := store.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (store *SQLStore) GetQuest(ctx context.Context, id uuid.UUID) (*Quest, error) {
	var quest Quest
	err := store.db.WithContext(ctx).First(&quest, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &quest, nil
}

func (store *SQLStore) GetPricingRule(ctx context.Context, id uuid.UUID) (*PricingRule, error) {
	// Unscoped so a soft-deleted rule still resolves: whether it may be used
	// is the engine's call (is_active), not the query's.
	var rule PricingRule
	err := store.db.WithContext(ctx).Unscoped().First(&rule, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rule, nil
}

func (store *SQLStore) HasActiveBooking(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).Model(&Booking{}).
		Where("quest_session_id = ? AND status IN ?", sessionID, ActiveBookingStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (store *SQLStore) CreateBooking(ctx context.Context, booking *Booking) error {
	err := store.db.WithContext(ctx).Create(booking).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == UniqActiveBooking {
				return ErrActiveBookingExists
			}
			return ErrDuplicateBookingCode
		}
		return err
	}
	return nil
}

func (store *SQLStore) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := store.db.WithContext(ctx).First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (store *SQLStore) UpdateBookingStatus(ctx context.Context, booking *Booking, from BookingStatus) (bool, error) {
	result := store.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", booking.ID, from).
		Updates(map[string]any{
			"status":       booking.Status,
			"confirmed_at": booking.ConfirmedAt,
			"cancelled_at": booking.CancelledAt,
			"play_time":    booking.PlayTime,
			"winners":      booking.Winners,
			"hints":        booking.Hints,
			"date_updated": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (store *SQLStore) UpdateBookingDiscount(ctx context.Context, booking *Booking, from BookingStatus) (bool, error) {
	result := store.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", booking.ID, from).
		Updates(map[string]any{
			"manual_discount":        booking.ManualDiscount,
			"manual_discount_reason": booking.ManualDiscountReason,
			"total_price":            booking.TotalPrice,
			"date_updated":           time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// translate maps gorm's not-found onto the package sentinel
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
