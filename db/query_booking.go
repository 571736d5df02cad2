package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

func (queries *Queries) ListBookings(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	err := queries.DB.WithContext(ctx).Order("date_created DESC").Find(&bookings).Error
	return bookings, err
}

func (queries *Queries) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := queries.DB.WithContext(ctx).First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (queries *Queries) GetBookingByCode(ctx context.Context, code string) (*Booking, error) {
	var booking Booking
	err := queries.DB.WithContext(ctx).First(&booking, "booking_code = ?", code).Error
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

// UpdateBookingContact edits the fields an admin may change freely after
// admission. Status, pricing snapshot and discounts go through the booking
// engine instead; the snapshot is never writable.
func (queries *Queries) UpdateBookingContact(ctx context.Context, booking *Booking) error {
	result := queries.DB.WithContext(ctx).Model(&Booking{}).
		Where("id = ?", booking.ID).
		Updates(map[string]any{
			"name":         booking.Name,
			"phone":        booking.Phone,
			"email":        booking.Email,
			"source_id":    booking.SourceID,
			"paid_amount":  booking.PaidAmount,
			"notes":        booking.Notes,
			"date_updated": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (queries *Queries) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	result := queries.DB.WithContext(ctx).Delete(&Booking{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
