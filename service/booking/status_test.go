package booking

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uxpromo/limboquest-api/db"
)

var allStatuses = []db.BookingStatus{
	db.BookingPending,
	db.BookingConfirmed,
	db.BookingCancelled,
	db.BookingCompleted,
	db.BookingAbsent,
}

func TestCanTransition(t *testing.T) {
	allowed := map[db.BookingStatus][]db.BookingStatus{
		db.BookingPending:   {db.BookingConfirmed, db.BookingCancelled, db.BookingAbsent},
		db.BookingConfirmed: {db.BookingCompleted, db.BookingCancelled, db.BookingAbsent},
	}

	// Every pair not listed above must be rejected, including self-loops
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, target := range allowed[from] {
				if target == to {
					want = true
				}
			}
			require.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	require.False(t, Terminal(db.BookingPending))
	require.False(t, Terminal(db.BookingConfirmed))
	require.True(t, Terminal(db.BookingCancelled))
	require.True(t, Terminal(db.BookingCompleted))
	require.True(t, Terminal(db.BookingAbsent))
}

func TestValidStatus(t *testing.T) {
	for _, status := range allStatuses {
		require.True(t, ValidStatus(status))
	}
	require.False(t, ValidStatus("paid"))
	require.False(t, ValidStatus(""))
}

func TestRetryable(t *testing.T) {
	require.True(t, Retryable(ErrPersistence))
	require.True(t, Retryable(ErrConcurrentModification))

	for _, err := range []error{
		ErrRuleInactive,
		ErrSessionNotFound,
		ErrSessionUnavailable,
		ErrBookingNotFound,
		ErrPlayerCountOutOfRange,
		ErrInvalidTransition,
		ErrInvalidDiscount,
	} {
		require.False(t, Retryable(err))
	}
}
