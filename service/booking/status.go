package booking

import "github.com/uxpromo/limboquest-api/db"

// transitions defines the booking status state machine.
// pending -> confirmed -> completed; pending/confirmed -> cancelled or absent.
// completed, cancelled and absent are terminal.
var transitions = map[db.BookingStatus][]db.BookingStatus{
	db.BookingPending:   {db.BookingConfirmed, db.BookingCancelled, db.BookingAbsent},
	db.BookingConfirmed: {db.BookingCompleted, db.BookingCancelled, db.BookingAbsent},
	db.BookingCompleted: {},
	db.BookingCancelled: {},
	db.BookingAbsent:    {},
}

// ValidStatus reports whether the value is a recognized booking status.
func ValidStatus(status db.BookingStatus) bool {
	_, ok := transitions[status]
	return ok
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to db.BookingStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist from the status.
func Terminal(status db.BookingStatus) bool {
	return len(transitions[status]) == 0
}
