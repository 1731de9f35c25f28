package domain

import "time"

// ReservationStatus represents the reservation lifecycle. Finished and
// Cancelled are terminal.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationFinished  ReservationStatus = "FINISHED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation is a confirmed claim on a table for a slot window.
type Reservation struct {
	ID               string            `json:"id" db:"reservation_id"`
	ConfirmationCode string            `json:"confirmationCode" db:"confirmation_code"`
	CreatedByUserID  string            `json:"createdByUserId" db:"created_by_user_id"`
	CreatedByRole    string            `json:"createdByRole" db:"created_by_role"`
	ReservationTime  time.Time         `json:"reservationTime" db:"reservation_time"`
	Guests           int               `json:"guests" db:"guest_amount"`
	TableNumber      int               `json:"tableNumber" db:"table_number"`
	Status           ReservationStatus `json:"status" db:"status"`
	CheckedInAt      *time.Time        `json:"checkedInAt,omitempty" db:"checked_in_at"`
	CreatedAt        time.Time         `json:"createdAt" db:"created_at"`
}

// IsActive is derived: true iff the reservation is in its Active state.
func (r Reservation) IsActive() bool {
	return r.Status == ReservationActive
}

// Window returns the slot window the reservation occupies on its table.
func (r Reservation) Window(duration time.Duration) SlotWindow {
	return NewSlotWindow(r.ReservationTime, duration)
}

// Overdue reports whether the reservation missed its check-in grace window.
func (r Reservation) Overdue(now time.Time, grace time.Duration) bool {
	return r.IsActive() && r.CheckedInAt == nil && now.After(r.ReservationTime.Add(grace))
}
