package domain

import "time"

// WaitingStatus represents the waiting-list lifecycle. Seated and Cancelled
// are terminal.
type WaitingStatus string

const (
	WaitingOpen      WaitingStatus = "WAITING"
	WaitingSeated    WaitingStatus = "SEATED"
	WaitingCancelled WaitingStatus = "CANCELLED"
)

// WaitingEntry is a guest queued for the next table that fits their party.
// TableFreedTime and TableNumber are set together when an offer is made and
// stay nil/zero until then.
type WaitingEntry struct {
	ID               string        `json:"id" db:"waiting_id"`
	ConfirmationCode string        `json:"confirmationCode" db:"confirmation_code"`
	CreatedByUserID  string        `json:"createdByUserId" db:"created_by_user_id"`
	CreatedByRole    string        `json:"createdByRole" db:"created_by_role"`
	Guests           int           `json:"guests" db:"guest_amount"`
	TableFreedTime   *time.Time    `json:"tableFreedTime,omitempty" db:"table_freed_time"`
	TableNumber      int           `json:"tableNumber,omitempty" db:"table_number"`
	Status           WaitingStatus `json:"status" db:"status"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
}

// IsWaiting reports whether the entry is still queued.
func (w WaitingEntry) IsWaiting() bool {
	return w.Status == WaitingOpen
}

// HasOffer reports whether a freed table is currently held for this entry.
func (w WaitingEntry) HasOffer() bool {
	return w.IsWaiting() && w.TableFreedTime != nil && w.TableNumber > 0
}

// OfferExpired reports whether the held table's confirmation window has elapsed.
func (w WaitingEntry) OfferExpired(now time.Time, window time.Duration) bool {
	return w.HasOffer() && now.After(w.TableFreedTime.Add(window))
}

// WaitExceeded reports whether the entry waited past the ceiling without ever
// receiving an offer.
func (w WaitingEntry) WaitExceeded(now time.Time, ceiling time.Duration) bool {
	return w.IsWaiting() && w.TableFreedTime == nil && now.After(w.CreatedAt.Add(ceiling))
}
