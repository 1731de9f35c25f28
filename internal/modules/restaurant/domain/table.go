package domain

// Table represents a seating resource owned by the table registry. Reservations
// reference it by Number, never by embedding.
type Table struct {
	Number      int  `json:"number" db:"table_number"`
	Seats       int  `json:"seats" db:"seats_amount"`
	IsAvailable bool `json:"isAvailable" db:"is_available"`
}

// Validate enforces the registry constraints for staff-submitted tables.
func (t Table) Validate() error {
	if t.Number <= 0 {
		return Errf(KindValidation, "table number must be positive, got %d", t.Number)
	}
	if t.Seats <= 0 {
		return Errf(KindValidation, "seats amount must be positive, got %d", t.Seats)
	}
	return nil
}

// Fits reports whether the table can seat a party of the given size. Disabled
// tables never fit regardless of capacity.
func (t Table) Fits(partySize int) bool {
	return t.IsAvailable && t.Seats >= partySize
}
