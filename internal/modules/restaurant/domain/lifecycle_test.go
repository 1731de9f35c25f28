package domain

import (
	"testing"
	"time"
)

func TestReservationOverdue(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	grace := 15 * time.Minute
	checkedIn := at.Add(5 * time.Minute)

	cases := []struct {
		name string
		r    Reservation
		now  time.Time
		want bool
	}{
		{"inside grace", Reservation{Status: ReservationActive, ReservationTime: at}, at.Add(10 * time.Minute), false},
		{"at deadline", Reservation{Status: ReservationActive, ReservationTime: at}, at.Add(grace), false},
		{"past deadline", Reservation{Status: ReservationActive, ReservationTime: at}, at.Add(16 * time.Minute), true},
		{"checked in", Reservation{Status: ReservationActive, ReservationTime: at, CheckedInAt: &checkedIn}, at.Add(time.Hour), false},
		{"already cancelled", Reservation{Status: ReservationCancelled, ReservationTime: at}, at.Add(time.Hour), false},
	}
	for _, tc := range cases {
		if got := tc.r.Overdue(tc.now, grace); got != tc.want {
			t.Errorf("%s: Overdue = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestWaitingEntryOfferPredicates(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	freed := created.Add(20 * time.Minute)
	window := 10 * time.Minute

	open := WaitingEntry{Status: WaitingOpen, CreatedAt: created}
	offered := WaitingEntry{Status: WaitingOpen, CreatedAt: created, TableFreedTime: &freed, TableNumber: 3}

	if open.HasOffer() {
		t.Error("entry without a freed table must not report an offer")
	}
	if !offered.HasOffer() {
		t.Error("entry with freed table and table number must report an offer")
	}
	if offered.OfferExpired(freed.Add(window), window) {
		t.Error("offer at its deadline is not yet expired")
	}
	if !offered.OfferExpired(freed.Add(window+time.Second), window) {
		t.Error("offer past its deadline must expire")
	}

	seated := offered
	seated.Status = WaitingSeated
	if seated.HasOffer() || seated.OfferExpired(freed.Add(time.Hour), window) {
		t.Error("terminal entries carry no live offer")
	}
}

func TestWaitingEntryWaitExceeded(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	ceiling := 90 * time.Minute
	freed := created.Add(time.Hour)

	w := WaitingEntry{Status: WaitingOpen, CreatedAt: created}
	if w.WaitExceeded(created.Add(89*time.Minute), ceiling) {
		t.Error("entry inside the ceiling must not exceed")
	}
	if !w.WaitExceeded(created.Add(91*time.Minute), ceiling) {
		t.Error("entry past the ceiling must exceed")
	}

	w.TableFreedTime = &freed
	w.TableNumber = 2
	if w.WaitExceeded(created.Add(3*time.Hour), ceiling) {
		t.Error("the ceiling only applies while no offer was ever made")
	}
}

func TestNewConfirmationCode(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 32; i++ {
		code, err := NewConfirmationCode()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != CodeLength {
			t.Fatalf("code %q is not %d digits", code, CodeLength)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains a non-digit", code)
			}
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 2 {
		t.Error("32 draws produced a single code, entropy source looks broken")
	}
}

func TestTableValidateAndFits(t *testing.T) {
	t.Parallel()

	if err := (Table{Number: 1, Seats: 4, IsAvailable: true}).Validate(); err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}
	if err := (Table{Number: 0, Seats: 4}).Validate(); KindOf(err) != KindValidation {
		t.Errorf("zero table number should fail validation, got %v", err)
	}
	if err := (Table{Number: 1, Seats: -1}).Validate(); KindOf(err) != KindValidation {
		t.Errorf("negative seats should fail validation, got %v", err)
	}

	table := Table{Number: 1, Seats: 4, IsAvailable: true}
	if !table.Fits(4) || table.Fits(5) {
		t.Error("Fits must compare against capacity inclusively")
	}
	table.IsAvailable = false
	if table.Fits(1) {
		t.Error("disabled tables never fit")
	}
}
