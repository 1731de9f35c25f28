package domain

import (
	"testing"
	"time"
)

func TestNormalizeDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want DayOfWeek
	}{
		{"monday", Monday},
		{"  Friday ", Friday},
		{"SUNDAY", Sunday},
		{"noday", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeDay(tc.in); got != tc.want {
			t.Errorf("NormalizeDay(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildSchedule(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		open    string
		close   string
		wantErr bool
	}{
		{"valid", "09:00", "22:00", false},
		{"trimmed", " 09:00 ", "22:00", false},
		{"close before open", "22:00", "09:00", true},
		{"close equals open", "12:00", "12:00", true},
		{"garbage open", "9am", "22:00", true},
		{"empty close", "09:00", "", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := BuildSchedule(tc.open, tc.close)
			if (err != nil) != tc.wantErr {
				t.Fatalf("BuildSchedule(%q, %q) error = %v, wantErr %v", tc.open, tc.close, err, tc.wantErr)
			}
			if err != nil && KindOf(err) != KindValidation {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestScheduleContains(t *testing.T) {
	t.Parallel()

	sched := Schedule{Open: "09:00", Close: "22:00"}
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		clock string
		want  bool
	}{
		{"08:59", false},
		{"09:00", true},
		{"15:30", true},
		{"21:59", true},
		{"22:00", false}, // close is exclusive
	}
	for _, tc := range cases {
		at, err := time.Parse("15:04", tc.clock)
		if err != nil {
			t.Fatal(err)
		}
		instant := day.Add(time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute)
		if got := sched.Contains(instant); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.clock, got, tc.want)
		}
	}
}

func TestOpeningHoursAllows(t *testing.T) {
	t.Parallel()

	hours := OpeningHours{
		Monday: {Open: "09:00", Close: "22:00"},
	}
	monday := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	tuesday := monday.Add(24 * time.Hour)

	if !hours.Allows(monday) {
		t.Error("expected Monday noon to be allowed")
	}
	if hours.Allows(tuesday) {
		t.Error("expected a closed day to reject")
	}
	if hours.Allows(monday.Add(11 * time.Hour)) {
		t.Error("expected 23:00 to reject")
	}
}

func TestOpeningHoursCloneIsIndependent(t *testing.T) {
	t.Parallel()

	original := OpeningHours{Monday: {Open: "09:00", Close: "22:00"}}
	clone := original.Clone()
	clone[Monday] = Schedule{Open: "10:00", Close: "20:00"}

	if original[Monday].Open != "09:00" {
		t.Error("mutating the clone changed the original")
	}
}
