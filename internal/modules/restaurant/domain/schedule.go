package domain

import (
	"strings"
	"time"
)

// DayOfWeek encapsulates the allowed opening days using uppercase english names.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

var allowedDays = map[string]DayOfWeek{
	string(Monday):    Monday,
	string(Tuesday):   Tuesday,
	string(Wednesday): Wednesday,
	string(Thursday):  Thursday,
	string(Friday):    Friday,
	string(Saturday):  Saturday,
	string(Sunday):    Sunday,
}

var weekdayNames = map[time.Weekday]DayOfWeek{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// NormalizeDay returns the canonical DayOfWeek for raw input, or "" when the
// value is not a weekday name.
func NormalizeDay(value string) DayOfWeek {
	key := strings.ToUpper(strings.TrimSpace(value))
	return allowedDays[key]
}

// DayOf maps a timestamp to its DayOfWeek.
func DayOf(t time.Time) DayOfWeek {
	return weekdayNames[t.Weekday()]
}

// Schedule represents the operating hours for a single day as minutes from
// midnight. A zero Schedule means the restaurant is closed that day.
type Schedule struct {
	Open  string `json:"open" db:"open_time"`
	Close string `json:"close" db:"close_time"`
}

// IsZero returns true when no hours are configured.
func (s Schedule) IsZero() bool {
	return s.Open == "" && s.Close == ""
}

// Contains reports whether the wall-clock portion of t falls within [open, close).
func (s Schedule) Contains(t time.Time) bool {
	open, okOpen := parseClock(s.Open)
	close, okClose := parseClock(s.Close)
	if !okOpen || !okClose {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= open && minute < close
}

// BuildSchedule constructs a schedule enforcing domain invariants.
//   - Accepts values in "HH:MM" format.
//   - The close time must occur after the open time within the same day.
func BuildSchedule(openRaw, closeRaw string) (Schedule, error) {
	open, okOpen := parseClock(openRaw)
	close, okClose := parseClock(closeRaw)
	if !okOpen {
		return Schedule{}, Errf(KindValidation, "invalid open time %q, want HH:MM", openRaw)
	}
	if !okClose {
		return Schedule{}, Errf(KindValidation, "invalid close time %q, want HH:MM", closeRaw)
	}
	if close <= open {
		return Schedule{}, Errf(KindValidation, "close time %q must be after open time %q", closeRaw, openRaw)
	}
	return Schedule{Open: strings.TrimSpace(openRaw), Close: strings.TrimSpace(closeRaw)}, nil
}

func parseClock(value string) (int, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}
	parsed, err := time.Parse("15:04", trimmed)
	if err != nil {
		return 0, false
	}
	return parsed.Hour()*60 + parsed.Minute(), true
}

// OpeningHours maps weekdays to their schedules. Absent days are closed.
type OpeningHours map[DayOfWeek]Schedule

// Allows reports whether a reservation starting at t falls within the
// configured hours for that day.
func (h OpeningHours) Allows(t time.Time) bool {
	sched, ok := h[DayOf(t)]
	if !ok || sched.IsZero() {
		return false
	}
	return sched.Contains(t)
}

// Clone returns an independent copy safe to hand to display consumers.
func (h OpeningHours) Clone() OpeningHours {
	out := make(OpeningHours, len(h))
	for day, sched := range h {
		out[day] = sched
	}
	return out
}
