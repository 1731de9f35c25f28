package domain

import "time"

// SlotWindow is the half-open time span [Start, End) a reservation occupies on
// a table. Windows are aligned to the grid granularity by the availability grid
// before any occupancy bookkeeping happens.
type SlotWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewSlotWindow builds the occupancy window for a reservation starting at t.
func NewSlotWindow(t time.Time, duration time.Duration) SlotWindow {
	return SlotWindow{Start: t, End: t.Add(duration)}
}

// Overlaps reports whether two half-open windows share any instant.
func (w SlotWindow) Overlaps(o SlotWindow) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Cells returns the grid cell keys covered by the window, one per granularity
// step. Keys are unix seconds of each cell start, so equal instants in
// different locations map to the same cell.
func (w SlotWindow) Cells(granularity time.Duration) []int64 {
	if granularity <= 0 || !w.End.After(w.Start) {
		return nil
	}
	start := AlignSlot(w.Start, granularity)
	cells := make([]int64, 0, int(w.End.Sub(start)/granularity)+1)
	for t := start; t.Before(w.End); t = t.Add(granularity) {
		cells = append(cells, t.Unix())
	}
	return cells
}

// AlignSlot truncates t down to the nearest granularity boundary.
func AlignSlot(t time.Time, granularity time.Duration) time.Time {
	if granularity <= 0 {
		return t
	}
	return time.Unix(t.Unix()-t.Unix()%int64(granularity/time.Second), 0).In(t.Location())
}
