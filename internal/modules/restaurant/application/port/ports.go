package port

import (
	"context"
	"time"

	"mesaYaCore/internal/modules/restaurant/domain"
)

// Store is the durable persistence collaborator. The engine blocks on the
// Load* calls at startup and treats every mutation as a write-through of plain
// entity values, never invoked while the in-memory guard is held.
type Store interface {
	LoadTables(ctx context.Context) ([]domain.Table, error)
	UpsertTable(ctx context.Context, table domain.Table) error
	DeleteTable(ctx context.Context, number int) error

	LoadReservations(ctx context.Context) ([]domain.Reservation, error)
	UpsertReservation(ctx context.Context, r domain.Reservation) error

	LoadWaiting(ctx context.Context) ([]domain.WaitingEntry, error)
	UpsertWaiting(ctx context.Context, w domain.WaitingEntry) error

	LoadOpeningHours(ctx context.Context) (domain.OpeningHours, error)
	UpsertOpeningHours(ctx context.Context, day domain.DayOfWeek, sched domain.Schedule) error
}

// EventPublisher carries engine events to the messaging component that renders
// notifications. Publishing is fire-and-forget from the engine's perspective.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// AvailabilityCache receives availability snapshots for the read-only consoles.
type AvailabilityCache interface {
	StoreSnapshot(ctx context.Context, snapshot any) error
}

// Clock supplies the current timestamp; injectable for testing.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
