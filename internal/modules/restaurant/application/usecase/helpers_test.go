package usecase

import (
	"context"
	"sync"
	"time"

	"mesaYaCore/internal/modules/restaurant/domain"
	"mesaYaCore/internal/shared/auth"
)

// fakeClock is a mutable clock shared by a test and the engine under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeStore records write-throughs and can be told to fail them.
type fakeStore struct {
	mu           sync.Mutex
	failUpserts  error
	tables       []domain.Table
	reservations []domain.Reservation
	waiting      []domain.WaitingEntry
	deleted      []int
}

func (s *fakeStore) LoadTables(context.Context) ([]domain.Table, error)              { return nil, nil }
func (s *fakeStore) LoadReservations(context.Context) ([]domain.Reservation, error) { return nil, nil }
func (s *fakeStore) LoadWaiting(context.Context) ([]domain.WaitingEntry, error)     { return nil, nil }
func (s *fakeStore) LoadOpeningHours(context.Context) (domain.OpeningHours, error)  { return nil, nil }

func (s *fakeStore) UpsertTable(_ context.Context, t domain.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpserts != nil {
		return s.failUpserts
	}
	s.tables = append(s.tables, t)
	return nil
}

func (s *fakeStore) DeleteTable(_ context.Context, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpserts != nil {
		return s.failUpserts
	}
	s.deleted = append(s.deleted, number)
	return nil
}

func (s *fakeStore) UpsertReservation(_ context.Context, r domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpserts != nil {
		return s.failUpserts
	}
	s.reservations = append(s.reservations, r)
	return nil
}

func (s *fakeStore) UpsertWaiting(_ context.Context, w domain.WaitingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpserts != nil {
		return s.failUpserts
	}
	s.waiting = append(s.waiting, w)
	return nil
}

func (s *fakeStore) UpsertOpeningHours(context.Context, domain.DayOfWeek, domain.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failUpserts
}

func (s *fakeStore) reservationUpserts() []domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Reservation(nil), s.reservations...)
}

// fakePublisher collects emitted events.
type fakePublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *fakePublisher) Publish(_ context.Context, event *domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

func (p *fakePublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Action)
	}
	return out
}

// openMonday is a Monday noon well inside the test opening hours.
var openMonday = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func allWeekHours() domain.OpeningHours {
	hours := make(domain.OpeningHours)
	for _, day := range []domain.DayOfWeek{domain.Monday, domain.Tuesday, domain.Wednesday, domain.Thursday, domain.Friday, domain.Saturday, domain.Sunday} {
		hours[day] = domain.Schedule{Open: "09:00", Close: "22:00"}
	}
	return hours
}

type testEnv struct {
	engine *Engine
	clock  *fakeClock
	store  *fakeStore
	events *fakePublisher
}

func newTestEnv(tables ...domain.Table) *testEnv {
	clock := newFakeClock(openMonday)
	store := &fakeStore{}
	events := &fakePublisher{}
	engine := NewEngine(DefaultPolicy(), Deps{Store: store, Events: events, Clock: clock})
	engine.SetOpeningHours(allWeekHours())
	staff := auth.Identity{UserID: "manager", Role: auth.RoleStaff}
	for _, t := range tables {
		if _, err := engine.SaveTable(context.Background(), staff, t); err != nil {
			panic(err)
		}
	}
	return &testEnv{engine: engine, clock: clock, store: store, events: events}
}

func guest(id string) auth.Identity {
	return auth.Identity{UserID: id, Role: auth.RoleGuest}
}

func staff() auth.Identity {
	return auth.Identity{UserID: "manager", Role: auth.RoleStaff}
}
