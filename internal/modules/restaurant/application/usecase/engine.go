package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"mesaYaCore/internal/modules/restaurant/application/port"
	"mesaYaCore/internal/modules/restaurant/domain"
)

// Policy bundles the engine's time-driven constants. None of them are
// structural; they arrive from configuration.
type Policy struct {
	// SlotGranularity is the width of one availability-grid cell.
	SlotGranularity time.Duration
	// ReservationDuration is the slot window a reservation occupies.
	ReservationDuration time.Duration
	// HorizonDays bounds how far ahead reservations may be created.
	HorizonDays int
	// CheckInEarly and CheckInGrace bound the check-in window around the
	// reservation time.
	CheckInEarly time.Duration
	CheckInGrace time.Duration
	// OfferWindow is how long an offered table stays held for a waiting guest.
	OfferWindow time.Duration
	// MaxWait cancels waiting entries never offered a table.
	MaxWait time.Duration
}

// DefaultPolicy returns the engine defaults used when configuration is silent.
func DefaultPolicy() Policy {
	return Policy{
		SlotGranularity:     30 * time.Minute,
		ReservationDuration: 2 * time.Hour,
		HorizonDays:         30,
		CheckInEarly:        30 * time.Minute,
		CheckInGrace:        15 * time.Minute,
		OfferWindow:         10 * time.Minute,
		MaxWait:             90 * time.Minute,
	}
}

// Deps are the engine's collaborators. Store, Events and Cache may be nil in
// tests; the engine degrades to in-memory-only operation.
type Deps struct {
	Store  port.Store
	Events port.EventPublisher
	Cache  port.AvailabilityCache
	Clock  port.Clock
	Logger *slog.Logger
}

// Engine owns the Restaurant aggregate: table registry, availability grid,
// reservation and waiting indices. It is the single writer of all of them and
// serializes access with one mutex. The guard is never held across store,
// cache or broker I/O; in-memory state is authoritative and the store is
// eventually consistent with it.
type Engine struct {
	mu     sync.Mutex
	policy Policy
	clock  port.Clock
	store  port.Store
	events port.EventPublisher
	cache  port.AvailabilityCache
	log    *slog.Logger

	tables map[int]domain.Table
	hours  domain.OpeningHours

	reservations map[string]*domain.Reservation
	resByCode    map[string]*domain.Reservation // active reservations only

	waiting    map[string]*domain.WaitingEntry
	waitByCode map[string]*domain.WaitingEntry // active entries only
	waitOrder  []string                        // waiting ids in creation order

	grid map[int64]map[int]string // cell -> table number -> occupant id
	held map[int]string           // table number -> waiting id holding an offer
}

// NewEngine builds an empty engine. Call Load before serving commands.
func NewEngine(policy Policy, deps Deps) *Engine {
	if policy.SlotGranularity <= 0 {
		policy = DefaultPolicy()
	}
	clock := deps.Clock
	if clock == nil {
		clock = port.ClockFunc(time.Now)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		policy:       policy,
		clock:        clock,
		store:        deps.Store,
		events:       deps.Events,
		cache:        deps.Cache,
		log:          logger,
		tables:       make(map[int]domain.Table),
		hours:        make(domain.OpeningHours),
		reservations: make(map[string]*domain.Reservation),
		resByCode:    make(map[string]*domain.Reservation),
		waiting:      make(map[string]*domain.WaitingEntry),
		waitByCode:   make(map[string]*domain.WaitingEntry),
		grid:         make(map[int64]map[int]string),
		held:         make(map[int]string),
	}
}

// Load blocks on the persistence collaborator, fills the registry and both
// stores, then rebuilds the availability grid for the configured horizon.
func (e *Engine) Load(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	tables, err := e.store.LoadTables(ctx)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	hours, err := e.store.LoadOpeningHours(ctx)
	if err != nil {
		return fmt.Errorf("load opening hours: %w", err)
	}
	reservations, err := e.store.LoadReservations(ctx)
	if err != nil {
		return fmt.Errorf("load reservations: %w", err)
	}
	waiting, err := e.store.LoadWaiting(ctx)
	if err != nil {
		return fmt.Errorf("load waiting list: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, t := range tables {
		e.tables[t.Number] = t
	}
	if hours != nil {
		e.hours = hours.Clone()
	}
	for i := range reservations {
		r := reservations[i]
		e.reservations[r.ID] = &r
		if !r.IsActive() {
			continue
		}
		e.resByCode[r.ConfirmationCode] = &r
		if r.TableNumber > 0 {
			cells := r.Window(e.policy.ReservationDuration).Cells(e.policy.SlotGranularity)
			e.occupyCellsLocked(r.TableNumber, cells, r.ID)
		}
	}
	sort.Slice(waiting, func(i, j int) bool { return waiting[i].CreatedAt.Before(waiting[j].CreatedAt) })
	for i := range waiting {
		w := waiting[i]
		e.waiting[w.ID] = &w
		if !w.IsWaiting() {
			continue
		}
		e.waitByCode[w.ConfirmationCode] = &w
		e.waitOrder = append(e.waitOrder, w.ID)
		if w.HasOffer() {
			e.held[w.TableNumber] = w.ID
		}
	}

	e.log.Info("engine state loaded",
		slog.Int("tables", len(e.tables)),
		slog.Int("reservations", len(e.reservations)),
		slog.Int("waiting", len(e.waiting)),
	)
	return nil
}

// window aligns a reservation start to the grid and spans the occupancy
// duration.
func (e *Engine) window(at time.Time) domain.SlotWindow {
	return domain.NewSlotWindow(domain.AlignSlot(at, e.policy.SlotGranularity), e.policy.ReservationDuration)
}

func (e *Engine) withinHorizon(now, at time.Time) bool {
	return !at.After(now.Add(time.Duration(e.policy.HorizonDays) * 24 * time.Hour))
}

// freeTablesLocked returns the enabled tables that seat the party and are
// unoccupied for every cell of the window, ordered by capacity then number so
// the first entry is the smallest adequate table.
func (e *Engine) freeTablesLocked(window domain.SlotWindow, partySize int) []domain.Table {
	cells := window.Cells(e.policy.SlotGranularity)
	free := make([]domain.Table, 0, len(e.tables))
	for _, t := range e.tables {
		if !t.Fits(partySize) {
			continue
		}
		if _, offered := e.held[t.Number]; offered {
			continue
		}
		if e.cellsFreeLocked(t.Number, cells) {
			free = append(free, t)
		}
	}
	sort.Slice(free, func(i, j int) bool {
		if free[i].Seats != free[j].Seats {
			return free[i].Seats < free[j].Seats
		}
		return free[i].Number < free[j].Number
	})
	return free
}

func (e *Engine) cellsFreeLocked(table int, cells []int64) bool {
	for _, cell := range cells {
		if _, taken := e.grid[cell][table]; taken {
			return false
		}
	}
	return true
}

// reserveCellsLocked is the atomic check-then-act of reserveSlot: it verifies
// the table is still free for the whole window and claims it, failing with a
// conflict otherwise.
func (e *Engine) reserveCellsLocked(table int, cells []int64, occupant string) error {
	if _, offered := e.held[table]; offered {
		return domain.Errf(domain.KindConflict, "table %d is held for a waiting guest", table)
	}
	if !e.cellsFreeLocked(table, cells) {
		return domain.Errf(domain.KindConflict, "table %d is no longer free for the requested slot", table)
	}
	e.occupyCellsLocked(table, cells, occupant)
	return nil
}

func (e *Engine) occupyCellsLocked(table int, cells []int64, occupant string) {
	for _, cell := range cells {
		bucket := e.grid[cell]
		if bucket == nil {
			bucket = make(map[int]string)
			e.grid[cell] = bucket
		}
		bucket[table] = occupant
	}
}

// releaseCellsLocked frees the window cells held by the given occupant only,
// so a later occupant of the same table is never clobbered.
func (e *Engine) releaseCellsLocked(table int, cells []int64, occupant string) {
	for _, cell := range cells {
		if bucket, ok := e.grid[cell]; ok && bucket[table] == occupant {
			delete(bucket, table)
			if len(bucket) == 0 {
				delete(e.grid, cell)
			}
		}
	}
}

// pruneGridLocked drops cells that ended in the past so the grid stays bounded
// to the rolling horizon.
func (e *Engine) pruneGridLocked(now time.Time) {
	floor := now.Add(-e.policy.ReservationDuration).Unix()
	for cell := range e.grid {
		if cell < floor {
			delete(e.grid, cell)
		}
	}
}

// uniqueReservationCodeLocked rolls confirmation codes until one is unused by
// any currently-active reservation.
func (e *Engine) uniqueReservationCodeLocked() (string, error) {
	for {
		code, err := domain.NewConfirmationCode()
		if err != nil {
			return "", err
		}
		if _, taken := e.resByCode[code]; !taken {
			return code, nil
		}
	}
}

// uniqueWaitingCodeLocked is the waiting-list counterpart.
func (e *Engine) uniqueWaitingCodeLocked() (string, error) {
	for {
		code, err := domain.NewConfirmationCode()
		if err != nil {
			return "", err
		}
		if _, taken := e.waitByCode[code]; !taken {
			return code, nil
		}
	}
}

// FreeSlotsFor returns the ordered tables able to seat the party in the slot
// starting at the given time. An empty result is a valid outcome meaning
// "join the waiting list".
func (e *Engine) FreeSlotsFor(at time.Time, partySize int) ([]domain.Table, error) {
	if partySize <= 0 {
		return nil, domain.Errf(domain.KindValidation, "party size must be positive, got %d", partySize)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.freeTablesLocked(e.window(at), partySize), nil
}

// AvailabilitySnapshot is the engine's published view of current availability.
type AvailabilitySnapshot struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Tables      []domain.Table `json:"tables"`
	FreeNow     []int          `json:"freeNow"`
}

// Snapshot captures the registry and the tables free for a window starting now.
func (e *Engine) Snapshot() AvailabilitySnapshot {
	e.mu.Lock()
	now := e.clock.Now()
	tables := e.tableListLocked()
	free := e.freeTablesLocked(e.window(now), 1)
	e.mu.Unlock()

	numbers := make([]int, 0, len(free))
	for _, t := range free {
		numbers = append(numbers, t.Number)
	}
	sort.Ints(numbers)
	return AvailabilitySnapshot{GeneratedAt: now, Tables: tables, FreeNow: numbers}
}

func (e *Engine) tableListLocked() []domain.Table {
	tables := make([]domain.Table, 0, len(e.tables))
	for _, t := range e.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Number < tables[j].Number })
	return tables
}

// refreshAvailability pushes a fresh snapshot to the cache after any mutation
// that touched the grid or registry. Fire-and-forget.
func (e *Engine) refreshAvailability(ctx context.Context) {
	if e.cache == nil {
		return
	}
	snapshot := e.Snapshot()
	if err := e.cache.StoreSnapshot(ctx, snapshot); err != nil {
		e.log.Warn("availability cache refresh failed", slog.Any("error", err))
	}
}

// emit hands an event to the notification collaborator, logging failures.
func (e *Engine) emit(ctx context.Context, event *domain.Event) {
	if e.events == nil || event == nil {
		return
	}
	if err := e.events.Publish(ctx, event); err != nil {
		e.log.Warn("event publish failed", slog.String("topic", event.Topic), slog.Any("error", err))
	}
}

func (e *Engine) persistReservation(ctx context.Context, r domain.Reservation) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.UpsertReservation(ctx, r); err != nil {
		e.log.Warn("reservation write-through failed", slog.String("reservationId", r.ID), slog.Any("error", err))
		return domain.WrapPersistence("reservation upsert", err)
	}
	return nil
}

func (e *Engine) persistWaiting(ctx context.Context, w domain.WaitingEntry) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.UpsertWaiting(ctx, w); err != nil {
		e.log.Warn("waiting write-through failed", slog.String("waitingId", w.ID), slog.Any("error", err))
		return domain.WrapPersistence("waiting upsert", err)
	}
	return nil
}
