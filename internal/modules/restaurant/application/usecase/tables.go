package usecase

import (
	"context"
	"log/slog"
	"time"

	"mesaYaCore/internal/modules/restaurant/domain"
	"mesaYaCore/internal/shared/auth"
)

// SaveTable upserts a table in the registry. Grid entries touching the table
// follow automatically because availability is derived from the registry on
// every query.
func (e *Engine) SaveTable(ctx context.Context, actor auth.Identity, table domain.Table) (domain.Table, error) {
	if !actor.CanManageTables() {
		return domain.Table{}, domain.Errf(domain.KindForbidden, "only staff may edit tables")
	}
	if err := table.Validate(); err != nil {
		return domain.Table{}, err
	}

	e.mu.Lock()
	e.tables[table.Number] = table
	e.mu.Unlock()

	warn := e.persistTable(ctx, table)
	e.refreshAvailability(ctx)
	e.log.Info("table saved", slog.Int("table", table.Number), slog.Int("seats", table.Seats), slog.Bool("available", table.IsAvailable))
	return table, warn
}

// DeleteTable removes a table. It refuses while any Active reservation or
// pending waiting offer is linked to the table.
func (e *Engine) DeleteTable(ctx context.Context, actor auth.Identity, number int) error {
	if !actor.CanManageTables() {
		return domain.Errf(domain.KindForbidden, "only staff may edit tables")
	}

	e.mu.Lock()
	if _, ok := e.tables[number]; !ok {
		e.mu.Unlock()
		return domain.Errf(domain.KindNotFound, "table %d does not exist", number)
	}
	for _, r := range e.resByCode {
		if r.TableNumber == number {
			e.mu.Unlock()
			return domain.Errf(domain.KindNotFound, "table %d has an active reservation", number)
		}
	}
	if _, offered := e.held[number]; offered {
		e.mu.Unlock()
		return domain.Errf(domain.KindNotFound, "table %d is held for a waiting guest", number)
	}
	delete(e.tables, number)
	e.mu.Unlock()

	var warn error
	if e.store != nil {
		if err := e.store.DeleteTable(ctx, number); err != nil {
			e.log.Warn("table delete write-through failed", slog.Int("table", number), slog.Any("error", err))
			warn = domain.WrapPersistence("table delete", err)
		}
	}
	e.refreshAvailability(ctx)
	e.log.Info("table removed", slog.Int("table", number))
	return warn
}

// Tables returns the registry ordered by table number.
func (e *Engine) Tables() []domain.Table {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tableListLocked()
}

// OpeningHoursView returns a copy of the configured hours.
func (e *Engine) OpeningHoursView() domain.OpeningHours {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hours.Clone()
}

// UpdateOpeningHours replaces the schedule for one weekday.
func (e *Engine) UpdateOpeningHours(ctx context.Context, actor auth.Identity, dayRaw, open, close string) (domain.OpeningHours, error) {
	if !actor.CanManageTables() {
		return nil, domain.Errf(domain.KindForbidden, "only staff may edit opening hours")
	}
	day := domain.NormalizeDay(dayRaw)
	if day == "" {
		return nil, domain.Errf(domain.KindValidation, "unknown day %q", dayRaw)
	}
	sched, err := domain.BuildSchedule(open, close)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.hours[day] = sched
	hours := e.hours.Clone()
	e.mu.Unlock()

	var warn error
	if e.store != nil {
		if err := e.store.UpsertOpeningHours(ctx, day, sched); err != nil {
			e.log.Warn("opening hours write-through failed", slog.String("day", string(day)), slog.Any("error", err))
			warn = domain.WrapPersistence("opening hours upsert", err)
		}
	}
	e.log.Info("opening hours updated", slog.String("day", string(day)), slog.String("open", sched.Open), slog.String("close", sched.Close))
	return hours, warn
}

// SetOpeningHours seeds the full week at once, used by tests and startup.
func (e *Engine) SetOpeningHours(hours domain.OpeningHours) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hours = hours.Clone()
}

func (e *Engine) persistTable(ctx context.Context, table domain.Table) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.UpsertTable(ctx, table); err != nil {
		e.log.Warn("table write-through failed", slog.Int("table", table.Number), slog.Any("error", err))
		return domain.WrapPersistence("table upsert", err)
	}
	return nil
}

// now is a small convenience for lifecycle methods that stamp times.
func (e *Engine) now() time.Time { return e.clock.Now() }
