package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"mesaYaCore/internal/modules/restaurant/domain"
	"mesaYaCore/internal/shared/auth"
)

// CreateReservation validates the request, picks the smallest adequate free
// table for the slot and claims it atomically. When no table fits, the caller
// is expected to redirect the guest to the waiting list.
func (e *Engine) CreateReservation(ctx context.Context, actor auth.Identity, at time.Time, guests int) (domain.Reservation, error) {
	if guests <= 0 {
		return domain.Reservation{}, domain.Errf(domain.KindValidation, "guest amount must be positive, got %d", guests)
	}

	e.mu.Lock()
	now := e.now()
	if at.Before(now) {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindValidation, "reservation time %s is in the past", at.Format(time.RFC3339))
	}
	if !e.withinHorizon(now, at) {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindValidation, "reservation time is beyond the %d day booking horizon", e.policy.HorizonDays)
	}
	if !e.hours.Allows(at) {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindValidation, "reservation time %s is outside opening hours", at.Format("Monday 15:04"))
	}

	window := e.window(at)
	cells := window.Cells(e.policy.SlotGranularity)

	var table domain.Table
	claimed := false
	// The claim is atomic under the guard; the retry re-queries availability
	// once in case the first candidate was taken between check and act.
	for attempt := 0; attempt < 2 && !claimed; attempt++ {
		candidates := e.freeTablesLocked(window, guests)
		if len(candidates) == 0 {
			e.mu.Unlock()
			return domain.Reservation{}, domain.Errf(domain.KindNoAvailability, "no table seats %d guests at %s", guests, window.Start.Format("15:04"))
		}
		table = candidates[0]
		if err := e.reserveCellsLocked(table.Number, cells, ""); err == nil {
			claimed = true
		}
	}
	if !claimed {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindConflict, "table assignment kept conflicting, retry the request")
	}

	code, err := e.uniqueReservationCodeLocked()
	if err != nil {
		e.releaseCellsLocked(table.Number, cells, "")
		e.mu.Unlock()
		return domain.Reservation{}, err
	}

	r := &domain.Reservation{
		ID:               uuid.NewString(),
		ConfirmationCode: code,
		CreatedByUserID:  actor.UserID,
		CreatedByRole:    string(actor.Role),
		ReservationTime:  window.Start,
		Guests:           guests,
		TableNumber:      table.Number,
		Status:           domain.ReservationActive,
		CreatedAt:        now,
	}
	// Re-key the claimed cells from the placeholder to the reservation id.
	e.occupyCellsLocked(table.Number, cells, r.ID)
	e.reservations[r.ID] = r
	e.resByCode[code] = r
	snapshot := *r
	e.mu.Unlock()

	warn := e.persistReservation(ctx, snapshot)
	e.emit(ctx, domain.NewEvent(domain.ActionReservationCreated, snapshot.ID, snapshot, now))
	e.refreshAvailability(ctx)
	e.log.Info("reservation created",
		slog.String("reservationId", snapshot.ID),
		slog.Int("table", snapshot.TableNumber),
		slog.Int("guests", guests),
		slog.Time("at", snapshot.ReservationTime),
	)
	return snapshot, warn
}

// CheckIn records the guest's arrival. The status stays Active; close-out to
// Finished happens when payment completes.
func (e *Engine) CheckIn(ctx context.Context, code string) (domain.Reservation, error) {
	e.mu.Lock()
	r, ok := e.resByCode[code]
	if !ok {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindNotFound, "no active reservation for code %s", code)
	}
	if r.CheckedInAt != nil {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindInvalidState, "reservation %s is already checked in", code)
	}
	now := e.now()
	if now.Before(r.ReservationTime.Add(-e.policy.CheckInEarly)) {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindTooEarly, "check-in opens at %s", r.ReservationTime.Add(-e.policy.CheckInEarly).Format("15:04"))
	}
	if now.After(r.ReservationTime.Add(e.policy.CheckInGrace)) {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindTooLate, "check-in closed at %s", r.ReservationTime.Add(e.policy.CheckInGrace).Format("15:04"))
	}
	checkedIn := now
	r.CheckedInAt = &checkedIn
	snapshot := *r
	e.mu.Unlock()

	warn := e.persistReservation(ctx, snapshot)
	e.log.Info("reservation checked in", slog.String("reservationId", snapshot.ID), slog.Int("table", snapshot.TableNumber))
	return snapshot, warn
}

// FinishReservation closes out a checked-in reservation after payment. The
// table frees immediately and is offered to the waiting list.
func (e *Engine) FinishReservation(ctx context.Context, actor auth.Identity, code string) (domain.Reservation, error) {
	if !actor.IsStaff() {
		return domain.Reservation{}, domain.Errf(domain.KindForbidden, "only staff may close out reservations")
	}

	e.mu.Lock()
	r, ok := e.resByCode[code]
	if !ok {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindNotFound, "no active reservation for code %s", code)
	}
	if r.CheckedInAt == nil {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindInvalidState, "reservation %s has no check-in to close out", code)
	}
	now := e.now()
	r.Status = domain.ReservationFinished
	delete(e.resByCode, code)
	e.releaseCellsLocked(r.TableNumber, r.Window(e.policy.ReservationDuration).Cells(e.policy.SlotGranularity), r.ID)
	snapshot := *r
	e.mu.Unlock()

	warn := e.persistReservation(ctx, snapshot)
	e.emit(ctx, domain.NewEvent(domain.ActionTableFreed, snapshot.ID, freedTablePayload(snapshot.TableNumber, now), now))
	e.OnTableFreed(ctx, snapshot.TableNumber, now)
	e.refreshAvailability(ctx)
	e.log.Info("reservation finished", slog.String("reservationId", snapshot.ID), slog.Int("table", snapshot.TableNumber))
	return snapshot, warn
}

// CancelReservation cancels on behalf of the creator or staff, releases the
// slot and notifies the waiting list that the table freed.
func (e *Engine) CancelReservation(ctx context.Context, actor auth.Identity, code string) (domain.Reservation, error) {
	e.mu.Lock()
	r, ok := e.resByCode[code]
	if !ok {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindNotFound, "no active reservation for code %s", code)
	}
	if actor.UserID != r.CreatedByUserID && !actor.IsStaff() {
		e.mu.Unlock()
		return domain.Reservation{}, domain.Errf(domain.KindForbidden, "reservation %s belongs to another guest", code)
	}
	now := e.now()
	e.cancelReservationLocked(r)
	snapshot := *r
	e.mu.Unlock()

	warn := e.persistReservation(ctx, snapshot)
	e.emit(ctx, domain.NewEvent(domain.ActionTableFreed, snapshot.ID, freedTablePayload(snapshot.TableNumber, now), now))
	e.OnTableFreed(ctx, snapshot.TableNumber, now)
	e.refreshAvailability(ctx)
	e.log.Info("reservation cancelled", slog.String("reservationId", snapshot.ID), slog.String("byUserId", actor.UserID))
	return snapshot, warn
}

// ExpireOverdue cancels Active reservations whose grace window elapsed with
// no check-in, acting as the system. Idempotent: a second sweep with the same
// now cancels nothing new.
func (e *Engine) ExpireOverdue(ctx context.Context, now time.Time) int {
	e.mu.Lock()
	e.pruneGridLocked(now)
	expired := make([]domain.Reservation, 0)
	for _, r := range e.resByCode {
		if r.Overdue(now, e.policy.CheckInGrace) {
			e.cancelReservationLocked(r)
			expired = append(expired, *r)
		}
	}
	e.mu.Unlock()

	for _, snapshot := range expired {
		_ = e.persistReservation(ctx, snapshot)
		e.emit(ctx, domain.NewEvent(domain.ActionReservationExpired, snapshot.ID, snapshot, now))
		e.emit(ctx, domain.NewEvent(domain.ActionTableFreed, snapshot.ID, freedTablePayload(snapshot.TableNumber, now), now))
		e.OnTableFreed(ctx, snapshot.TableNumber, now)
		e.log.Info("reservation expired", slog.String("reservationId", snapshot.ID), slog.Int("table", snapshot.TableNumber))
	}
	if len(expired) > 0 {
		e.refreshAvailability(ctx)
	}
	return len(expired)
}

// cancelReservationLocked applies the terminal transition and releases the
// table's cells. Callers hold the guard.
func (e *Engine) cancelReservationLocked(r *domain.Reservation) {
	r.Status = domain.ReservationCancelled
	delete(e.resByCode, r.ConfirmationCode)
	if r.TableNumber > 0 {
		e.releaseCellsLocked(r.TableNumber, r.Window(e.policy.ReservationDuration).Cells(e.policy.SlotGranularity), r.ID)
	}
}

// ReservationList is a staff view over the reservation store.
func (e *Engine) ReservationList(actor auth.Identity) ([]domain.Reservation, error) {
	if !actor.IsStaff() {
		return nil, domain.Errf(domain.KindForbidden, "only staff may list reservations")
	}
	e.mu.Lock()
	out := make([]domain.Reservation, 0, len(e.reservations))
	for _, r := range e.reservations {
		out = append(out, *r)
	}
	e.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func freedTablePayload(table int, at time.Time) map[string]any {
	return map[string]any{"tableNumber": table, "freedAt": at.UTC()}
}
