package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mesaYaCore/internal/modules/restaurant/domain"
	"mesaYaCore/internal/shared/auth"
)

// JoinWaitingList queues a guest for the next table that seats their party.
func (e *Engine) JoinWaitingList(ctx context.Context, actor auth.Identity, guests int) (domain.WaitingEntry, error) {
	if guests <= 0 {
		return domain.WaitingEntry{}, domain.Errf(domain.KindValidation, "guest amount must be positive, got %d", guests)
	}

	e.mu.Lock()
	code, err := e.uniqueWaitingCodeLocked()
	if err != nil {
		e.mu.Unlock()
		return domain.WaitingEntry{}, err
	}
	w := &domain.WaitingEntry{
		ID:               uuid.NewString(),
		ConfirmationCode: code,
		CreatedByUserID:  actor.UserID,
		CreatedByRole:    string(actor.Role),
		Guests:           guests,
		Status:           domain.WaitingOpen,
		CreatedAt:        e.now(),
	}
	e.waiting[w.ID] = w
	e.waitByCode[code] = w
	e.waitOrder = append(e.waitOrder, w.ID)
	snapshot := *w
	e.mu.Unlock()

	warn := e.persistWaiting(ctx, snapshot)
	e.log.Info("waiting entry joined", slog.String("waitingId", snapshot.ID), slog.Int("guests", guests))
	return snapshot, warn
}

// OnTableFreed offers a freed table to the first fitting waiting entry in
// creation order. The table stays provisionally held until the guest confirms
// or the offer expires. Every cancel, finish and expiry path funnels through
// here.
func (e *Engine) OnTableFreed(ctx context.Context, tableNumber int, freedAt time.Time) {
	e.offerTable(ctx, tableNumber, freedAt)
}

// offerTable is the promotion scan behind OnTableFreed. A table already
// holding an offer is never offered twice.
func (e *Engine) offerTable(ctx context.Context, tableNumber int, freedAt time.Time) {
	e.mu.Lock()
	table, ok := e.tables[tableNumber]
	if !ok || !table.IsAvailable {
		e.mu.Unlock()
		return
	}
	if _, offered := e.held[tableNumber]; offered {
		e.mu.Unlock()
		return
	}
	// Cancelling a future slot frees nothing for walk-ins yet; an offer only
	// goes out while the table's current window is clear.
	if !e.cellsFreeLocked(tableNumber, e.window(freedAt).Cells(e.policy.SlotGranularity)) {
		e.mu.Unlock()
		return
	}
	var candidate *domain.WaitingEntry
	for _, id := range e.waitOrder {
		w, ok := e.waiting[id]
		if !ok || !w.IsWaiting() || w.HasOffer() {
			continue
		}
		if w.Guests <= table.Seats {
			candidate = w
			break
		}
	}
	if candidate == nil {
		e.mu.Unlock()
		return
	}
	freed := freedAt
	candidate.TableFreedTime = &freed
	candidate.TableNumber = tableNumber
	e.held[tableNumber] = candidate.ID
	snapshot := *candidate
	e.mu.Unlock()

	_ = e.persistWaiting(ctx, snapshot)
	e.emit(ctx, domain.NewEvent(domain.ActionWaitingOfferMade, snapshot.ID, snapshot, freedAt))
	e.refreshAvailability(ctx)
	e.log.Info("waiting offer made", slog.String("waitingId", snapshot.ID), slog.Int("table", tableNumber))
}

// ConfirmArrival seats a waiting guest at their offered table, turning the
// provisional hold into a de-facto occupancy starting now.
func (e *Engine) ConfirmArrival(ctx context.Context, code string) (domain.WaitingEntry, error) {
	e.mu.Lock()
	w, ok := e.waitByCode[code]
	if !ok {
		e.mu.Unlock()
		return domain.WaitingEntry{}, domain.Errf(domain.KindNotFound, "no waiting entry for code %s", code)
	}
	if !w.HasOffer() {
		e.mu.Unlock()
		return domain.WaitingEntry{}, domain.Errf(domain.KindInvalidState, "waiting entry %s has no pending table offer", code)
	}
	now := e.now()
	cells := e.window(now).Cells(e.policy.SlotGranularity)
	// Drop the hold so the claim sees the table, restoring it when the claim
	// fails. The current window may have drifted into another reservation's
	// cells since the offer went out.
	delete(e.held, w.TableNumber)
	if err := e.reserveCellsLocked(w.TableNumber, cells, w.ID); err != nil {
		e.held[w.TableNumber] = w.ID
		e.mu.Unlock()
		return domain.WaitingEntry{}, err
	}
	w.Status = domain.WaitingSeated
	delete(e.waitByCode, code)
	e.removeFromOrderLocked(w.ID)
	snapshot := *w
	e.mu.Unlock()

	warn := e.persistWaiting(ctx, snapshot)
	e.emit(ctx, domain.NewEvent(domain.ActionWaitingPromoted, snapshot.ID, snapshot, now))
	e.refreshAvailability(ctx)
	e.log.Info("waiting guest seated", slog.String("waitingId", snapshot.ID), slog.Int("table", snapshot.TableNumber))
	return snapshot, warn
}

// CancelWaiting cancels on behalf of the creator or staff and releases any
// provisionally-held table back to the next candidate.
func (e *Engine) CancelWaiting(ctx context.Context, actor auth.Identity, code string) (domain.WaitingEntry, error) {
	e.mu.Lock()
	w, ok := e.waitByCode[code]
	if !ok {
		e.mu.Unlock()
		return domain.WaitingEntry{}, domain.Errf(domain.KindNotFound, "no waiting entry for code %s", code)
	}
	if actor.UserID != w.CreatedByUserID && !actor.IsStaff() {
		e.mu.Unlock()
		return domain.WaitingEntry{}, domain.Errf(domain.KindForbidden, "waiting entry %s belongs to another guest", code)
	}
	now := e.now()
	freedTable := e.cancelWaitingLocked(w)
	snapshot := *w
	e.mu.Unlock()

	warn := e.persistWaiting(ctx, snapshot)
	if freedTable > 0 {
		e.emit(ctx, domain.NewEvent(domain.ActionTableFreed, snapshot.ID, freedTablePayload(freedTable, now), now))
		e.OnTableFreed(ctx, freedTable, now)
		e.refreshAvailability(ctx)
	}
	e.log.Info("waiting entry cancelled", slog.String("waitingId", snapshot.ID), slog.String("byUserId", actor.UserID))
	return snapshot, warn
}

// ExpireStale cancels offers that ran out their confirmation window, handing
// the table to the next candidate, and entries that waited past the ceiling
// with no offer ever made. Idempotent under an unchanged now.
func (e *Engine) ExpireStale(ctx context.Context, now time.Time) int {
	e.mu.Lock()
	expired := make([]domain.WaitingEntry, 0)
	freedTables := make([]int, 0)
	for _, id := range append([]string(nil), e.waitOrder...) {
		w, ok := e.waiting[id]
		if !ok || !w.IsWaiting() {
			continue
		}
		switch {
		case w.OfferExpired(now, e.policy.OfferWindow):
			if freed := e.cancelWaitingLocked(w); freed > 0 {
				freedTables = append(freedTables, freed)
			}
			expired = append(expired, *w)
		case w.WaitExceeded(now, e.policy.MaxWait):
			e.cancelWaitingLocked(w)
			expired = append(expired, *w)
		}
	}
	e.mu.Unlock()

	for _, snapshot := range expired {
		_ = e.persistWaiting(ctx, snapshot)
		e.emit(ctx, domain.NewEvent(domain.ActionWaitingExpired, snapshot.ID, snapshot, now))
		e.log.Info("waiting entry expired", slog.String("waitingId", snapshot.ID))
	}
	for _, table := range freedTables {
		e.OnTableFreed(ctx, table, now)
	}
	if len(expired) > 0 {
		e.refreshAvailability(ctx)
	}
	return len(expired)
}

// cancelWaitingLocked applies the terminal transition and returns the held
// table number when an offer was outstanding, zero otherwise.
func (e *Engine) cancelWaitingLocked(w *domain.WaitingEntry) int {
	freed := 0
	if w.HasOffer() {
		freed = w.TableNumber
		delete(e.held, w.TableNumber)
	}
	w.Status = domain.WaitingCancelled
	delete(e.waitByCode, w.ConfirmationCode)
	e.removeFromOrderLocked(w.ID)
	return freed
}

func (e *Engine) removeFromOrderLocked(id string) {
	for i, existing := range e.waitOrder {
		if existing == id {
			e.waitOrder = append(e.waitOrder[:i], e.waitOrder[i+1:]...)
			return
		}
	}
}

// WaitingList is a staff view over the waiting store in creation order.
func (e *Engine) WaitingList(actor auth.Identity) ([]domain.WaitingEntry, error) {
	if !actor.IsStaff() {
		return nil, domain.Errf(domain.KindForbidden, "only staff may list the waiting queue")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.WaitingEntry, 0, len(e.waitOrder))
	for _, id := range e.waitOrder {
		if w, ok := e.waiting[id]; ok {
			out = append(out, *w)
		}
	}
	return out, nil
}
