package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesaYaCore/internal/modules/restaurant/domain"
)

func TestCreateReservationPicksSmallestAdequateTable(t *testing.T) {
	t.Parallel()
	env := newTestEnv(
		domain.Table{Number: 1, Seats: 2, IsAvailable: true},
		domain.Table{Number: 2, Seats: 4, IsAvailable: true},
		domain.Table{Number: 3, Seats: 6, IsAvailable: true},
	)

	r, err := env.engine.CreateReservation(context.Background(), guest("g1"), openMonday.Add(2*time.Hour), 3)
	require.NoError(t, err)

	assert.Equal(t, 2, r.TableNumber)
	assert.Equal(t, domain.ReservationActive, r.Status)
	assert.Len(t, r.ConfirmationCode, 6)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, []string{domain.ActionReservationCreated}, env.events.actions())
}

func TestCreateReservationValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})
	ctx := context.Background()

	cases := []struct {
		name   string
		at     time.Time
		guests int
		kind   domain.ErrorKind
	}{
		{"zero guests", openMonday.Add(time.Hour), 0, domain.KindValidation},
		{"negative guests", openMonday.Add(time.Hour), -2, domain.KindValidation},
		{"past time", openMonday.Add(-time.Hour), 2, domain.KindValidation},
		{"beyond horizon", openMonday.Add(31 * 24 * time.Hour), 2, domain.KindValidation},
		{"outside opening hours", openMonday.Add(11 * time.Hour), 2, domain.KindValidation},
		{"party too large", openMonday.Add(time.Hour), 8, domain.KindNoAvailability},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.engine.CreateReservation(ctx, guest("g1"), tc.at, tc.guests)
			require.Error(t, err)
			assert.Equal(t, tc.kind, domain.KindOf(err))
		})
	}
}

func TestCreateReservationDisabledTableIsNotOffered(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: false})

	_, err := env.engine.CreateReservation(context.Background(), guest("g1"), openMonday.Add(time.Hour), 2)
	require.Error(t, err)
	assert.Equal(t, domain.KindNoAvailability, domain.KindOf(err))
}

func TestCreateReservationLastTableConcurrent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})
	at := openMonday.Add(2 * time.Hour)

	const racers = 16
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := env.engine.CreateReservation(context.Background(), guest("g"), at, 2)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		if err == nil {
			won++
			continue
		}
		assert.Equal(t, domain.KindNoAvailability, domain.KindOf(err))
	}
	assert.Equal(t, 1, won, "exactly one request may claim the last table")
}

func TestSingleClaimInvariantAcrossTables(t *testing.T) {
	t.Parallel()
	env := newTestEnv(
		domain.Table{Number: 1, Seats: 4, IsAvailable: true},
		domain.Table{Number: 2, Seats: 4, IsAvailable: true},
		domain.Table{Number: 3, Seats: 4, IsAvailable: true},
	)
	at := openMonday.Add(3 * time.Hour)

	const racers = 24
	var wg sync.WaitGroup
	claims := make(chan domain.Reservation, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r, err := env.engine.CreateReservation(context.Background(), guest("g"), at, 2); err == nil {
				claims <- r
			}
		}()
	}
	wg.Wait()
	close(claims)

	seen := make(map[int]string)
	for r := range claims {
		prev, taken := seen[r.TableNumber]
		require.Falsef(t, taken, "table %d claimed by both %s and %s", r.TableNumber, prev, r.ID)
		seen[r.TableNumber] = r.ID
	}
	assert.Len(t, seen, 3)
}

func TestCheckInWindow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})
	ctx := context.Background()
	at := openMonday.Add(2 * time.Hour) // 14:00

	r, err := env.engine.CreateReservation(ctx, guest("g1"), at, 2)
	require.NoError(t, err)

	_, err = env.engine.CheckIn(ctx, r.ConfirmationCode)
	assert.Equal(t, domain.KindTooEarly, domain.KindOf(err))

	env.clock.Advance(100 * time.Minute) // 13:40, inside the early window
	checked, err := env.engine.CheckIn(ctx, r.ConfirmationCode)
	require.NoError(t, err)
	require.NotNil(t, checked.CheckedInAt)
	assert.Equal(t, domain.ReservationActive, checked.Status)

	_, err = env.engine.CheckIn(ctx, r.ConfirmationCode)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
}

func TestCheckInAfterGraceIsTooLate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})
	ctx := context.Background()

	r, err := env.engine.CreateReservation(ctx, guest("g1"), openMonday.Add(2*time.Hour), 2)
	require.NoError(t, err)

	env.clock.Advance(2*time.Hour + 16*time.Minute)
	_, err = env.engine.CheckIn(ctx, r.ConfirmationCode)
	assert.Equal(t, domain.KindTooLate, domain.KindOf(err))
}

func TestCheckInUnknownCode(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})

	_, err := env.engine.CheckIn(context.Background(), "000000")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestCancelReservationAuthorization(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})
	ctx := context.Background()

	r, err := env.engine.CreateReservation(ctx, guest("g1"), openMonday.Add(2*time.Hour), 2)
	require.NoError(t, err)

	_, err = env.engine.CancelReservation(ctx, guest("g2"), r.ConfirmationCode)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	cancelled, err := env.engine.CancelReservation(ctx, guest("g1"), r.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, cancelled.Status)

	_, err = env.engine.CancelReservation(ctx, guest("g1"), r.ConfirmationCode)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err), "cancel of a cancelled reservation misses the active index")
}

func TestCancelReservationFreesTheSlot(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})
	ctx := context.Background()
	at := openMonday.Add(2 * time.Hour)

	r, err := env.engine.CreateReservation(ctx, guest("g1"), at, 2)
	require.NoError(t, err)

	free, err := env.engine.FreeSlotsFor(at, 2)
	require.NoError(t, err)
	assert.Empty(t, free)

	_, err = env.engine.CancelReservation(ctx, staff(), r.ConfirmationCode)
	require.NoError(t, err)

	free, err = env.engine.FreeSlotsFor(at, 2)
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, 1, free[0].Number)
	assert.Contains(t, env.events.actions(), domain.ActionTableFreed)
}

func TestFinishReservationRequiresCheckIn(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})
	ctx := context.Background()

	r, err := env.engine.CreateReservation(ctx, guest("g1"), openMonday.Add(time.Hour), 2)
	require.NoError(t, err)

	_, err = env.engine.FinishReservation(ctx, guest("g1"), r.ConfirmationCode)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = env.engine.FinishReservation(ctx, staff(), r.ConfirmationCode)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))

	env.clock.Advance(45 * time.Minute)
	_, err = env.engine.CheckIn(ctx, r.ConfirmationCode)
	require.NoError(t, err)

	finished, err := env.engine.FinishReservation(ctx, staff(), r.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationFinished, finished.Status)

	free, err := env.engine.FreeSlotsFor(openMonday.Add(time.Hour), 2)
	require.NoError(t, err)
	assert.Len(t, free, 1)
}

func TestExpireOverdueIsIdempotent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})
	ctx := context.Background()
	at := openMonday.Add(2 * time.Hour)

	r, err := env.engine.CreateReservation(ctx, guest("g1"), at, 2)
	require.NoError(t, err)

	deadline := at.Add(16 * time.Minute)
	assert.Equal(t, 0, env.engine.ExpireOverdue(ctx, at.Add(10*time.Minute)), "inside grace nothing expires")
	assert.Equal(t, 1, env.engine.ExpireOverdue(ctx, deadline))
	assert.Equal(t, 0, env.engine.ExpireOverdue(ctx, deadline), "second sweep with the same now is a no-op")

	// The slot is usable again after the expiry.
	free, err := env.engine.FreeSlotsFor(at, 2)
	require.NoError(t, err)
	require.Len(t, free, 1)

	list, err := env.engine.ReservationList(staff())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)
	assert.Equal(t, domain.ReservationCancelled, list[0].Status)
	assert.Contains(t, env.events.actions(), domain.ActionReservationExpired)
}

func TestExpireOverdueSkipsCheckedIn(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})
	ctx := context.Background()
	at := openMonday.Add(time.Hour)

	r, err := env.engine.CreateReservation(ctx, guest("g1"), at, 2)
	require.NoError(t, err)
	env.clock.Advance(45 * time.Minute)
	_, err = env.engine.CheckIn(ctx, r.ConfirmationCode)
	require.NoError(t, err)

	assert.Equal(t, 0, env.engine.ExpireOverdue(ctx, at.Add(time.Hour)))
}

func TestPersistenceFailureSurfacesAsWarning(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})
	env.store.failUpserts = errors.New("connection refused")

	r, err := env.engine.CreateReservation(context.Background(), guest("g1"), openMonday.Add(time.Hour), 2)
	require.Error(t, err)
	assert.Equal(t, domain.KindPersistence, domain.KindOf(err))
	// The mutation applied in memory despite the failed write-through.
	assert.Equal(t, domain.ReservationActive, r.Status)
	free, ferr := env.engine.FreeSlotsFor(openMonday.Add(time.Hour), 2)
	require.NoError(t, ferr)
	assert.Empty(t, free)
}

func TestReservationListRequiresStaff(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})

	_, err := env.engine.ReservationList(guest("g1"))
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestWriteThroughReceivesEveryTransition(t *testing.T) {
	t.Parallel()
	env := newTestEnv(domain.Table{Number: 1, Seats: 4, IsAvailable: true})
	ctx := context.Background()

	r, err := env.engine.CreateReservation(ctx, guest("g1"), openMonday.Add(time.Hour), 2)
	require.NoError(t, err)
	env.clock.Advance(45 * time.Minute)
	_, err = env.engine.CheckIn(ctx, r.ConfirmationCode)
	require.NoError(t, err)
	_, err = env.engine.FinishReservation(ctx, staff(), r.ConfirmationCode)
	require.NoError(t, err)

	upserts := env.store.reservationUpserts()
	require.Len(t, upserts, 3)
	assert.Equal(t, domain.ReservationActive, upserts[0].Status)
	assert.NotNil(t, upserts[1].CheckedInAt)
	assert.Equal(t, domain.ReservationFinished, upserts[2].Status)
}
