package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"mesaYaCore/internal/modules/restaurant/domain"
)

// MySQLStore is the durable write-through store behind the engine. The engine
// holds the authoritative state; these queries only have to keep the database
// eventually consistent with it, so every upsert is idempotent.
type MySQLStore struct {
	db *sqlx.DB
}

func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) LoadTables(ctx context.Context) ([]domain.Table, error) {
	var tables []domain.Table
	err := s.db.SelectContext(ctx, &tables,
		`SELECT table_number, seats_amount, is_available FROM tables ORDER BY table_number`)
	if err != nil {
		return nil, fmt.Errorf("select tables: %w", err)
	}
	return tables, nil
}

func (s *MySQLStore) UpsertTable(ctx context.Context, t domain.Table) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tables (table_number, seats_amount, is_available) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE seats_amount = VALUES(seats_amount), is_available = VALUES(is_available)`,
		t.Number, t.Seats, t.IsAvailable)
	if err != nil {
		return fmt.Errorf("upsert table %d: %w", t.Number, err)
	}
	return nil
}

func (s *MySQLStore) DeleteTable(ctx context.Context, number int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tables WHERE table_number = ?`, number); err != nil {
		return fmt.Errorf("delete table %d: %w", number, err)
	}
	return nil
}

type reservationRow struct {
	ID               string        `db:"reservation_id"`
	ConfirmationCode string        `db:"confirmation_code"`
	CreatedByUserID  string        `db:"created_by_user_id"`
	CreatedByRole    string        `db:"created_by_role"`
	ReservationTime  time.Time     `db:"reservation_time"`
	Guests           int           `db:"guest_amount"`
	TableNumber      sql.NullInt64 `db:"table_number"`
	Status           string        `db:"status"`
	CheckedInAt      sql.NullTime  `db:"checked_in_at"`
	CreatedAt        time.Time     `db:"created_at"`
}

func (s *MySQLStore) LoadReservations(ctx context.Context) ([]domain.Reservation, error) {
	var rows []reservationRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT reservation_id, confirmation_code, created_by_user_id, created_by_role,
		        reservation_time, guest_amount, table_number, status, checked_in_at, created_at
		 FROM reservations ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select reservations: %w", err)
	}
	out := make([]domain.Reservation, 0, len(rows))
	for _, row := range rows {
		r := domain.Reservation{
			ID:               row.ID,
			ConfirmationCode: row.ConfirmationCode,
			CreatedByUserID:  row.CreatedByUserID,
			CreatedByRole:    row.CreatedByRole,
			ReservationTime:  row.ReservationTime,
			Guests:           row.Guests,
			Status:           domain.ReservationStatus(row.Status),
			CreatedAt:        row.CreatedAt,
		}
		if row.TableNumber.Valid {
			r.TableNumber = int(row.TableNumber.Int64)
		}
		if row.CheckedInAt.Valid {
			checkedIn := row.CheckedInAt.Time
			r.CheckedInAt = &checkedIn
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *MySQLStore) UpsertReservation(ctx context.Context, r domain.Reservation) error {
	var checkedIn any
	if r.CheckedInAt != nil {
		checkedIn = r.CheckedInAt.UTC()
	}
	var table any
	if r.TableNumber > 0 {
		table = r.TableNumber
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reservations
		   (reservation_id, confirmation_code, created_by_user_id, created_by_role,
		    reservation_time, guest_amount, table_number, status, checked_in_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		   confirmation_code = VALUES(confirmation_code),
		   table_number = VALUES(table_number),
		   status = VALUES(status),
		   checked_in_at = VALUES(checked_in_at)`,
		r.ID, r.ConfirmationCode, r.CreatedByUserID, r.CreatedByRole,
		r.ReservationTime.UTC(), r.Guests, table, string(r.Status), checkedIn, r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert reservation %s: %w", r.ID, err)
	}
	return nil
}

type waitingRow struct {
	ID               string        `db:"waiting_id"`
	ConfirmationCode string        `db:"confirmation_code"`
	CreatedByUserID  string        `db:"created_by_user_id"`
	CreatedByRole    string        `db:"created_by_role"`
	Guests           int           `db:"guest_amount"`
	TableFreedTime   sql.NullTime  `db:"table_freed_time"`
	TableNumber      sql.NullInt64 `db:"table_number"`
	Status           string        `db:"status"`
	CreatedAt        time.Time     `db:"created_at"`
}

func (s *MySQLStore) LoadWaiting(ctx context.Context) ([]domain.WaitingEntry, error) {
	var rows []waitingRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT waiting_id, confirmation_code, created_by_user_id, created_by_role,
		        guest_amount, table_freed_time, table_number, status, created_at
		 FROM waiting_entries ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select waiting entries: %w", err)
	}
	out := make([]domain.WaitingEntry, 0, len(rows))
	for _, row := range rows {
		w := domain.WaitingEntry{
			ID:               row.ID,
			ConfirmationCode: row.ConfirmationCode,
			CreatedByUserID:  row.CreatedByUserID,
			CreatedByRole:    row.CreatedByRole,
			Guests:           row.Guests,
			Status:           domain.WaitingStatus(row.Status),
			CreatedAt:        row.CreatedAt,
		}
		if row.TableFreedTime.Valid {
			freed := row.TableFreedTime.Time
			w.TableFreedTime = &freed
		}
		if row.TableNumber.Valid {
			w.TableNumber = int(row.TableNumber.Int64)
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *MySQLStore) UpsertWaiting(ctx context.Context, w domain.WaitingEntry) error {
	var freed any
	if w.TableFreedTime != nil {
		freed = w.TableFreedTime.UTC()
	}
	var table any
	if w.TableNumber > 0 {
		table = w.TableNumber
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO waiting_entries
		   (waiting_id, confirmation_code, created_by_user_id, created_by_role,
		    guest_amount, table_freed_time, table_number, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		   confirmation_code = VALUES(confirmation_code),
		   table_freed_time = VALUES(table_freed_time),
		   table_number = VALUES(table_number),
		   status = VALUES(status)`,
		w.ID, w.ConfirmationCode, w.CreatedByUserID, w.CreatedByRole,
		w.Guests, freed, table, string(w.Status), w.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert waiting entry %s: %w", w.ID, err)
	}
	return nil
}

type openingHoursRow struct {
	Day   string `db:"day_of_week"`
	Open  string `db:"open_time"`
	Close string `db:"close_time"`
}

func (s *MySQLStore) LoadOpeningHours(ctx context.Context) (domain.OpeningHours, error) {
	var rows []openingHoursRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT day_of_week, open_time, close_time FROM opening_hours`)
	if err != nil {
		return nil, fmt.Errorf("select opening hours: %w", err)
	}
	hours := make(domain.OpeningHours, len(rows))
	for _, row := range rows {
		day := domain.NormalizeDay(row.Day)
		if day == "" {
			continue
		}
		hours[day] = domain.Schedule{Open: row.Open, Close: row.Close}
	}
	return hours, nil
}

func (s *MySQLStore) UpsertOpeningHours(ctx context.Context, day domain.DayOfWeek, sched domain.Schedule) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO opening_hours (day_of_week, open_time, close_time) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE open_time = VALUES(open_time), close_time = VALUES(close_time)`,
		string(day), sched.Open, sched.Close)
	if err != nil {
		return fmt.Errorf("upsert opening hours %s: %w", day, err)
	}
	return nil
}
