package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/schedule"
)

// MySQLStore persists reservations in the reservations table.  It is
// selected when database configuration is present; otherwise the
// service runs on the in-memory store.  Start times are stored as
// minutes after midnight and dates as DATE columns rendered back to
// YYYY-MM-DD strings.  The engine serializes check-then-commit per
// date, so single-statement writes are sufficient here.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore returns a MySQLStore bound to the given database.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// Insert adds a new reservation row.
func (s *MySQLStore) Insert(ctx context.Context, r *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (reference, guest_name, phone, party_size, reservation_date, start_minutes, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		r.Reference, r.Name, r.Phone, r.PartySize, r.Date, int(r.Start), r.CreatedAt.UTC())
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 { // duplicate primary key
		return ErrDuplicateReference
	}
	return err
}

// Get returns a single reservation by reference.
func (s *MySQLStore) Get(ctx context.Context, reference string) (*model.Reservation, error) {
	const q = `SELECT reference, guest_name, phone, party_size,
	                  DATE_FORMAT(reservation_date, '%Y-%m-%d'), start_minutes, created_at
	           FROM reservations WHERE reference = ?`
	return s.scanOne(s.db.QueryRowContext(ctx, q, reference))
}

// Update rewrites the mutable fields of an existing row.
func (s *MySQLStore) Update(ctx context.Context, r *model.Reservation) error {
	const q = `UPDATE reservations
	           SET guest_name = ?, phone = ?, party_size = ?, reservation_date = ?, start_minutes = ?
	           WHERE reference = ?`
	res, err := s.db.ExecContext(ctx, q,
		r.Name, r.Phone, r.PartySize, r.Date, int(r.Start), r.Reference)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 for a no-op update, so confirm the
		// row truly does not exist before reporting not-found.
		if _, err := s.Get(ctx, r.Reference); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a reservation and returns the removed record.
func (s *MySQLStore) Delete(ctx context.Context, reference string) (*model.Reservation, error) {
	r, err := s.Get(ctx, reference)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE reference = ?`, reference); err != nil {
		return nil, err
	}
	return r, nil
}

// ListByDate returns all reservations for a date ordered by start
// time then reference.
func (s *MySQLStore) ListByDate(ctx context.Context, date string) ([]*model.Reservation, error) {
	const q = `SELECT reference, guest_name, phone, party_size,
	                  DATE_FORMAT(reservation_date, '%Y-%m-%d'), start_minutes, created_at
	           FROM reservations
	           WHERE reservation_date = ?
	           ORDER BY start_minutes, reference`
	rows, err := s.db.QueryContext(ctx, q, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Reservation, 0)
	for rows.Next() {
		r, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *MySQLStore) scanOne(row *sql.Row) (*model.Reservation, error) {
	r, err := s.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return r, err
}

func (s *MySQLStore) scanRow(row rowScanner) (*model.Reservation, error) {
	var r model.Reservation
	var phone sql.NullString
	var startMin int
	if err := row.Scan(&r.Reference, &r.Name, &phone, &r.PartySize, &r.Date, &startMin, &r.CreatedAt); err != nil {
		return nil, err
	}
	if phone.Valid {
		p := phone.String
		r.Phone = &p
	}
	r.Start = schedule.TimeOfDay(startMin)
	return &r, nil
}
