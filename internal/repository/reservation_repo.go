package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Nouhamk/restau-reservation-flutter/internal/db"
	"github.com/Nouhamk/restau-reservation-flutter/internal/entities"
	reserr "github.com/Nouhamk/restau-reservation-flutter/internal/errors"
)

// occupyingStatuses is the uniform occupancy rule: pending and confirmed
// count toward a slot's capacity, cancelled and rejected never do.
const occupyingStatuses = `('pending', 'confirmed')`

// AdmissionTx is the write-side surface of a single admission transaction.
// Every read made through it is serialized against concurrent admissions on
// the same slot by the row lock taken in LockSlotCapacity.
type AdmissionTx interface {
	LockSlotCapacity(ctx context.Context, slotTime string) (int, error)
	SumGuests(ctx context.Context, placeID *int, date time.Time, slotTime string, excludeID int) (int, error)
	Insert(ctx context.Context, res *db.Reservation) error
	GetByIDForUpdate(ctx context.Context, id int) (*db.Reservation, error)
	Update(ctx context.Context, res *db.Reservation) error
	SetStatus(ctx context.Context, id int, status string) error
}

type ReservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(database *sql.DB) *ReservationRepository {
	return &ReservationRepository{DB: database}
}

// InTransaction runs fn inside a single database transaction. The
// transaction is rolled back if fn returns an error and committed otherwise.
func (r *ReservationRepository) InTransaction(ctx context.Context, fn func(tx AdmissionTx) error) error {
	sqlTx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	if err := fn(&Tx{tx: sqlTx}); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("error committing admission: %w", err)
	}
	return nil
}

// IsRetryable reports whether err is a serialization failure or deadlock
// that a fresh transaction may resolve.
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

// Tx implements AdmissionTx over a *sql.Tx.
type Tx struct {
	tx *sql.Tx
}

// LockSlotCapacity resolves the capacity for slotTime and locks the slot
// row, serializing every concurrent admission that touches the same slot.
func (t *Tx) LockSlotCapacity(ctx context.Context, slotTime string) (int, error) {
	var capacity int
	err := t.tx.QueryRowContext(ctx,
		`SELECT max_capacity FROM time_slots WHERE slot_time = $1 FOR UPDATE`,
		slotTime,
	).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, reserr.ErrUnknownSlot
		}
		return 0, fmt.Errorf("error locking slot %s: %w", slotTime, err)
	}
	return capacity, nil
}

// SumGuests computes the committed occupancy for the given key, excluding
// the reservation with id excludeID so an update never double-counts its
// own prior size. Pass excludeID 0 for creations.
func (t *Tx) SumGuests(ctx context.Context, placeID *int, date time.Time, slotTime string, excludeID int) (int, error) {
	query := `
		SELECT COALESCE(SUM(guests), 0)
		FROM reservations
		WHERE reservation_date = $1 AND reservation_time = $2
		  AND status IN ` + occupyingStatuses + `
		  AND id <> $3`
	args := []interface{}{date, slotTime, excludeID}
	if placeID != nil {
		query += ` AND place_id = $4`
		args = append(args, *placeID)
	}

	var total int
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error summing occupancy: %w", err)
	}
	return total, nil
}

func (t *Tx) Insert(ctx context.Context, res *db.Reservation) error {
	query := `
		INSERT INTO reservations
		(user_id, place_id, reservation_date, reservation_time, guests, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	return t.tx.QueryRowContext(ctx, query,
		res.UserID,
		res.PlaceID,
		res.Date,
		res.SlotTime,
		res.Guests,
		res.Notes,
		res.Status,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
}

func (t *Tx) GetByIDForUpdate(ctx context.Context, id int) (*db.Reservation, error) {
	var res db.Reservation
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, user_id, place_id, reservation_date, reservation_time, guests, notes, status, created_at, updated_at
		FROM reservations WHERE id = $1 FOR UPDATE`, id,
	).Scan(
		&res.ID, &res.UserID, &res.PlaceID, &res.Date, &res.SlotTime,
		&res.Guests, &res.Notes, &res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reserr.ErrNotFound
		}
		return nil, fmt.Errorf("error querying reservation %d: %w", id, err)
	}
	return &res, nil
}

func (t *Tx) Update(ctx context.Context, res *db.Reservation) error {
	query := `
		UPDATE reservations
		SET reservation_date = $1, reservation_time = $2, guests = $3, notes = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`
	return t.tx.QueryRowContext(ctx, query,
		res.Date, res.SlotTime, res.Guests, res.Notes, res.ID,
	).Scan(&res.UpdatedAt)
}

func (t *Tx) SetStatus(ctx context.Context, id int, status string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("error updating reservation %d status: %w", id, err)
	}
	return nil
}

// Occupancy is the lock-free occupancy read used by availability checks. It
// must never feed a write; admissions recompute under LockSlotCapacity.
func (r *ReservationRepository) Occupancy(ctx context.Context, placeID *int, date time.Time, slotTime string) (int, error) {
	query := `
		SELECT COALESCE(SUM(guests), 0)
		FROM reservations
		WHERE reservation_date = $1 AND reservation_time = $2
		  AND status IN ` + occupyingStatuses
	args := []interface{}{date, slotTime}
	if placeID != nil {
		query += ` AND place_id = $3`
		args = append(args, *placeID)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error reading occupancy: %w", err)
	}
	return total, nil
}

func (r *ReservationRepository) ListForOwner(ctx context.Context, ownerID int, placeID *int) ([]db.Reservation, error) {
	query := `
		SELECT id, user_id, place_id, reservation_date, reservation_time, guests, notes, status, created_at, updated_at
		FROM reservations WHERE user_id = $1`
	args := []interface{}{ownerID}
	if placeID != nil {
		query += ` AND place_id = $2`
		args = append(args, *placeID)
	}
	query += ` ORDER BY reservation_date DESC, reservation_time DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing reservations: %w", err)
	}
	defer rows.Close()

	var reservations []db.Reservation
	for rows.Next() {
		var res db.Reservation
		if err := rows.Scan(
			&res.ID, &res.UserID, &res.PlaceID, &res.Date, &res.SlotTime,
			&res.Guests, &res.Notes, &res.Status, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

// ListForOperator returns every reservation joined with the owner's contact
// details, optionally scoped to one place.
func (r *ReservationRepository) ListForOperator(ctx context.Context, placeID *int) ([]entities.OperatorReservation, error) {
	query := `
		SELECT r.id, r.user_id, r.place_id, r.reservation_date, r.reservation_time,
		       r.guests, r.notes, r.status, r.created_at, r.updated_at,
		       u.name, u.email, u.phone
		FROM reservations r
		JOIN users u ON r.user_id = u.id`
	args := []interface{}{}
	if placeID != nil {
		query += ` WHERE r.place_id = $1`
		args = append(args, *placeID)
	}
	query += ` ORDER BY r.reservation_date DESC, r.reservation_time DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing reservations for operator: %w", err)
	}
	defer rows.Close()

	var reservations []entities.OperatorReservation
	for rows.Next() {
		var res db.Reservation
		var op entities.OperatorReservation
		var phone sql.NullString
		if err := rows.Scan(
			&res.ID, &res.UserID, &res.PlaceID, &res.Date, &res.SlotTime,
			&res.Guests, &res.Notes, &res.Status, &res.CreatedAt, &res.UpdatedAt,
			&op.UserName, &op.UserEmail, &phone,
		); err != nil {
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		op.ReservationResponse = ToResponse(&res)
		op.UserPhone = phone.String
		reservations = append(reservations, op)
	}
	return reservations, rows.Err()
}

// ToResponse converts a stored row into the caller-facing shape.
func ToResponse(res *db.Reservation) entities.ReservationResponse {
	resp := entities.ReservationResponse{
		ID:        res.ID,
		UserID:    res.UserID,
		Date:      res.Date.Format("2006-01-02"),
		Time:      res.SlotTime,
		Guests:    res.Guests,
		Notes:     res.Notes.String,
		Status:    res.Status,
		CreatedAt: res.CreatedAt,
		UpdatedAt: res.UpdatedAt,
	}
	if res.PlaceID.Valid {
		placeID := int(res.PlaceID.Int64)
		resp.PlaceID = &placeID
	}
	return resp
}
