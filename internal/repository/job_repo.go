package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Nouhamk/restau-reservation-flutter/internal/db"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// UpcomingReservations returns occupying reservations starting today within
// the next windowMinutes that have not been reminded yet.
func (r *JobRepository) UpcomingReservations(ctx context.Context, windowMinutes int) ([]db.Reservation, error) {
	query := `
		SELECT id, user_id, place_id, reservation_date, reservation_time, guests, notes, status, created_at, updated_at
		FROM reservations
		WHERE status IN ` + occupyingStatuses + `
		  AND reminded_at IS NULL
		  AND reservation_date = CURRENT_DATE
		  AND reservation_time BETWEEN CURRENT_TIME AND CURRENT_TIME + make_interval(mins => $1)`

	rows, err := r.DB.QueryContext(ctx, query, windowMinutes)
	if err != nil {
		return nil, fmt.Errorf("error querying upcoming reservations: %w", err)
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

// MarkReminded records that reminders were dispatched for the given ids so
// the next job run does not send them again.
func (r *JobRepository) MarkReminded(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE reservations SET reminded_at = NOW() WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error marking reservations reminded: %w", err)
	}
	return nil
}
