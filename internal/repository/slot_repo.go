package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Nouhamk/restau-reservation-flutter/internal/db"
	reserr "github.com/Nouhamk/restau-reservation-flutter/internal/errors"
)

// SlotRepository persists the slot capacity table. Slot times are global
// "HH:MM:SS" keys with a unique constraint on slot_time.
type SlotRepository struct {
	DB *sql.DB
}

func NewSlotRepository(database *sql.DB) *SlotRepository {
	return &SlotRepository{DB: database}
}

func (r *SlotRepository) List(ctx context.Context) ([]db.TimeSlot, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, slot_time, max_capacity FROM time_slots ORDER BY slot_time`)
	if err != nil {
		return nil, fmt.Errorf("error listing time slots: %w", err)
	}
	defer rows.Close()

	var slots []db.TimeSlot
	for rows.Next() {
		var slot db.TimeSlot
		if err := rows.Scan(&slot.ID, &slot.SlotTime, &slot.MaxCapacity); err != nil {
			return nil, fmt.Errorf("error scanning time slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (r *SlotRepository) CapacityFor(ctx context.Context, slotTime string) (int, error) {
	var capacity int
	err := r.DB.QueryRowContext(ctx,
		`SELECT max_capacity FROM time_slots WHERE slot_time = $1`, slotTime,
	).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, reserr.ErrUnknownSlot
		}
		return 0, fmt.Errorf("error querying slot %s: %w", slotTime, err)
	}
	return capacity, nil
}

func (r *SlotRepository) Define(ctx context.Context, slotTime string, capacity int) (*db.TimeSlot, error) {
	slot := db.TimeSlot{SlotTime: slotTime, MaxCapacity: capacity}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO time_slots (slot_time, max_capacity) VALUES ($1, $2) RETURNING id`,
		slotTime, capacity,
	).Scan(&slot.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, reserr.ErrDuplicateSlot
		}
		return nil, fmt.Errorf("error defining slot %s: %w", slotTime, err)
	}
	return &slot, nil
}

func (r *SlotRepository) Remove(ctx context.Context, slotTime string) error {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM time_slots WHERE slot_time = $1`, slotTime)
	if err != nil {
		return fmt.Errorf("error removing slot %s: %w", slotTime, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking removed slot: %w", err)
	}
	if affected == 0 {
		return reserr.ErrNotFound
	}
	return nil
}
