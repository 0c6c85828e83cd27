package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Nouhamk/restau-reservation-flutter/internal/db"
	reserr "github.com/Nouhamk/restau-reservation-flutter/internal/errors"
)

type PlaceRepository struct {
	DB *sql.DB
}

func NewPlaceRepository(database *sql.DB) *PlaceRepository {
	return &PlaceRepository{DB: database}
}

func (r *PlaceRepository) List(ctx context.Context) ([]db.Place, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, address, phone, capacity FROM places ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error listing places: %w", err)
	}
	defer rows.Close()

	var places []db.Place
	for rows.Next() {
		var p db.Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.Capacity); err != nil {
			return nil, fmt.Errorf("error scanning place: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func (r *PlaceRepository) Get(ctx context.Context, id int) (*db.Place, error) {
	var p db.Place
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, address, phone, capacity FROM places WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.Capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reserr.ErrNotFound
		}
		return nil, fmt.Errorf("error querying place %d: %w", id, err)
	}
	return &p, nil
}

func (r *PlaceRepository) Create(ctx context.Context, p *db.Place) error {
	return r.DB.QueryRowContext(ctx,
		`INSERT INTO places (name, address, phone, capacity) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Name, p.Address, p.Phone, p.Capacity,
	).Scan(&p.ID)
}

func (r *PlaceRepository) Update(ctx context.Context, p *db.Place) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE places SET name = $1, address = $2, phone = $3, capacity = $4 WHERE id = $5`,
		p.Name, p.Address, p.Phone, p.Capacity, p.ID)
	if err != nil {
		return fmt.Errorf("error updating place %d: %w", p.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking updated place: %w", err)
	}
	if affected == 0 {
		return reserr.ErrNotFound
	}
	return nil
}

func (r *PlaceRepository) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting place %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted place: %w", err)
	}
	if affected == 0 {
		return reserr.ErrNotFound
	}
	return nil
}
