package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats are the global counters shown on the operator dashboard.
type Stats struct {
	Restaurants  int `json:"restaurants"`
	Clients      int `json:"clients"`
	Hosts        int `json:"hosts"`
	Reservations int `json:"reservations"`
}

type AdminRepository struct {
	DB *sql.DB
}

func NewAdminRepository(database *sql.DB) *AdminRepository {
	return &AdminRepository{DB: database}
}

func (r *AdminRepository) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM places`, &stats.Restaurants},
		{`SELECT COUNT(*) FROM users WHERE role = 'client'`, &stats.Clients},
		{`SELECT COUNT(*) FROM users WHERE role = 'host'`, &stats.Hosts},
		{`SELECT COUNT(*) FROM reservations`, &stats.Reservations},
	}
	for _, q := range queries {
		if err := r.DB.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("error counting stats: %w", err)
		}
	}
	return &stats, nil
}
