package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	reserr "github.com/Nouhamk/restau-reservation-flutter/internal/errors"
)

// Contact is what the notification dispatcher needs to reach a user.
type Contact struct {
	Name  string
	Email string
	Phone string
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(database *sql.DB) *UserRepository {
	return &UserRepository{DB: database}
}

func (r *UserRepository) ContactFor(ctx context.Context, userID int) (*Contact, error) {
	var c Contact
	var phone sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT name, email, phone FROM users WHERE id = $1`, userID,
	).Scan(&c.Name, &c.Email, &phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reserr.ErrNotFound
		}
		return nil, fmt.Errorf("error querying user %d: %w", userID, err)
	}
	c.Phone = phone.String
	return &c, nil
}
