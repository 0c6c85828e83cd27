package db

import (
	"database/sql"
	"time"
)

type Reservation struct {
	ID        int
	UserID    int
	PlaceID   sql.NullInt64
	Date      time.Time
	SlotTime  string
	Guests    int
	Notes     sql.NullString
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TimeSlot struct {
	ID          int
	SlotTime    string
	MaxCapacity int
}

type Place struct {
	ID       int
	Name     string
	Address  sql.NullString
	Phone    sql.NullString
	Capacity int
}
