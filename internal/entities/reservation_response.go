package entities

import "time"

type ReservationResponse struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PlaceID   *int      `json:"place_id,omitempty"`
	Date      string    `json:"reservation_date"`
	Time      string    `json:"reservation_time"`
	Guests    int       `json:"guests"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OperatorReservation is the operator-facing projection: the reservation
// joined with the owner's identity and contact details.
type OperatorReservation struct {
	ReservationResponse
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	UserPhone string `json:"user_phone,omitempty"`
}
