package entities

// ReservationRequest carries the client-supplied fields for creating or
// updating a reservation. Date is "2006-01-02", Time is "15:04" or
// "15:04:05" and must match an administered slot.
type ReservationRequest struct {
	PlaceID *int   `json:"place_id,omitempty"`
	Date    string `json:"reservation_date"`
	Time    string `json:"reservation_time"`
	Guests  int    `json:"guests"`
	Notes   string `json:"notes,omitempty"`
}
