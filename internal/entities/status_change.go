package entities

// StatusChange describes a committed lifecycle transition. It is returned by
// the status endpoint and handed to the notification dispatcher.
type StatusChange struct {
	ReservationID  int    `json:"reservationId"`
	PreviousStatus string `json:"oldStatus"`
	NewStatus      string `json:"newStatus"`
}
