package service

import "github.com/Nouhamk/restau-reservation-flutter/internal/entities"

// Notifier delivers lifecycle events out of band. Implementations run after
// the admitting transaction has committed, must not block the caller and
// must swallow delivery failures: a lost notification never rolls back a
// committed reservation.
type Notifier interface {
	NotifyCreated(res entities.ReservationResponse)
	NotifyStatusChanged(ownerID int, change entities.StatusChange)
	NotifyReminder(res entities.ReservationResponse)
}
