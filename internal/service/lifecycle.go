package service

import (
	"github.com/Nouhamk/restau-reservation-flutter/internal/auth"
	reserr "github.com/Nouhamk/restau-reservation-flutter/internal/errors"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// IsOccupying reports whether a reservation in this status counts toward
// slot capacity. The rule is uniform everywhere: cancelled and rejected
// reservations never occupy seats.
func IsOccupying(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

func validTarget(status string) bool {
	switch status {
	case StatusConfirmed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// CanTransition validates a requested status transition against the
// lifecycle table and the actor's rights over the reservation.
//
//	pending   -> confirmed   operator
//	pending   -> rejected    operator
//	pending   -> cancelled   operator or owner
//	confirmed -> cancelled   operator or owner
//
// Rejected and cancelled are terminal. A transition whose target equals the
// current status is accepted idempotently, whoever could have performed it.
func CanTransition(from, to string, actor auth.Identity, ownerID int) error {
	if !validTarget(to) {
		return reserr.ErrInvalidStatus
	}
	if from == to {
		if actor.IsOperator() || actor.UserID == ownerID {
			return nil
		}
		return reserr.ErrForbidden
	}

	switch {
	case from == StatusPending && (to == StatusConfirmed || to == StatusRejected):
		if !actor.IsOperator() {
			return reserr.ErrForbidden
		}
		return nil
	case from == StatusPending && to == StatusCancelled,
		from == StatusConfirmed && to == StatusCancelled:
		if actor.IsOperator() || actor.UserID == ownerID {
			return nil
		}
		return reserr.ErrForbidden
	default:
		// Leaving a terminal state (e.g. rejected -> confirmed) is illegal.
		return reserr.ErrInvalidStatus
	}
}
