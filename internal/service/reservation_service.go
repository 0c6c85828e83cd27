package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/Nouhamk/restau-reservation-flutter/internal/auth"
	"github.com/Nouhamk/restau-reservation-flutter/internal/db"
	"github.com/Nouhamk/restau-reservation-flutter/internal/entities"
	reserr "github.com/Nouhamk/restau-reservation-flutter/internal/errors"
	"github.com/Nouhamk/restau-reservation-flutter/internal/repository"
)

// admissionRetries bounds the internal retry loop on serialization
// conflicts before the failure surfaces as transient.
const admissionRetries = 3

// ReservationStore is the durable reservation collection. InTransaction is
// the only way to read occupancy that a write will depend on.
type ReservationStore interface {
	InTransaction(ctx context.Context, fn func(tx repository.AdmissionTx) error) error
	Occupancy(ctx context.Context, placeID *int, date time.Time, slotTime string) (int, error)
	ListForOwner(ctx context.Context, ownerID int, placeID *int) ([]db.Reservation, error)
	ListForOperator(ctx context.Context, placeID *int) ([]entities.OperatorReservation, error)
}

// SlotStore is the administered slot capacity table.
type SlotStore interface {
	List(ctx context.Context) ([]db.TimeSlot, error)
	CapacityFor(ctx context.Context, slotTime string) (int, error)
	Define(ctx context.Context, slotTime string, capacity int) (*db.TimeSlot, error)
	Remove(ctx context.Context, slotTime string) error
}

// ReservationService is the admission engine: it decides whether a new or
// modified reservation fits within a slot's capacity and commits it if so,
// and it drives the reservation lifecycle.
type ReservationService struct {
	store    ReservationStore
	slots    SlotStore
	notifier Notifier
}

func NewReservationService(store ReservationStore, slots SlotStore, notifier Notifier) *ReservationService {
	return &ReservationService{store: store, slots: slots, notifier: notifier}
}

// CreateReservation admits a new reservation against current slot capacity.
// The occupancy read and the insert run in one transaction serialized on
// the slot row, so two racing requests can never jointly overbook a slot.
func (s *ReservationService) CreateReservation(ctx context.Context, actor auth.Identity, req entities.ReservationRequest) (*entities.ReservationResponse, error) {
	date, slotTime, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	var created *db.Reservation
	err = s.admit(ctx, func(tx repository.AdmissionTx) error {
		capacity, err := tx.LockSlotCapacity(ctx, slotTime)
		if err != nil {
			return err
		}
		occupied, err := tx.SumGuests(ctx, req.PlaceID, date, slotTime, 0)
		if err != nil {
			return err
		}
		if occupied+req.Guests > capacity {
			return &reserr.CapacityExceededError{Available: capacity - occupied}
		}

		res := &db.Reservation{
			UserID:   actor.UserID,
			Date:     date,
			SlotTime: slotTime,
			Guests:   req.Guests,
			Status:   StatusPending,
		}
		if req.PlaceID != nil {
			res.PlaceID = sql.NullInt64{Int64: int64(*req.PlaceID), Valid: true}
		}
		if req.Notes != "" {
			res.Notes = sql.NullString{String: req.Notes, Valid: true}
		}
		if err := tx.Insert(ctx, res); err != nil {
			return err
		}
		created = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := repository.ToResponse(created)
	s.notifier.NotifyCreated(resp)
	return &resp, nil
}

// UpdateReservation re-admits the owner's reservation with new content
// fields. The reservation's own party size is excluded from the occupancy
// sum so growing or shrinking a party is judged on the delta, not twice.
func (s *ReservationService) UpdateReservation(ctx context.Context, actor auth.Identity, id int, req entities.ReservationRequest) (*entities.ReservationResponse, error) {
	date, slotTime, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	var updated *db.Reservation
	err = s.admit(ctx, func(tx repository.AdmissionTx) error {
		res, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if res.UserID != actor.UserID {
			return reserr.ErrForbidden
		}
		if !IsOccupying(res.Status) {
			return reserr.ErrInvalidStatus
		}

		capacity, err := tx.LockSlotCapacity(ctx, slotTime)
		if err != nil {
			return err
		}
		var placeID *int
		if res.PlaceID.Valid {
			p := int(res.PlaceID.Int64)
			placeID = &p
		}
		occupied, err := tx.SumGuests(ctx, placeID, date, slotTime, res.ID)
		if err != nil {
			return err
		}
		if occupied+req.Guests > capacity {
			return &reserr.CapacityExceededError{Available: capacity - occupied}
		}

		res.Date = date
		res.SlotTime = slotTime
		res.Guests = req.Guests
		res.Notes = sql.NullString{String: req.Notes, Valid: req.Notes != ""}
		if err := tx.Update(ctx, res); err != nil {
			return err
		}
		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := repository.ToResponse(updated)
	return &resp, nil
}

// CancelReservation cancels the owner's reservation. Cancelling an already
// cancelled reservation succeeds without releasing capacity twice.
func (s *ReservationService) CancelReservation(ctx context.Context, actor auth.Identity, id int) (*entities.ReservationResponse, error) {
	res, _, err := s.transition(ctx, actor, id, StatusCancelled)
	if err != nil {
		return nil, err
	}
	resp := repository.ToResponse(res)
	return &resp, nil
}

// SetStatus applies an operator status decision and returns the previous
// and new status. Operators confirm, reject or cancel; content fields stay
// owner-only.
func (s *ReservationService) SetStatus(ctx context.Context, actor auth.Identity, id int, newStatus string) (*entities.StatusChange, error) {
	if !actor.IsOperator() {
		return nil, reserr.ErrForbidden
	}
	res, previous, err := s.transition(ctx, actor, id, newStatus)
	if err != nil {
		return nil, err
	}
	return &entities.StatusChange{
		ReservationID:  res.ID,
		PreviousStatus: previous,
		NewStatus:      res.Status,
	}, nil
}

// transition moves a reservation to target under the lifecycle rules. The
// status change event is dispatched only after the commit, and only when
// the status actually changed.
func (s *ReservationService) transition(ctx context.Context, actor auth.Identity, id int, target string) (*db.Reservation, string, error) {
	var updated *db.Reservation
	var previous string
	err := s.admit(ctx, func(tx repository.AdmissionTx) error {
		res, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := CanTransition(res.Status, target, actor, res.UserID); err != nil {
			return err
		}
		previous = res.Status
		if res.Status == target {
			updated = res
			return nil
		}
		if err := tx.SetStatus(ctx, res.ID, target); err != nil {
			return err
		}
		res.Status = target
		updated = res
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	if previous != updated.Status {
		s.notifier.NotifyStatusChanged(updated.UserID, entities.StatusChange{
			ReservationID:  updated.ID,
			PreviousStatus: previous,
			NewStatus:      updated.Status,
		})
	}
	return updated, previous, nil
}

// CheckAvailability reports the capacity picture for one slot key. This
// read takes no lock: it never feeds a write.
func (s *ReservationService) CheckAvailability(ctx context.Context, placeID *int, dateStr, timeStr string) (*entities.AvailabilityResponse, error) {
	date, err := parseReservationDate(dateStr)
	if err != nil {
		return nil, err
	}
	slotTime, err := normalizeSlotTime(timeStr)
	if err != nil {
		return nil, err
	}

	capacity, err := s.slots.CapacityFor(ctx, slotTime)
	if err != nil {
		return nil, err
	}
	occupied, err := s.store.Occupancy(ctx, placeID, date, slotTime)
	if err != nil {
		return nil, err
	}
	return &entities.AvailabilityResponse{
		MaxCapacity: capacity,
		Reserved:    occupied,
		Available:   capacity - occupied,
	}, nil
}

// ListForOwner returns the actor's reservations, newest slot first.
func (s *ReservationService) ListForOwner(ctx context.Context, actor auth.Identity, placeID *int) ([]entities.ReservationResponse, error) {
	rows, err := s.store.ListForOwner(ctx, actor.UserID, placeID)
	if err != nil {
		return nil, err
	}
	reservations := make([]entities.ReservationResponse, 0, len(rows))
	for i := range rows {
		reservations = append(reservations, repository.ToResponse(&rows[i]))
	}
	return reservations, nil
}

// ListForOperator returns every reservation with owner contact details.
func (s *ReservationService) ListForOperator(ctx context.Context, actor auth.Identity, placeID *int) ([]entities.OperatorReservation, error) {
	if !actor.IsOperator() {
		return nil, reserr.ErrForbidden
	}
	return s.store.ListForOperator(ctx, placeID)
}

// admit runs fn transactionally, retrying a bounded number of times on
// serialization conflicts before reporting the failure as transient.
func (s *ReservationService) admit(ctx context.Context, fn func(tx repository.AdmissionTx) error) error {
	var err error
	for attempt := 1; attempt <= admissionRetries; attempt++ {
		err = s.store.InTransaction(ctx, fn)
		if err == nil || !repository.IsRetryable(err) {
			return err
		}
		log.Printf("Admission conflict (attempt %d/%d), retrying: %v", attempt, admissionRetries, err)
	}
	return fmt.Errorf("%w: %v", reserr.ErrTransient, err)
}

func validateRequest(req entities.ReservationRequest) (time.Time, string, error) {
	if req.Guests < 1 {
		return time.Time{}, "", fmt.Errorf("%w: guests must be at least 1", reserr.ErrInvalidRequest)
	}
	date, err := parseReservationDate(req.Date)
	if err != nil {
		return time.Time{}, "", err
	}
	slotTime, err := normalizeSlotTime(req.Time)
	if err != nil {
		return time.Time{}, "", err
	}
	return date, slotTime, nil
}

func parseReservationDate(s string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad reservation_date %q", reserr.ErrInvalidRequest, s)
	}
	return date, nil
}

// normalizeSlotTime accepts "19:00" or "19:00:00" and returns the canonical
// "HH:MM:SS" form used as the slot key.
func normalizeSlotTime(s string) (string, error) {
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t.Format("15:04:05"), nil
	}
	if t, err := time.Parse("15:04", s); err == nil {
		return t.Format("15:04:05"), nil
	}
	return "", fmt.Errorf("%w: bad reservation_time %q", reserr.ErrInvalidRequest, s)
}
