package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nouhamk/restau-reservation-flutter/internal/auth"
	"github.com/Nouhamk/restau-reservation-flutter/internal/db"
	"github.com/Nouhamk/restau-reservation-flutter/internal/entities"
	reserr "github.com/Nouhamk/restau-reservation-flutter/internal/errors"
	"github.com/Nouhamk/restau-reservation-flutter/internal/repository"
)

// memStore is an in-memory ReservationStore and SlotStore. InTransaction
// serializes callers on a mutex, mirroring the slot row lock the Postgres
// implementation takes.
type memStore struct {
	mu     sync.Mutex
	slots  map[string]int
	nextID int
	rows   map[int]*db.Reservation
}

func newMemStore() *memStore {
	return &memStore{slots: map[string]int{}, rows: map[int]*db.Reservation{}}
}

type memTx struct {
	s *memStore
}

func (s *memStore) InTransaction(ctx context.Context, fn func(tx repository.AdmissionTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{s: s})
}

func (t *memTx) LockSlotCapacity(ctx context.Context, slotTime string) (int, error) {
	capacity, ok := t.s.slots[slotTime]
	if !ok {
		return 0, reserr.ErrUnknownSlot
	}
	return capacity, nil
}

func (t *memTx) SumGuests(ctx context.Context, placeID *int, date time.Time, slotTime string, excludeID int) (int, error) {
	return t.s.sumLocked(placeID, date, slotTime, excludeID), nil
}

func (t *memTx) Insert(ctx context.Context, res *db.Reservation) error {
	t.s.nextID++
	res.ID = t.s.nextID
	res.CreatedAt = time.Now()
	res.UpdatedAt = res.CreatedAt
	cp := *res
	t.s.rows[res.ID] = &cp
	return nil
}

func (t *memTx) GetByIDForUpdate(ctx context.Context, id int) (*db.Reservation, error) {
	row, ok := t.s.rows[id]
	if !ok {
		return nil, reserr.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (t *memTx) Update(ctx context.Context, res *db.Reservation) error {
	res.UpdatedAt = time.Now()
	cp := *res
	t.s.rows[res.ID] = &cp
	return nil
}

func (t *memTx) SetStatus(ctx context.Context, id int, status string) error {
	row, ok := t.s.rows[id]
	if !ok {
		return reserr.ErrNotFound
	}
	row.Status = status
	row.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) sumLocked(placeID *int, date time.Time, slotTime string, excludeID int) int {
	total := 0
	for _, row := range s.rows {
		if row.ID == excludeID || !IsOccupying(row.Status) {
			continue
		}
		if !row.Date.Equal(date) || row.SlotTime != slotTime {
			continue
		}
		if placeID != nil && (!row.PlaceID.Valid || row.PlaceID.Int64 != int64(*placeID)) {
			continue
		}
		total += row.Guests
	}
	return total
}

func (s *memStore) Occupancy(ctx context.Context, placeID *int, date time.Time, slotTime string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sumLocked(placeID, date, slotTime, 0), nil
}

func (s *memStore) ListForOwner(ctx context.Context, ownerID int, placeID *int) ([]db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Reservation
	for _, row := range s.rows {
		if row.UserID != ownerID {
			continue
		}
		if placeID != nil && (!row.PlaceID.Valid || row.PlaceID.Int64 != int64(*placeID)) {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].SlotTime > out[j].SlotTime
	})
	return out, nil
}

func (s *memStore) ListForOperator(ctx context.Context, placeID *int) ([]entities.OperatorReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.OperatorReservation
	for _, row := range s.rows {
		if placeID != nil && (!row.PlaceID.Valid || row.PlaceID.Int64 != int64(*placeID)) {
			continue
		}
		out = append(out, entities.OperatorReservation{
			ReservationResponse: repository.ToResponse(row),
			UserName:            "Test User",
			UserEmail:           "user@example.com",
		})
	}
	return out, nil
}

// SlotStore implementation, shared with slot_service_test.go.

func (s *memStore) List(ctx context.Context) ([]db.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var slots []db.TimeSlot
	id := 0
	for slotTime, capacity := range s.slots {
		id++
		slots = append(slots, db.TimeSlot{ID: id, SlotTime: slotTime, MaxCapacity: capacity})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].SlotTime < slots[j].SlotTime })
	return slots, nil
}

func (s *memStore) CapacityFor(ctx context.Context, slotTime string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	capacity, ok := s.slots[slotTime]
	if !ok {
		return 0, reserr.ErrUnknownSlot
	}
	return capacity, nil
}

func (s *memStore) Define(ctx context.Context, slotTime string, capacity int) (*db.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[slotTime]; ok {
		return nil, reserr.ErrDuplicateSlot
	}
	s.slots[slotTime] = capacity
	return &db.TimeSlot{ID: len(s.slots), SlotTime: slotTime, MaxCapacity: capacity}, nil
}

func (s *memStore) Remove(ctx context.Context, slotTime string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[slotTime]; !ok {
		return reserr.ErrNotFound
	}
	delete(s.slots, slotTime)
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	created   []entities.ReservationResponse
	statuses  []entities.StatusChange
	reminders []entities.ReservationResponse
}

func (n *fakeNotifier) NotifyCreated(res entities.ReservationResponse) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, res)
}

func (n *fakeNotifier) NotifyStatusChanged(ownerID int, change entities.StatusChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, change)
}

func (n *fakeNotifier) NotifyReminder(res entities.ReservationResponse) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders = append(n.reminders, res)
}

func newEngine() (*ReservationService, *memStore, *fakeNotifier) {
	store := newMemStore()
	notifier := &fakeNotifier{}
	return NewReservationService(store, store, notifier), store, notifier
}

var (
	client   = auth.Identity{UserID: 7, Role: auth.RoleClient}
	stranger = auth.Identity{UserID: 9, Role: auth.RoleClient}
	host     = auth.Identity{UserID: 2, Role: auth.RoleHost}
)

func request(guests int) entities.ReservationRequest {
	return entities.ReservationRequest{
		Date:   "2025-11-15",
		Time:   "19:00:00",
		Guests: guests,
	}
}

func TestCreateReservation_CapacityScenario(t *testing.T) {
	svc, store, notifier := newEngine()
	store.slots["19:00:00"] = 10
	ctx := context.Background()

	// A: 6 guests fit into an empty slot.
	resA, err := svc.CreateReservation(ctx, client, request(6))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, resA.Status)
	assert.Equal(t, 6, resA.Guests)

	// B: 5 guests do not fit; the error reports 4 seats left.
	_, err = svc.CreateReservation(ctx, stranger, request(5))
	ce, ok := reserr.AsCapacityExceeded(err)
	require.True(t, ok, "expected CapacityExceededError, got %v", err)
	assert.Equal(t, 4, ce.Available)

	// C: 4 guests fill the slot exactly.
	_, err = svc.CreateReservation(ctx, stranger, request(4))
	require.NoError(t, err)

	availability, err := svc.CheckAvailability(ctx, nil, "2025-11-15", "19:00:00")
	require.NoError(t, err)
	assert.Equal(t, 10, availability.MaxCapacity)
	assert.Equal(t, 10, availability.Reserved)
	assert.Equal(t, 0, availability.Available)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Len(t, notifier.created, 2)
}

func TestCreateReservation_UnknownSlot(t *testing.T) {
	svc, _, _ := newEngine()

	_, err := svc.CreateReservation(context.Background(), client, request(2))
	assert.ErrorIs(t, err, reserr.ErrUnknownSlot)
}

func TestCreateReservation_InvalidRequest(t *testing.T) {
	svc, store, _ := newEngine()
	store.slots["19:00:00"] = 10
	ctx := context.Background()

	bad := []entities.ReservationRequest{
		{Date: "2025-11-15", Time: "19:00:00", Guests: 0},
		{Date: "2025-11-15", Time: "19:00:00", Guests: -3},
		{Date: "15/11/2025", Time: "19:00:00", Guests: 2},
		{Date: "2025-11-15", Time: "7pm", Guests: 2},
		{Date: "", Time: "", Guests: 2},
	}
	for _, req := range bad {
		_, err := svc.CreateReservation(ctx, client, req)
		assert.ErrorIs(t, err, reserr.ErrInvalidRequest)
	}
}

func TestCreateReservation_ShortTimeFormat(t *testing.T) {
	svc, store, _ := newEngine()
	store.slots["19:00:00"] = 10

	req := entities.ReservationRequest{Date: "2025-11-15", Time: "19:00", Guests: 2}
	res, err := svc.CreateReservation(context.Background(), client, req)
	require.NoError(t, err)
	assert.Equal(t, "19:00:00", res.Time)
}

func TestCreateReservation_PerPlaceOccupancy(t *testing.T) {
	svc, store, _ := newEngine()
	store.slots["19:00:00"] = 10
	ctx := context.Background()

	placeA, placeB := 1, 2
	reqA := request(8)
	reqA.PlaceID = &placeA

	_, err := svc.CreateReservation(ctx, client, reqA)
	require.NoError(t, err)

	// Place B has its own occupancy for the same slot key.
	reqB := request(8)
	reqB.PlaceID = &placeB
	_, err = svc.CreateReservation(ctx, stranger, reqB)
	require.NoError(t, err)

	reqA2 := request(4)
	reqA2.PlaceID = &placeA
	_, err = svc.CreateReservation(ctx, stranger, reqA2)
	ce, ok := reserr.AsCapacityExceeded(err)
	require.True(t, ok)
	assert.Equal(t, 2, ce.Available)
}

func TestUpdateReservation_ExcludesOwnGuests(t *testing.T) {
	svc, store, _ := newEngine()
	store.slots["19:00:00"] = 10
	ctx := context.Background()

	mine, err := svc.CreateReservation(ctx, client, request(4))
	require.NoError(t, err)
	_, err = svc.CreateReservation(ctx, stranger, request(4))
	require.NoError(t, err)

	// Occupancy is 8 of 10. Growing 4 -> 6 fits because the old size is
	// excluded from the sum (4 from the other party + 6 = 10).
	updated, err := svc.UpdateReservation(ctx, client, mine.ID, request(6))
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Guests)

	// Growing further to 7 exceeds the headroom of 6.
	_, err = svc.UpdateReservation(ctx, client, mine.ID, request(7))
	ce, ok := reserr.AsCapacityExceeded(err)
	require.True(t, ok)
	assert.Equal(t, 6, ce.Available)
}

func TestUpdateReservation_OwnershipAndExistence(t *testing.T) {
	svc, store, _ := newEngine()
	store.slots["19:00:00"] = 10
	ctx := context.Background()

	mine, err := svc.CreateReservation(ctx, client, request(2))
	require.NoError(t, err)

	_, err = svc.UpdateReservation(ctx, stranger, mine.ID, request(3))
	assert.ErrorIs(t, err, reserr.ErrForbidden)

	_, err = svc.UpdateReservation(ctx, client, 999, request(3))
	assert.ErrorIs(t, err, reserr.ErrNotFound)
}

func TestUpdateReservation_TerminalIsImmutable(t *testing.T) {
	svc, store, _ := newEngine()
	store.slots["19:00:00"] = 10
	ctx := context.Background()

	mine, err := svc.CreateReservation(ctx, client, request(2))
	require.NoError(t, err)
	_, err = svc.CancelReservation(ctx, client, mine.ID)
	require.NoError(t, err)

	_, err = svc.UpdateReservation(ctx, client, mine.ID, request(3))
	assert.ErrorIs(t, err, reserr.ErrInvalidStatus)
}

func TestCancelReservation_ReleasesCapacityOnce(t *testing.T) {
	svc, store, notifier := newEngine()
	store.slots["19:00:00"] = 10
	ctx := context.Background()

	resA, err := svc.CreateReservation(ctx, client, request(6))
	require.NoError(t, err)

	cancelled, err := svc.CancelReservation(ctx, client, resA.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	availability, err := svc.CheckAvailability(ctx, nil, "2025-11-15", "19:00:00")
	require.NoError(t, err)
	assert.Equal(t, 10, availability.Available)

	// Cancelling again succeeds without another event or occupancy change.
	again, err := svc.CancelReservation(ctx, client, resA.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, again.Status)

	notifier.mu.Lock()
	assert.Len(t, notifier.statuses, 1)
	notifier.mu.Unlock()

	// The freed seats are reusable.
	_, err = svc.CreateReservation(ctx, stranger, request(6))
	require.NoError(t, err)
}

func TestSetStatus_ConfirmKeepsOccupancy(t *testing.T) {
	svc, store, notifier := newEngine()
	store.slots["19:00:00"] = 10
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, client, request(6))
	require.NoError(t, err)

	change, err := svc.SetStatus(ctx, host, res.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, change.PreviousStatus)
	assert.Equal(t, StatusConfirmed, change.NewStatus)

	availability, err := svc.CheckAvailability(ctx, nil, "2025-11-15", "19:00:00")
	require.NoError(t, err)
	assert.Equal(t, 6, availability.Reserved)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.statuses, 1)
	assert.Equal(t, res.ID, notifier.statuses[0].ReservationID)
}

func TestSetStatus_RequiresOperator(t *testing.T) {
	svc, store, _ := newEngine()
	store.slots["19:00:00"] = 10
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, client, request(2))
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, client, res.ID, StatusConfirmed)
	assert.ErrorIs(t, err, reserr.ErrForbidden)
}

func TestSetStatus_TerminalStatesStay(t *testing.T) {
	svc, store, _ := newEngine()
	store.slots["19:00:00"] = 10
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, client, request(2))
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, host, res.ID, StatusRejected)
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, host, res.ID, StatusConfirmed)
	assert.ErrorIs(t, err, reserr.ErrInvalidStatus)

	// Repeating the rejection is an idempotent no-op.
	change, err := svc.SetStatus(ctx, host, res.ID, StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, change.PreviousStatus)
	assert.Equal(t, StatusRejected, change.NewStatus)
}

func TestConcurrentAdmissions_NeverOverbook(t *testing.T) {
	svc, store, _ := newEngine()
	store.slots["19:00:00"] = 10
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted, rejected := 0, 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			actor := auth.Identity{UserID: userID, Role: auth.RoleClient}
			_, err := svc.CreateReservation(ctx, actor, request(3))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				admitted++
				return
			}
			_, ok := reserr.AsCapacityExceeded(err)
			assert.True(t, ok, "unexpected error: %v", err)
			rejected++
		}(100 + i)
	}
	wg.Wait()

	// Three parties of 3 fit in 10 seats; a fourth would need 12.
	assert.Equal(t, 3, admitted)
	assert.Equal(t, attempts-3, rejected)

	availability, err := svc.CheckAvailability(ctx, nil, "2025-11-15", "19:00:00")
	require.NoError(t, err)
	assert.Equal(t, 9, availability.Reserved)
}

func TestListForOwner_Ordering(t *testing.T) {
	svc, store, _ := newEngine()
	store.slots["19:00:00"] = 50
	store.slots["12:00:00"] = 50
	ctx := context.Background()

	mk := func(date, slot string) {
		_, err := svc.CreateReservation(ctx, client, entities.ReservationRequest{
			Date: date, Time: slot, Guests: 2,
		})
		require.NoError(t, err)
	}
	mk("2025-11-14", "19:00:00")
	mk("2025-11-15", "12:00:00")
	mk("2025-11-15", "19:00:00")

	reservations, err := svc.ListForOwner(ctx, client, nil)
	require.NoError(t, err)
	require.Len(t, reservations, 3)
	assert.Equal(t, "2025-11-15", reservations[0].Date)
	assert.Equal(t, "19:00:00", reservations[0].Time)
	assert.Equal(t, "2025-11-15", reservations[1].Date)
	assert.Equal(t, "12:00:00", reservations[1].Time)
	assert.Equal(t, "2025-11-14", reservations[2].Date)
}

func TestListForOperator_RequiresOperator(t *testing.T) {
	svc, _, _ := newEngine()

	_, err := svc.ListForOperator(context.Background(), client, nil)
	assert.ErrorIs(t, err, reserr.ErrForbidden)
}

func TestCheckAvailability_UnknownSlot(t *testing.T) {
	svc, _, _ := newEngine()

	_, err := svc.CheckAvailability(context.Background(), nil, "2025-11-15", "23:30:00")
	assert.ErrorIs(t, err, reserr.ErrUnknownSlot)
}
