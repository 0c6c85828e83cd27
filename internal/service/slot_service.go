package service

import (
	"context"
	"fmt"

	"github.com/Nouhamk/restau-reservation-flutter/internal/db"
	reserr "github.com/Nouhamk/restau-reservation-flutter/internal/errors"
)

// SlotService administers the slot capacity table. Slots are global
// time-of-day buckets; no two slots may share a time.
type SlotService struct {
	slots SlotStore
}

func NewSlotService(slots SlotStore) *SlotService {
	return &SlotService{slots: slots}
}

func (s *SlotService) List(ctx context.Context) ([]db.TimeSlot, error) {
	return s.slots.List(ctx)
}

func (s *SlotService) Define(ctx context.Context, slotTime string, capacity int) (*db.TimeSlot, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1", reserr.ErrInvalidRequest)
	}
	normalized, err := normalizeSlotTime(slotTime)
	if err != nil {
		return nil, err
	}
	return s.slots.Define(ctx, normalized, capacity)
}

func (s *SlotService) Remove(ctx context.Context, slotTime string) error {
	normalized, err := normalizeSlotTime(slotTime)
	if err != nil {
		return err
	}
	return s.slots.Remove(ctx, normalized)
}
