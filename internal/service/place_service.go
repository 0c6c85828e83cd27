package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Nouhamk/restau-reservation-flutter/internal/db"
	"github.com/Nouhamk/restau-reservation-flutter/internal/entities"
	reserr "github.com/Nouhamk/restau-reservation-flutter/internal/errors"
	"github.com/Nouhamk/restau-reservation-flutter/internal/repository"
)

// defaultPlaceCapacity is the advisory capacity hint applied when a place
// is created without one. The authoritative ceiling is always the slot's.
const defaultPlaceCapacity = 50

type PlaceService struct {
	Repo *repository.PlaceRepository
}

func NewPlaceService(repo *repository.PlaceRepository) *PlaceService {
	return &PlaceService{Repo: repo}
}

func (s *PlaceService) List(ctx context.Context) ([]entities.PlaceResponse, error) {
	places, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entities.PlaceResponse, 0, len(places))
	for i := range places {
		out = append(out, toPlaceResponse(&places[i]))
	}
	return out, nil
}

func (s *PlaceService) Get(ctx context.Context, id int) (*entities.PlaceResponse, error) {
	place, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toPlaceResponse(place)
	return &resp, nil
}

func (s *PlaceService) Create(ctx context.Context, req entities.PlaceRequest) (*entities.PlaceResponse, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", reserr.ErrInvalidRequest)
	}
	place := placeFromRequest(req)
	if err := s.Repo.Create(ctx, place); err != nil {
		return nil, err
	}
	resp := toPlaceResponse(place)
	return &resp, nil
}

func (s *PlaceService) Update(ctx context.Context, id int, req entities.PlaceRequest) (*entities.PlaceResponse, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", reserr.ErrInvalidRequest)
	}
	place := placeFromRequest(req)
	place.ID = id
	if err := s.Repo.Update(ctx, place); err != nil {
		return nil, err
	}
	resp := toPlaceResponse(place)
	return &resp, nil
}

func (s *PlaceService) Delete(ctx context.Context, id int) error {
	return s.Repo.Delete(ctx, id)
}

func placeFromRequest(req entities.PlaceRequest) *db.Place {
	place := &db.Place{
		Name:     req.Name,
		Address:  sql.NullString{String: req.Address, Valid: req.Address != ""},
		Phone:    sql.NullString{String: req.Phone, Valid: req.Phone != ""},
		Capacity: req.Capacity,
	}
	if place.Capacity == 0 {
		place.Capacity = defaultPlaceCapacity
	}
	return place
}

func toPlaceResponse(p *db.Place) entities.PlaceResponse {
	return entities.PlaceResponse{
		ID:       p.ID,
		Name:     p.Name,
		Address:  p.Address.String,
		Phone:    p.Phone.String,
		Capacity: p.Capacity,
	}
}
