package service

import (
	"context"

	"github.com/Nouhamk/restau-reservation-flutter/internal/repository"
)

type AdminService struct {
	Repo *repository.AdminRepository
}

func NewAdminService(repo *repository.AdminRepository) *AdminService {
	return &AdminService{Repo: repo}
}

func (s *AdminService) GetStats(ctx context.Context) (*repository.Stats, error) {
	return s.Repo.GetStats(ctx)
}
