package service

import (
	"context"
	"fmt"
	"log"

	"github.com/Nouhamk/restau-reservation-flutter/internal/repository"
)

// reminderWindowMinutes is how far ahead the reminder job looks for
// reservations about to start.
const reminderWindowMinutes = 60

type JobService struct {
	Repo     *repository.JobRepository
	Notifier Notifier
}

func NewJobService(repo *repository.JobRepository, notifier Notifier) *JobService {
	return &JobService{Repo: repo, Notifier: notifier}
}

// SendUpcomingReminders dispatches a reminder for every occupying
// reservation starting within the next hour, at most once per reservation.
func (s *JobService) SendUpcomingReminders(ctx context.Context) error {
	reservations, err := s.Repo.UpcomingReservations(ctx, reminderWindowMinutes)
	if err != nil {
		return fmt.Errorf("cron job: failed to query upcoming reservations: %w", err)
	}
	if len(reservations) == 0 {
		return nil
	}

	ids := make([]int, 0, len(reservations))
	for i := range reservations {
		s.Notifier.NotifyReminder(repository.ToResponse(&reservations[i]))
		ids = append(ids, reservations[i].ID)
	}
	if err := s.Repo.MarkReminded(ctx, ids); err != nil {
		return fmt.Errorf("cron job: failed to mark reservations reminded: %w", err)
	}

	log.Printf("Cron Job: dispatched %d reservation reminder(s)", len(ids))
	return nil
}
