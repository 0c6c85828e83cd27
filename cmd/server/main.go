package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/Nouhamk/restau-reservation-flutter/internal/api"
	"github.com/Nouhamk/restau-reservation-flutter/internal/auth"
	"github.com/Nouhamk/restau-reservation-flutter/internal/repository"
	"github.com/Nouhamk/restau-reservation-flutter/internal/service"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	database.SetConnMaxLifetime(5 * time.Minute)
	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	reservationRepo := repository.NewReservationRepository(database)
	slotRepo := repository.NewSlotRepository(database)
	placeRepo := repository.NewPlaceRepository(database)
	userRepo := repository.NewUserRepository(database)
	adminRepo := repository.NewAdminRepository(database)
	jobRepo := repository.NewJobRepository(database)

	notifier := service.NewSenderService(userRepo)
	reservationSvc := service.NewReservationService(reservationRepo, slotRepo, notifier)
	slotSvc := service.NewSlotService(slotRepo)
	placeSvc := service.NewPlaceService(placeRepo)
	adminSvc := service.NewAdminService(adminRepo)
	jobSvc := service.NewJobService(jobRepo, notifier)

	reservationHandler := api.NewReservationHandler(reservationSvc)
	slotHandler := api.NewSlotHandler(slotSvc, reservationSvc)
	placeHandler := api.NewPlaceHandler(placeSvc)
	adminHandler := api.NewAdminHandler(adminSvc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/timeslots", slotHandler.ListTimeSlots).Methods("GET")
	r.HandleFunc("/api/timeslots/availability", slotHandler.CheckAvailability).Methods("GET")
	r.HandleFunc("/api/places", placeHandler.ListPlaces).Methods("GET")
	r.HandleFunc("/api/places/{id}", placeHandler.GetPlace).Methods("GET")

	// Reservation endpoints (authenticated)
	reservations := r.PathPrefix("/api/reservations").Subrouter()
	reservations.Use(auth.Middleware)
	reservations.HandleFunc("", reservationHandler.CreateReservation).Methods("POST")
	reservations.HandleFunc("", reservationHandler.ListReservations).Methods("GET")
	reservations.HandleFunc("/{id}", reservationHandler.UpdateReservation).Methods("PUT")
	reservations.HandleFunc("/{id}", reservationHandler.CancelReservation).Methods("DELETE")
	reservations.HandleFunc("/{id}/status", reservationHandler.UpdateStatus).Methods("PATCH")

	// Administration endpoints. Stats are open to hosts, the capacity table
	// and places are admin only.
	operatorOnly := auth.RequireRole(auth.RoleHost, auth.RoleAdmin)
	adminOnly := auth.RequireRole(auth.RoleAdmin)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(auth.Middleware)
	admin.Handle("/stats", operatorOnly(http.HandlerFunc(adminHandler.GetStats))).Methods("GET")
	admin.Handle("/timeslots", adminOnly(http.HandlerFunc(slotHandler.DefineTimeSlot))).Methods("POST")
	admin.Handle("/timeslots/{time}", adminOnly(http.HandlerFunc(slotHandler.RemoveTimeSlot))).Methods("DELETE")
	admin.Handle("/places", adminOnly(http.HandlerFunc(placeHandler.CreatePlace))).Methods("POST")
	admin.Handle("/places/{id}", adminOnly(http.HandlerFunc(placeHandler.UpdatePlace))).Methods("PUT")
	admin.Handle("/places/{id}", adminOnly(http.HandlerFunc(placeHandler.DeletePlace))).Methods("DELETE")

	c := cron.New()
	c.AddFunc("@every 10m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := jobSvc.SendUpcomingReminders(ctx); err != nil {
			log.Printf("Reminder job failed: %v", err)
		}
	})
	c.Start()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, cors(r)))
}
