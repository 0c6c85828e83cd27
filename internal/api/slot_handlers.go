package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Nouhamk/restau-reservation-flutter/internal/service"
)

type SlotHandler struct {
	Slots        *service.SlotService
	Reservations *service.ReservationService
}

func NewSlotHandler(slots *service.SlotService, reservations *service.ReservationService) *SlotHandler {
	return &SlotHandler{Slots: slots, Reservations: reservations}
}

func (h *SlotHandler) ListTimeSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.Slots.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *SlotHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	timeOfDay := r.URL.Query().Get("time")
	if date == "" || timeOfDay == "" {
		http.Error(w, "date and time are required", http.StatusBadRequest)
		return
	}
	placeID, err := optionalPlaceID(r)
	if err != nil {
		http.Error(w, "Invalid place_id", http.StatusBadRequest)
		return
	}

	availability, err := h.Reservations.CheckAvailability(r.Context(), placeID, date, timeOfDay)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

func (h *SlotHandler) DefineTimeSlot(w http.ResponseWriter, r *http.Request) {
	var req DefineSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	slot, err := h.Slots.Define(r.Context(), req.SlotTime, req.MaxCapacity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (h *SlotHandler) RemoveTimeSlot(w http.ResponseWriter, r *http.Request) {
	slotTime := mux.Vars(r)["time"]
	if err := h.Slots.Remove(r.Context(), slotTime); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Time slot removed"})
}
