package api

// Time slots
type DefineSlotRequest struct {
	SlotTime    string `json:"slot_time"`
	MaxCapacity int    `json:"max_capacity"`
}

// Reservation status
type StatusRequest struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
