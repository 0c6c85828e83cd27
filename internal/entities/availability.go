package entities

// AvailabilityResponse reports the capacity picture for one
// (place, date, slot) key at the moment it was computed. It is advisory:
// admission re-checks occupancy under the slot lock before committing.
type AvailabilityResponse struct {
	MaxCapacity int `json:"maxCapacity"`
	Reserved    int `json:"reserved"`
	Available   int `json:"available"`
}
