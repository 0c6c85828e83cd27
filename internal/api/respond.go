package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	reserr "github.com/Nouhamk/restau-reservation-flutter/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the domain error taxonomy onto HTTP. CapacityExceeded
// additionally reports the remaining headroom so the client can offer a
// smaller party size.
func writeError(w http.ResponseWriter, err error) {
	if ce, ok := reserr.AsCapacityExceeded(err); ok {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":     "no seats left for this slot",
			"available": ce.Available,
		})
		return
	}

	var status int
	switch {
	case errors.Is(err, reserr.ErrInvalidRequest),
		errors.Is(err, reserr.ErrInvalidStatus),
		errors.Is(err, reserr.ErrUnknownSlot):
		status = http.StatusBadRequest
	case errors.Is(err, reserr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, reserr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, reserr.ErrDuplicateSlot):
		status = http.StatusConflict
	case errors.Is(err, reserr.ErrTransient):
		status = http.StatusServiceUnavailable
	default:
		log.Printf("Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
