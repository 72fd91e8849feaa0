package jobs

import "time"

// CancellationNoticePayload carries what the worker needs to tell a guest
// their reservation was canceled. Kept small; the worker does not re-read the
// store.
type CancellationNoticePayload struct {
	ReservationID string    `json:"reservationId"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	RequestedAt   time.Time `json:"requestedAt"`
}
