package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Job is the envelope that travels through the notification queue.
type Job struct {
	ID          string    `json:"id"`
	Type        JobType   `json:"type"`
	Payload     []byte    `json:"payload"` // raw json
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"maxAttempts"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewJob(t JobType, payloadJSON []byte) (Job, error) {
	if !t.IsValid() {
		return Job{}, ErrInvalidJobType
	}

	return Job{
		ID:          uuid.NewString(),
		Type:        t,
		Payload:     payloadJSON,
		Attempts:    0,
		MaxAttempts: 5,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
