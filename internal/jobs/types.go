package jobs

type JobType string

const (
	JobReservationCancellation JobType = "reservation.cancellation"
)

func (t JobType) IsValid() bool {
	switch t {
	case JobReservationCancellation:
		return true
	default:
		return false
	}
}
