package notifications

import "context"

type CancellationNoticeInput struct {
	ReservationID string
	Email         string
	Name          string
	Date          string
	Time          string
}

type Notifier interface {
	SendCancellationNotice(ctx context.Context, input CancellationNoticeInput) error
}
