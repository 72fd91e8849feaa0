package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier is the dev default: it writes the notice to the log instead of
// calling a provider.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendCancellationNotice(ctx context.Context, in CancellationNoticeInput) error {
	n.log.InfoContext(ctx, "notification.reservation_cancellation",
		"email", in.Email,
		"name", in.Name,
		"date", in.Date,
		"time", in.Time,
		"reservation", in.ReservationID,
	)
	return nil
}
