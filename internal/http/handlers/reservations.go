package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rjoubert/tablebook/internal/config"
	"github.com/rjoubert/tablebook/internal/domain/reservation"
	"github.com/rjoubert/tablebook/internal/http/middlewares"
	"github.com/rjoubert/tablebook/internal/jobs"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReservationStore interface {
	Create(ctx context.Context, req reservation.CreateReservationRequest, ownerID primitive.ObjectID) (reservation.Reservation, error)
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]reservation.Reservation, error)
	Cancel(ctx context.Context, id, ownerID primitive.ObjectID) (reservation.Reservation, error)
	ListAll(ctx context.Context) ([]reservation.Reservation, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, j jobs.Job) error
}

type ReservationsHandler struct {
	store ReservationStore
	queue Enqueuer
	log   *slog.Logger
}

func NewReservationsHandler(store ReservationStore, queue Enqueuer, log *slog.Logger) *ReservationsHandler {
	return &ReservationsHandler{
		store: store,
		queue: queue,
		log:   log,
	}
}

func (h *ReservationsHandler) Create(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Please login to access this resource")
		return
	}

	var req reservation.CreateReservationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// owner is always the caller; nothing in the body can change it
	res, err := h.store.Create(cctx, req, u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not create reservation")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "Reservation sent successfully",
		"reservation": res,
	})
}

func (h *ReservationsHandler) List(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Please login to access this resource")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	list, err := h.store.ListByOwner(cctx, u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not list reservations")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":      true,
		"count":        len(list),
		"reservations": list,
	})
}

func (h *ReservationsHandler) Cancel(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Please login to access this resource")
		return
	}

	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))

	if err != nil {
		// a malformed id can never match a document; same outcome
		RespondNotFound(ctx, "Reservation not found or already canceled")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	res, err := h.store.Cancel(cctx, id, u.ID)

	if err != nil {
		if errors.Is(err, reservation.ErrNotFound) {
			RespondNotFound(ctx, "Reservation not found or already canceled")
			return
		}

		RespondInternal(ctx, "Could not cancel reservation")
		return
	}

	h.enqueueCancellationNotice(ctx, res)

	ctx.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Reservation canceled successfully",
		"reservation": res,
	})
}

// enqueueCancellationNotice hands the notice to the queue best-effort: a
// failure here is logged and swallowed, the cancel itself already succeeded.
func (h *ReservationsHandler) enqueueCancellationNotice(ctx *gin.Context, res reservation.Reservation) {
	payload := jobs.CancellationNoticePayload{
		ReservationID: res.ID.Hex(),
		Email:         res.Email,
		Name:          res.FirstName + " " + res.LastName,
		Date:          res.Date,
		Time:          res.Time,
		RequestedAt:   time.Now().UTC(),
	}

	raw, err := jobs.EncodePayload(jobs.JobReservationCancellation, payload)

	if err != nil {
		h.log.Error("could not encode cancellation notice", "reservation", res.ID.Hex(), "err", err)
		return
	}

	j, err := jobs.NewJob(jobs.JobReservationCancellation, raw)

	if err != nil {
		h.log.Error("could not build cancellation job", "reservation", res.ID.Hex(), "err", err)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := h.queue.Enqueue(cctx, j); err != nil {
		h.log.Error("could not enqueue cancellation notice", "reservation", res.ID.Hex(), "err", err)
	}
}

// AdminList returns every reservation regardless of owner. Routed behind the
// admin role gate.
func (h *ReservationsHandler) AdminList(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	list, err := h.store.ListAll(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list reservations")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":      true,
		"count":        len(list),
		"reservations": list,
	})
}
