package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rjoubert/tablebook/internal/domain/reservation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReservationsRepo is an in-memory stand-in for the mongo-backed store. The
// cancel path performs its match-then-set under one lock so it keeps the same
// only-one-winner behavior as the store's conditional update.
type ReservationsRepo struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]reservation.Reservation
}

func NewReservationsRepo() *ReservationsRepo {
	return &ReservationsRepo{
		items: make(map[primitive.ObjectID]reservation.Reservation),
	}
}

func (r *ReservationsRepo) Create(ctx context.Context, req reservation.CreateReservationRequest, ownerID primitive.ObjectID) (reservation.Reservation, error) {
	res := reservation.NewFromCreateRequest(req, ownerID)

	r.mu.Lock()
	r.items[res.ID] = res
	r.mu.Unlock()

	return res, nil
}

func (r *ReservationsRepo) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]reservation.Reservation, error) {
	r.mu.RLock()
	out := make([]reservation.Reservation, 0)

	for _, res := range r.items {
		if res.UserID == ownerID {
			out = append(out, res)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *ReservationsRepo) Cancel(ctx context.Context, id, ownerID primitive.ObjectID) (reservation.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.items[id]

	if !ok || res.UserID != ownerID || res.Status == reservation.StatusCanceled {
		return reservation.Reservation{}, reservation.ErrNotFound
	}

	res.Status = reservation.StatusCanceled
	res.UpdatedAt = time.Now().UTC()
	r.items[id] = res

	return res, nil
}

func (r *ReservationsRepo) ListAll(ctx context.Context) ([]reservation.Reservation, error) {
	r.mu.RLock()
	out := make([]reservation.Reservation, 0, len(r.items))

	for _, res := range r.items {
		out = append(out, res)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}
