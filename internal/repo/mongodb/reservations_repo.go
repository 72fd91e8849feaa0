package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/rjoubert/tablebook/internal/domain/reservation"
	"github.com/rjoubert/tablebook/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReservationsRepo struct {
	col  *mongo.Collection
	prom *observability.Prom
}

func NewReservationsRepo(db *mongo.Database, prom *observability.Prom) *ReservationsRepo {
	return &ReservationsRepo{
		col:  db.Collection(reservationsCollection),
		prom: prom,
	}
}

func (r *ReservationsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(op, fn)
	}
	return fn()
}

func (r *ReservationsRepo) Create(ctx context.Context, req reservation.CreateReservationRequest, ownerID primitive.ObjectID) (reservation.Reservation, error) {
	res := reservation.NewFromCreateRequest(req, ownerID)

	err := r.observe("reservations.create", func() error {
		_, e := r.col.InsertOne(ctx, res)
		return e
	})

	if err != nil {
		return reservation.Reservation{}, err
	}

	return res, nil
}

func (r *ReservationsRepo) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]reservation.Reservation, error) {
	out := make([]reservation.Reservation, 0)

	err := r.observe("reservations.list_by_owner", func() error {
		cur, e := r.col.Find(ctx, bson.M{"userId": ownerID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if e != nil {
			return e
		}
		return cur.All(ctx, &out)
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// Cancel flips a single matching reservation to canceled in one conditional
// update. The filter excludes already-canceled documents, so two concurrent
// cancels cannot both report success: the loser sees no match and gets
// ErrNotFound, exactly like a wrong id or a wrong owner.
func (r *ReservationsRepo) Cancel(ctx context.Context, id, ownerID primitive.ObjectID) (reservation.Reservation, error) {
	filter := bson.M{
		"_id":    id,
		"userId": ownerID,
		"status": bson.M{"$ne": reservation.StatusCanceled},
	}
	update := bson.M{
		"$set": bson.M{
			"status":    reservation.StatusCanceled,
			"updatedAt": time.Now().UTC(),
		},
	}

	var res reservation.Reservation

	err := r.observe("reservations.cancel", func() error {
		return r.col.FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&res)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return reservation.Reservation{}, reservation.ErrNotFound
		}
		return reservation.Reservation{}, err
	}

	return res, nil
}

func (r *ReservationsRepo) ListAll(ctx context.Context) ([]reservation.Reservation, error) {
	out := make([]reservation.Reservation, 0)

	err := r.observe("reservations.list_all", func() error {
		cur, e := r.col.Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if e != nil {
			return e
		}
		return cur.All(ctx, &out)
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}
