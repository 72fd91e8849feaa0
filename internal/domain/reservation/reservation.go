package reservation

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCanceled:
		return true
	default:
		return false
	}
}

type Reservation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone" json:"phone"`
	Date      string             `bson:"date" json:"date"`
	Time      string             `bson:"time" json:"time"`
	Status    Status             `bson:"status" json:"status"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"` // owner, immutable after creation
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ErrNotFound covers a missing id, a different owner, and an already-canceled
// reservation alike. Callers cannot tell the three apart.
var ErrNotFound = errors.New("reservation not found")

type CreateReservationRequest struct {
	FirstName string `json:"firstName" binding:"required,min=3,max=30"`
	LastName  string `json:"lastName" binding:"required,min=3,max=30"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required,numeric,min=10,max=11"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
}

// NewFromCreateRequest builds a pending Reservation owned by ownerID. The
// owner always comes from the authenticated caller, never from the body.
func NewFromCreateRequest(req CreateReservationRequest, ownerID primitive.ObjectID) Reservation {
	now := time.Now().UTC()

	return Reservation{
		ID:        primitive.NewObjectID(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Date:      req.Date,
		Time:      req.Time,
		Status:    StatusPending,
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
