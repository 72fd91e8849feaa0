package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rjoubert/tablebook/internal/domain/reservation"
	"github.com/rjoubert/tablebook/internal/repo/memory"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func createReq(email string) reservation.CreateReservationRequest {
	return reservation.CreateReservationRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Phone:     "0123456789",
		Date:      "2025-01-01",
		Time:      "19:00",
	}
}

func TestListByOwnerScoping(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReservationsRepo()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	if _, err := repo.Create(ctx, createReq("alice@example.com"), alice); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, createReq("alice2@example.com"), alice); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, createReq("bob@example.com"), bob); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := repo.ListByOwner(ctx, alice)

	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(mine) != 2 {
		t.Fatalf("len = %d, want 2", len(mine))
	}

	for _, res := range mine {
		if res.UserID != alice {
			t.Errorf("leaked reservation owned by %s", res.UserID.Hex())
		}
	}

	none, err := repo.ListByOwner(ctx, primitive.NewObjectID())

	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if none == nil || len(none) != 0 {
		t.Errorf("want empty non-nil slice, got %v", none)
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReservationsRepo()

	owner := primitive.NewObjectID()

	res, err := repo.Create(ctx, createReq("ada@example.com"), owner)

	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("wrong owner", func(t *testing.T) {
		_, err := repo.Cancel(ctx, res.ID, primitive.NewObjectID())

		if !errors.Is(err, reservation.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.Cancel(ctx, primitive.NewObjectID(), owner)

		if !errors.Is(err, reservation.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("first cancel wins, second is gone", func(t *testing.T) {
		got, err := repo.Cancel(ctx, res.ID, owner)

		if err != nil {
			t.Fatalf("cancel: %v", err)
		}

		if got.Status != reservation.StatusCanceled {
			t.Errorf("status = %q, want %q", got.Status, reservation.StatusCanceled)
		}

		_, err = repo.Cancel(ctx, res.ID, owner)

		if !errors.Is(err, reservation.ErrNotFound) {
			t.Fatalf("second cancel err = %v, want ErrNotFound", err)
		}
	})
}

func TestConcurrentCancelSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReservationsRepo()

	owner := primitive.NewObjectID()

	res, err := repo.Create(ctx, createReq("ada@example.com"), owner)

	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const goroutines = 32

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := repo.Cancel(ctx, res.ID, owner); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
}
