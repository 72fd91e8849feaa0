package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rjoubert/tablebook/internal/jobs"
)

// NotificationsKey is the redis list the producer pushes to and the worker
// pops from.
const NotificationsKey = "tablebook:jobs:notifications"

type Producer struct {
	rdb *redis.Client
}

func NewProducer(rdb *redis.Client) *Producer {
	return &Producer{rdb: rdb}
}

func (p *Producer) Enqueue(ctx context.Context, j jobs.Job) error {
	b, err := json.Marshal(j)

	if err != nil {
		return err
	}

	return p.rdb.LPush(ctx, NotificationsKey, b).Err()
}
