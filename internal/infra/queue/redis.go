package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tg-miner-bot/internal/domain"
)

var _ domain.TriggerQueue = (*RedisTriggerQueue)(nil)

// RedisTriggerQueue реализует очередь ручных запусков на базе Redis lists.
type RedisTriggerQueue struct {
	client *redis.Client
	key    string
}

// NewRedisTriggerQueue создаёт очередь по указанному ключу.
func NewRedisTriggerQueue(client *redis.Client, key string) *RedisTriggerQueue {
	return &RedisTriggerQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisTriggerQueue) Enqueue(ctx context.Context, job domain.TriggerJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *RedisTriggerQueue) Pop(ctx context.Context) (domain.TriggerJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.TriggerJob{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.TriggerJob{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.TriggerJob{}, err
		}
		if len(res) != 2 {
			return domain.TriggerJob{}, errors.New("redis queue: unexpected response")
		}
		var job domain.TriggerJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return domain.TriggerJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}
