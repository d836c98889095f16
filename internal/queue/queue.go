package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const QueueRenderReel = "queue:render_reel"

type Queue struct {
	client *redis.Client
}

// Job is the queue payload. The spec snapshot lives in Postgres; the
// queue only carries the job id.
type Job struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	data, err := json.Marshal(&Job{ID: jobID, CreatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.client.RPush(ctx, QueueRenderReel, data).Err()
}

// Dequeue blocks up to timeout for the next job. A nil job with nil
// error means the timeout elapsed with nothing queued.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, QueueRenderReel).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, QueueRenderReel).Result()
}
