package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Producer appends job messages to the list.
type Producer struct {
	client *redis.Client
	key    string
}

// NewProducer creates a producer for cfg.ListKey.
func NewProducer(client *redis.Client, cfg Config) *Producer {
	return &Producer{client: client, key: cfg.WithDefaults().ListKey}
}

// Enqueue pushes a job for topics and returns its message ID.
func (p *Producer) Enqueue(ctx context.Context, topics []string) (string, error) {
	msg := Message{
		ID:         uuid.NewString(),
		Topics:     topics,
		EnqueuedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to serialize message: %w", err)
	}

	if err = p.client.RPush(ctx, p.key, data).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue message: %w", err)
	}

	return msg.ID, nil
}
