package queue

import (
	"context"
	"errors"
	"fmt"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

// Handler processes one message.
type Handler func(ctx context.Context, msg Message) error

// Consumer pops job messages one at a time.
type Consumer struct {
	client *redis.Client
	cfg    Config
	log    infralogger.Logger
}

// NewConsumer creates a consumer.
func NewConsumer(client *redis.Client, cfg Config, log infralogger.Logger) *Consumer {
	return &Consumer{
		client: client,
		cfg:    cfg.WithDefaults(),
		log:    log.With(infralogger.Component("queue")),
	}
}

// Next blocks for up to BlockTimeout and returns the next raw entry.
// ok is false when the list stayed empty.
func (c *Consumer) Next(ctx context.Context) (raw string, ok bool, err error) {
	result, err := c.client.BLPop(ctx, c.cfg.BlockTimeout, c.cfg.ListKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to pop from %s: %w", c.cfg.ListKey, err)
	}

	// BLPOP replies with [key, value].
	return result[1], true, nil
}

// Run handles messages until ctx is done. Messages that cannot be decoded or
// whose handler fails are moved to FailedKey; the loop carries on.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	c.log.Info("Consumer started", infralogger.String("list", c.cfg.ListKey))

	for {
		if ctx.Err() != nil {
			c.log.Info("Consumer stopped")
			return nil
		}

		raw, ok, err := c.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			return err
		}
		if !ok {
			continue
		}

		c.process(ctx, raw, handle)
	}
}

func (c *Consumer) process(ctx context.Context, raw string, handle Handler) {
	msg, err := Decode(raw)
	if err != nil {
		c.log.Warn("Discarding malformed message", infralogger.Error(err))
		c.moveToFailed(ctx, raw)
		return
	}

	log := c.log.With(infralogger.String("message_id", msg.ID), infralogger.Strings("topics", msg.Topics))
	log.Info("Processing message")

	if err = handle(ctx, msg); err != nil {
		log.Error("Message handling failed", infralogger.Error(err))
		c.moveToFailed(ctx, raw)
		return
	}

	log.Info("Message processed")
}

func (c *Consumer) moveToFailed(ctx context.Context, raw string) {
	if err := c.client.RPush(context.WithoutCancel(ctx), c.cfg.FailedKey, raw).Err(); err != nil {
		c.log.Error("Failed to record failed message",
			infralogger.String("list", c.cfg.FailedKey),
			infralogger.Error(err),
		)
	}
}
