// Package kafka carries query analytics events over segmentio/kafka-go. The
// producer writes JSON values; the consumer hands every fetched message to a
// MessageHandler and commits its offset afterwards.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/config"
)

const fetchRetryDelay = time.Second

type MessageHandler func(ctx context.Context, key, value []byte) error

// Consumer reads one topic as part of the configured consumer group.
// Messages the handler rejects are logged and committed anyway: analytics
// events are not worth redelivering forever.
type Consumer struct {
	reader  *kafka.Reader
	handle  MessageHandler
	logger  *slog.Logger
	handled atomic.Int64
	failed  atomic.Int64
}

func NewConsumer(cfg config.KafkaConfig, topic string, handle MessageHandler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       topic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    1,
			MaxBytes:    10e6,
			MaxWait:     500 * time.Millisecond,
			StartOffset: kafka.LastOffset,
		}),
		handle: handle,
		logger: slog.Default().With("component", "kafka-consumer", "topic", topic),
	}
}

// Run consumes until ctx ends, then closes the reader.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.logger.Info("consumer stopped", "handled", c.handled.Load(), "failed", c.failed.Load())

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return c.reader.Close()
			}
			c.logger.Error("fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return c.reader.Close()
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if err := c.handle(ctx, msg.Key, msg.Value); err != nil {
			c.failed.Add(1)
			c.logger.Warn("handler rejected message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		} else {
			c.handled.Add(1)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

// Counts returns how many messages were handled and rejected so far.
func (c *Consumer) Counts() (handled, failed int64) {
	return c.handled.Load(), c.failed.Load()
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var v T
	if err := json.Unmarshal(value, &v); err != nil {
		return v, fmt.Errorf("decoding kafka message: %w", err)
	}
	return v, nil
}
