package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Ping dials the brokers in order and succeeds as soon as one answers.
// Readers and writers connect lazily, so this is the only way to learn at
// startup whether Kafka is reachable.
func Ping(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	var errs []error
	for _, broker := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, fmt.Errorf("dialing %s: %w", broker, err))
			continue
		}
		return conn.Close()
	}
	return errors.Join(errs...)
}

// Pinger adapts Ping to a health check dependency.
type Pinger []string

func (p Pinger) Ping(ctx context.Context) error {
	return Ping(ctx, p)
}
