package messaging

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/atomic"
)

// Log writes every message to the default logger instead of a broker.
type Log struct {
	closed *atomic.Bool
}

// NewLog returns a Log publisher ready for use.
func NewLog() *Log {
	return &Log{closed: atomic.NewBool(false)}
}

// Publish logs msg at info level. It fails only on a missing destination,
// a done context, or after Close.
func (l *Log) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := checkPublish(ctx, destination); err != nil {
		return PublishResult{}, err
	}
	if l.closed.Load() {
		return PublishResult{}, ErrClosed
	}

	slog.InfoContext(ctx, "event published", "destination", destination, "body", string(msg.Body))

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Close makes later Publish calls return ErrClosed.
func (l *Log) Close() error {
	l.closed.Store(true)
	return nil
}
