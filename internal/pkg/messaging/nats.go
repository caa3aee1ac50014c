package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"
)

// ErrNATSURLRequired is returned when the NATS server URL is missing.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS connection.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

type natsConn interface {
	PublishMsg(m *nats.Msg) error
	Flush() error
	Drain() error
}

// NATS publishes to NATS subjects.
type NATS struct {
	conn   natsConn
	closed *atomic.Bool
}

// NewNATS connects to the NATS server at cfg.URL.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return newNATS(conn), nil
}

func newNATS(conn natsConn) *NATS {
	return &NATS{conn: conn, closed: atomic.NewBool(false)}
}

// Publish sends msg to the subject named by destination and flushes the connection.
func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := checkPublish(ctx, destination); err != nil {
		return PublishResult{}, err
	}
	if n.closed.Load() {
		return PublishResult{}, ErrClosed
	}

	nmsg := nats.NewMsg(destination)
	nmsg.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key != "" {
			nmsg.Header.Add(h.Key, string(h.Value))
		}
	}

	if err := n.conn.PublishMsg(nmsg); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.Flush(); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats flush: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Close drains pending messages and closes the connection. It is idempotent.
func (n *NATS) Close() error {
	if n.closed.Swap(true) {
		return nil
	}
	return n.conn.Drain()
}
