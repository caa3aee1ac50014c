package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	nsq "github.com/nsqio/go-nsq"
	"go.uber.org/atomic"
)

// ErrNSQAddrRequired is returned when the nsqd address is missing.
var ErrNSQAddrRequired = errors.New("messaging: nsq producer address is required")

// NSQConfig configures the nsqd producer.
type NSQConfig struct {
	Addr string
	// Config overrides the default producer config.
	Config *nsq.Config
}

type nsqProducer interface {
	Publish(topic string, body []byte) error
	Stop()
}

// NSQ publishes to NSQ topics. Headers are not supported by NSQ and are dropped.
type NSQ struct {
	producer nsqProducer
	closed   *atomic.Bool
}

// NewNSQ creates a producer for the nsqd at cfg.Addr.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.Addr == "" {
		return nil, ErrNSQAddrRequired
	}

	pcfg := cfg.Config
	if pcfg == nil {
		pcfg = nsq.NewConfig()
	}

	p, err := nsq.NewProducer(cfg.Addr, pcfg)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)

	return newNSQ(p), nil
}

func newNSQ(p nsqProducer) *NSQ {
	return &NSQ{producer: p, closed: atomic.NewBool(false)}
}

// Publish sends msg.Body to the NSQ topic named by destination.
func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := checkPublish(ctx, destination); err != nil {
		return PublishResult{}, err
	}
	if n.closed.Load() {
		return PublishResult{}, ErrClosed
	}

	if err := n.producer.Publish(destination, msg.Body); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nsq publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Close stops the producer.
func (n *NSQ) Close() error {
	if !n.closed.Swap(true) {
		n.producer.Stop()
	}
	return nil
}
