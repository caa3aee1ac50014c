package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNATSConn struct {
	published []*nats.Msg
	err       error
	drained   int
}

func (f *fakeNATSConn) PublishMsg(m *nats.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, m)
	return nil
}

func (f *fakeNATSConn) Flush() error { return nil }

func (f *fakeNATSConn) Drain() error {
	f.drained++
	return nil
}

type fakeKafkaWriter struct {
	msgs   []kafka.Message
	err    error
	closed int
}

func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error {
	f.closed++
	return nil
}

type fakeNSQProducer struct {
	topics  []string
	bodies  [][]byte
	stopped int
}

func (f *fakeNSQProducer) Publish(topic string, body []byte) error {
	f.topics = append(f.topics, topic)
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakeNSQProducer) Stop() { f.stopped++ }

var sample = OutgoingMessage{
	Body:    []byte(`{"account_id":"rfc"}`),
	Key:     []byte("rfc"),
	Headers: []Header{{Key: "cID", Value: []byte("abc")}, {Key: "", Value: []byte("dropped")}},
}

func TestNATS_Publish(t *testing.T) {
	conn := &fakeNATSConn{}
	n := newNATS(conn)

	res, err := n.Publish(context.Background(), "authenticator.code_verified", sample)

	require.NoError(t, err)
	assert.Equal(t, "authenticator.code_verified", res.Topic)
	require.Len(t, conn.published, 1)
	assert.Equal(t, sample.Body, conn.published[0].Data)
	assert.Equal(t, "abc", conn.published[0].Header.Get("cID"))
	assert.Len(t, conn.published[0].Header, 1)

	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
	assert.Equal(t, 1, conn.drained)

	_, err = n.Publish(context.Background(), "x", sample)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNATS_PublishError(t *testing.T) {
	n := newNATS(&fakeNATSConn{err: errors.New("no responders")})

	_, err := n.Publish(context.Background(), "x", sample)

	assert.ErrorContains(t, err, "nats publish")
}

func TestKafka_Publish(t *testing.T) {
	w := &fakeKafkaWriter{}
	k := newKafka(w)

	_, err := k.Publish(context.Background(), "codes", sample)

	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "codes", w.msgs[0].Topic)
	assert.Equal(t, sample.Key, w.msgs[0].Key)
	assert.Equal(t, []kafka.Header{{Key: "cID", Value: []byte("abc")}}, w.msgs[0].Headers)

	require.NoError(t, k.Close())
	require.NoError(t, k.Close())
	assert.Equal(t, 1, w.closed)
}

func TestKafka_PublishError(t *testing.T) {
	k := newKafka(&fakeKafkaWriter{err: kafka.LeaderNotAvailable})

	_, err := k.Publish(context.Background(), "codes", sample)

	assert.ErrorIs(t, err, kafka.LeaderNotAvailable)
}

func TestNSQ_Publish(t *testing.T) {
	p := &fakeNSQProducer{}
	n := newNSQ(p)

	_, err := n.Publish(context.Background(), "codes", sample)

	require.NoError(t, err)
	assert.Equal(t, []string{"codes"}, p.topics)
	assert.Equal(t, [][]byte{sample.Body}, p.bodies)

	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
	assert.Equal(t, 1, p.stopped)
}

func TestPublish_Preconditions(t *testing.T) {
	publishers := map[string]Publisher{
		"log":   NewLog(),
		"nats":  newNATS(&fakeNATSConn{}),
		"kafka": newKafka(&fakeKafkaWriter{}),
		"nsq":   newNSQ(&fakeNSQProducer{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, p := range publishers {
		t.Run(name, func(t *testing.T) {
			_, err := p.Publish(context.Background(), "", sample)
			assert.ErrorIs(t, err, ErrDestinationRequired)

			_, err = p.Publish(ctx, "codes", sample)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestLog(t *testing.T) {
	l := NewLog()

	res, err := l.Publish(context.Background(), "codes", sample)
	require.NoError(t, err)
	assert.Equal(t, "codes", res.Topic)

	require.NoError(t, l.Close())
	_, err = l.Publish(context.Background(), "codes", sample)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewFromDriver(t *testing.T) {
	ctx := context.Background()

	p, err := NewFromDriver(ctx, "", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Log{}, p)

	p, err = NewFromDriver(ctx, " log ", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Log{}, p)

	_, err = NewFromDriver(ctx, "rabbitmq", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(ctx, DriverNATS, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)

	_, err = NewFromDriver(ctx, DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(ctx, DriverNSQ, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNSQAddrRequired)

	_, err = NewFromDriver(ctx, DriverGooglePubSub, FactoryOptions{})
	assert.ErrorIs(t, err, ErrPubSubProjectIDRequired)

	k, err := NewFromDriver(ctx, DriverKafka, FactoryOptions{Kafka: KafkaConfig{Brokers: []string{"127.0.0.1:9092"}}})
	require.NoError(t, err)
	assert.NoError(t, k.Close())
}
