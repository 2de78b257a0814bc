package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/warimas/backoffice/internal/logger"
)

const producerName = "backoffice"

var ErrProducerClosed = errors.New("event producer closed")

// Publisher emits domain events after the state they describe is committed.
type Publisher interface {
	Publish(ctx context.Context, eventType string, teamID int64, key string, payload any) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer queues messages in memory and writes them to Kafka from one
// goroutine. Messages for the same key go to the same partition.
type Producer struct {
	w       messageWriter
	inbox   chan kafka.Message
	done    chan struct{}
	closed  chan struct{}
	stop    sync.Once
	now     func() time.Time
	timeout time.Duration
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, buf)
}

func newProducer(w messageWriter, buf int) *Producer {
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
		now:     time.Now,
		timeout: 10 * time.Second,
	}
}

// Start runs the write loop until ctx is cancelled or Close is called,
// then flushes whatever is still queued. Publish fails with
// ErrProducerClosed from then on.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closed)
		for {
			select {
			case <-ctx.Done():
				p.Close()
				p.drain()
				return
			case <-p.done:
				p.drain()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

// Publish queues one event. key becomes the message key; the envelope's
// correlation id is the request id carried by ctx.
func (p *Producer) Publish(ctx context.Context, eventType string, teamID int64, key string, payload any) error {
	env, err := NewEnvelope(producerName, eventType, teamID, logger.RequestIDFrom(ctx), payload, p.now())
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "team_id", Value: []byte(strconv.FormatInt(teamID, 10))},
		},
	}
	if rid := logger.RequestIDFrom(ctx); rid != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "request_id", Value: []byte(rid)})
	}

	select {
	case <-p.done:
		return ErrProducerClosed
	case <-p.closed:
		return ErrProducerClosed
	default:
	}

	select {
	case p.inbox <- msg:
		return nil
	case <-p.done:
		return ErrProducerClosed
	case <-p.closed:
		return ErrProducerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop; queued messages are still written.
func (p *Producer) Close() {
	p.stop.Do(func() { close(p.done) })
}

// WaitClosed blocks until the loop has flushed and closed the writer.
func (p *Producer) WaitClosed() { <-p.closed }

func (p *Producer) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			if err := p.w.Close(); err != nil {
				logger.L().Error("close kafka writer", zap.Error(err))
			}
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.w.WriteMessages(ctx, m); err != nil {
		logger.L().Error("publish event failed",
			zap.String("key", string(m.Key)),
			zap.Error(err),
		)
	}
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, int64, string, any) error { return nil }
