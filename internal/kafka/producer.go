package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var (
	ErrInboxFull = errors.New("producer inbox full")
	ErrClosed    = errors.New("producer closed")
)

// Producer buffers messages in an inbox and writes them from one goroutine.
// Publish never blocks the caller.
type Producer struct {
	w     *kafka.Writer
	inbox chan kafka.Message
	done  chan struct{}
	log   zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, topic string, buf int, log zerolog.Logger) *Producer {
	if buf <= 0 {
		buf = 1
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true, // errors surface in Completion
			Completion: func(msgs []kafka.Message, err error) {
				if err != nil {
					log.Error().Err(err).Int("messages", len(msgs)).Str("topic", topic).Msg("kafka write failed")
				}
			},
		},
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Start runs the writer loop until Close. Messages already in the inbox are
// still flushed after ctx is cancelled.
func (p *Producer) Start(ctx context.Context) {
	wctx := context.WithoutCancel(ctx)
	go func() {
		defer close(p.done)
		for m := range p.inbox {
			if err := p.w.WriteMessages(wctx, m); err != nil {
				p.log.Error().Err(err).Msg("kafka enqueue failed")
			}
		}
		if err := p.w.Close(); err != nil {
			p.log.Error().Err(err).Msg("kafka writer close")
		}
	}()
}

func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.inbox <- kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}:
		return nil
	default:
		return ErrInboxFull
	}
}

// Close stops accepting messages; the loop flushes what is left and exits.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the loop started by Start has exited.
func (p *Producer) WaitClosed() { <-p.done }

// Discard is the publisher used when no brokers are configured.
type Discard struct{}

func (Discard) Publish([]byte, []byte, ...kafka.Header) error { return nil }
