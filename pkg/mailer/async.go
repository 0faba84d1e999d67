package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-auth-service/pkg/metrics"
)

var (
	ErrQueueFull   = errors.New("notification queue full")
	ErrSinkClosed  = errors.New("notification sink closed")
	defaultTimeout = 15 * time.Second
)

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type message struct {
	to, subject, body string
}

// AsyncSink decouples callers from delivery latency. Messages go into a
// bounded buffer drained by a single worker; Send never blocks.
type AsyncSink struct {
	next    Sender
	log     logrus.FieldLogger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan message
	done   chan struct{}
}

func NewAsyncSink(next Sender, size int, log logrus.FieldLogger) *AsyncSink {
	if size <= 0 {
		size = 1
	}
	s := &AsyncSink{
		next:    next,
		log:     log,
		timeout: defaultTimeout,
		queue:   make(chan message, size),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AsyncSink) Send(_ context.Context, to, subject, body string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.queue <- message{to: to, subject: subject, body: body}:
		return nil
	default:
		metrics.Notifications.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for m := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.next.Send(ctx, m.to, m.subject, m.body)
		cancel()
		if err != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			s.log.WithError(err).WithField("subject", m.subject).Error("notification delivery failed")
			continue
		}
		metrics.Notifications.WithLabelValues("sent").Inc()
	}
}

// Close stops accepting messages and waits for the buffer to drain or ctx to end.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
