package queue

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TopicPledgeCreated carries a PledgeEvent after a paid pledge commits.
const TopicPledgeCreated = "pledge.created"

const defaultMaxRetries = 3

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// PledgeEvent is the message body published on TopicPledgeCreated.
type PledgeEvent struct {
	PledgeID int `json:"pledge_id"`
}

// InMemoryQueue delivers jobs to subscribers on goroutines with retry.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	logger   *zap.Logger
	backoff  time.Duration
	wg       sync.WaitGroup
}

func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		logger:   logger,
		backoff:  500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{Payload: payload, MaxRetries: defaultMaxRetries}
		q.wg.Add(1)
		go q.processJob(topic, handler, job)
	}
	return nil
}

func (q *InMemoryQueue) processJob(topic string, handler func(payload any) error, job JobPayload) {
	defer q.wg.Done()
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return
		}

		job.RetryCount++
		q.logger.Warn("job failed",
			zap.String("topic", topic),
			zap.Int("attempt", job.RetryCount),
			zap.Any("payload", job.Payload),
			zap.Error(err))

		if job.RetryCount > job.MaxRetries {
			q.logger.Error("job permanently failed", zap.String("topic", topic), zap.Any("payload", job.Payload))
			return
		}

		time.Sleep(time.Duration(job.RetryCount) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished or given up.
func (q *InMemoryQueue) Wait() { q.wg.Wait() }

// PledgeIDFromPayload accepts the shapes a PledgeEvent takes after passing
// through either queue implementation.
func PledgeIDFromPayload(payload any) (int, error) {
	switch v := payload.(type) {
	case PledgeEvent:
		return v.PledgeID, nil
	case *PledgeEvent:
		return v.PledgeID, nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("queue: unexpected payload type %T", payload)
	}
}

var _ Queue = (*InMemoryQueue)(nil)
