package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const retryHeader = "x-retry-count"

// AMQPQueue maps each topic to a durable RabbitMQ queue of the same name,
// unless a name override is given in Names.
type AMQPQueue struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	mu         sync.Mutex
	names      map[string]string
	logger     *zap.Logger
	maxRetries int
}

func DialAMQP(url string, names map[string]string, logger *zap.Logger) (*AMQPQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, names: names, logger: logger, maxRetries: defaultMaxRetries}, nil
}

func (q *AMQPQueue) queueName(topic string) string {
	if name, ok := q.names[topic]; ok && name != "" {
		return name
	}
	return topic
}

func (q *AMQPQueue) declare(name string) error {
	_, err := q.ch.QueueDeclare(name, true, false, false, false, nil)
	return err
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	return q.publish(topic, payload, 0)
}

func (q *AMQPQueue) publish(topic string, payload any, retry int) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("amqp marshal: %w", err)
	}
	name := q.queueName(topic)

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.declare(name); err != nil {
		return fmt.Errorf("amqp declare %s: %w", name, err)
	}
	return q.ch.Publish("", name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{retryHeader: int32(retry)},
		Body:         body,
	})
}

// Subscribe consumes pledge events. Failed messages are republished with an
// incremented retry header until maxRetries, then dropped.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	name := q.queueName(topic)

	q.mu.Lock()
	err := q.declare(name)
	var msgs <-chan amqp.Delivery
	if err == nil {
		msgs, err = q.ch.Consume(name, "", false, false, false, false, nil)
	}
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("amqp consume %s: %w", name, err)
	}

	go func() {
		for d := range msgs {
			q.handle(topic, d, handler)
		}
		q.logger.Info("amqp consumer stopped", zap.String("queue", name))
	}()
	return nil
}

func (q *AMQPQueue) handle(topic string, d amqp.Delivery, handler func(payload any) error) {
	var ev PledgeEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		q.logger.Error("drop malformed message", zap.String("topic", topic), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	err := handler(ev)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	retry := retryCount(d.Headers) + 1
	q.logger.Warn("job failed",
		zap.String("topic", topic),
		zap.Int("pledge_id", ev.PledgeID),
		zap.Int("attempt", retry),
		zap.Error(err))

	if retry > q.maxRetries {
		q.logger.Error("job permanently failed", zap.String("topic", topic), zap.Int("pledge_id", ev.PledgeID))
		_ = d.Ack(false)
		return
	}
	if perr := q.publish(topic, ev, retry); perr != nil {
		q.logger.Error("requeue failed", zap.Error(perr))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func retryCount(h amqp.Table) int {
	switch v := h[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

var _ Queue = (*AMQPQueue)(nil)
