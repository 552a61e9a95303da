package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/garageware/crm-backend/internal/config"
)

// DispatchJob asks the worker to run one campaign's dispatch.
type DispatchJob struct {
	CampaignID int `json:"campaign_id"`
}

// Publisher hands dispatch jobs to the background worker.
type Publisher interface {
	PublishDispatch(job DispatchJob) error
}

// AMQPPublisher publishes dispatch jobs to a durable RabbitMQ queue.
type AMQPPublisher struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	queueName string
}

// NewAMQPPublisher connects to RabbitMQ and declares the dispatch queue.
func NewAMQPPublisher(cfg config.AMQPConfig) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, queueName: cfg.QueueName}, nil
}

func (p *AMQPPublisher) PublishDispatch(job DispatchJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// MaxDeliveryAttempts bounds how often a failing dispatch job is redelivered
// before it is dropped.
const MaxDeliveryAttempts = 3

// RetryCount reads the delivery attempt counter carried in AMQP headers.
// Absent or malformed headers count as a first delivery.
func RetryCount(headers amqp.Table) int32 {
	if v, ok := headers["x-retry-count"].(int32); ok {
		return v
	}
	return 0
}

// PublishDispatchRetry re-enqueues a failed job with its attempt counter,
// so the consumer can drop it once MaxDeliveryAttempts is reached.
func (p *AMQPPublisher) PublishDispatchRetry(job DispatchJob, attempt int32) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Headers:     amqp.Table{"x-retry-count": attempt},
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Close() {
	p.ch.Close()
	p.conn.Close()
}

// InMemoryPublisher runs dispatch handlers in-process with a bounded retry.
// Used in tests and single-process setups without a broker.
type InMemoryPublisher struct {
	mu       sync.Mutex
	handlers []func(job DispatchJob) error
}

func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

// Subscribe adds a handler for published jobs
func (q *InMemoryPublisher) Subscribe(handler func(job DispatchJob) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

func (q *InMemoryPublisher) PublishDispatch(job DispatchJob) error {
	q.mu.Lock()
	handlers := append([]func(job DispatchJob) error{}, q.handlers...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for dispatch jobs")
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryPublisher) processJob(handler func(job DispatchJob) error, job DispatchJob) {
	const maxRetries = 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := handler(job)
		if err == nil {
			return // ACK
		}
		log.Printf("Dispatch job failed (attempt %d/%d): campaign %d, error: %v\n",
			attempt, maxRetries, job.CampaignID, err)
		if attempt == maxRetries {
			log.Printf("Dispatch job permanently failed after %d attempts: campaign %d\n",
				maxRetries, job.CampaignID)
			return
		}
		// Backoff before retry
		time.Sleep(time.Duration(attempt*500) * time.Millisecond)
	}
}

var _ Publisher = (*AMQPPublisher)(nil)
var _ Publisher = (*InMemoryPublisher)(nil)
