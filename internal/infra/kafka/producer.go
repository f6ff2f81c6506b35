package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/newsline/accounts-service/internal/core/domain"
	"github.com/newsline/accounts-service/internal/core/port"
	"github.com/newsline/accounts-service/internal/infra/logger"
)

// ActivationEmailEvent is the wire payload published for every
// activation code that must reach the user's mailbox.
type ActivationEmailEvent struct {
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	SentAt    time.Time `json:"sent_at"`
}

// Producer publishes account events through a sarama async producer.
// Delivery results are drained in the background so a slow broker never
// blocks a registration request.
type Producer struct {
	producer sarama.AsyncProducer
	topic    string
	log      *zap.Logger
	done     chan struct{}
}

// NewProducer connects to the brokers and starts the delivery drains.
func NewProducer(brokers []string, topicPrefix string, log *zap.Logger) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &Producer{
		producer: producer,
		topic:    topicPrefix + ".email.activation-code",
		log:      log,
		done:     make(chan struct{}),
	}

	go p.drain()

	return p, nil
}

func (p *Producer) drain() {
	defer close(p.done)

	successes := p.producer.Successes()
	errs := p.producer.Errors()

	for successes != nil || errs != nil {
		select {
		case msg, ok := <-successes:
			if !ok {
				successes = nil
				continue
			}
			p.log.Debug("activation email event delivered",
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.log.Error("activation email event delivery failed",
				zap.String("topic", err.Msg.Topic),
				zap.Error(err.Err),
			)
		}
	}
}

// PublishActivationEmail enqueues the event keyed by recipient so
// retries for one mailbox stay ordered.
func (p *Producer) PublishActivationEmail(ctx context.Context, email domain.ActivationEmail) error {
	event := ActivationEmailEvent{
		Email:     email.Email,
		FirstName: email.FirstName,
		Code:      email.Code,
		ExpiresAt: email.ExpiresAt,
		SentAt:    time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal activation email event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(email.Email),
		Value: sarama.ByteEncoder(payload),
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue activation email event: %w", ctx.Err())
	}
}

// Close flushes pending messages and waits for the drains to finish.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	<-p.done
	return nil
}

var _ port.EmailPublisher = (*Producer)(nil)

// LogPublisher writes activation codes to the log instead of a broker.
// Development environments without Kafka fall back to it so the full
// registration flow stays exercisable.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (s *LogPublisher) PublishActivationEmail(ctx context.Context, email domain.ActivationEmail) error {
	logger.WithContext(ctx).Info("activation email (log publisher)",
		zap.String("email", logger.MaskEmail(email.Email)),
		zap.String("code", email.Code),
		zap.Time("expires_at", email.ExpiresAt),
	)
	return nil
}

var _ port.EmailPublisher = (*LogPublisher)(nil)
