package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kleihaven/internal/shared/config"
	"kleihaven/pkg/logger"

	"github.com/IBM/sarama"
)

// Consumer drains the notification topic and delivers emails
type Consumer interface {
	Start(ctx context.Context, numWorkers int) error
	Stop() error
}

// ConsumerConfig contains Kafka consumer group configuration
type ConsumerConfig struct {
	Brokers        []string
	GroupID        string
	Topics         []string
	SessionTimeout time.Duration
	Heartbeat      time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

// NewConsumerConfig builds consumer configuration from app config
func NewConsumerConfig(cfg config.KafkaConfig) *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.ConsumerGroup,
		Topics:         []string{cfg.NotificationTopic},
		SessionTimeout: 30 * time.Second,
		Heartbeat:      3 * time.Second,
		MaxRetries:     3,
		RetryBackoff:   time.Second,
	}
}

// KafkaConsumer consumes booking notifications and hands them to the email service
type KafkaConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	emailService  EmailService
	log           *logger.Logger
	cancel        context.CancelFunc
}

// NewKafkaConsumer creates a new Kafka notification consumer
func NewKafkaConsumer(cfg *ConsumerConfig, emailService EmailService, log *logger.Logger) (Consumer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = cfg.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = cfg.Heartbeat
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaConsumer{
		consumerGroup: consumerGroup,
		config:        cfg,
		emailService:  emailService,
		log:           log,
	}, nil
}

// Start launches the consumer workers
func (kc *KafkaConsumer) Start(ctx context.Context, numWorkers int) error {
	ctx, kc.cancel = context.WithCancel(ctx)

	go kc.handleErrors()

	for i := 0; i < numWorkers; i++ {
		go kc.runWorker(ctx, i)
	}

	kc.log.Info("Notification consumer workers started",
		slog.Int("workers", numWorkers),
		slog.Any("topics", kc.config.Topics),
	)
	return nil
}

func (kc *KafkaConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &consumerGroupHandler{
		workerID:     workerID,
		emailService: kc.emailService,
		maxRetries:   kc.config.MaxRetries,
		retryBackoff: kc.config.RetryBackoff,
		log:          kc.log,
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := kc.consumerGroup.Consume(ctx, kc.config.Topics, handler); err != nil {
				kc.log.Error("Consumer error", slog.Int("worker", workerID), slog.Any("error", err))
				time.Sleep(time.Second)
			}
		}
	}
}

func (kc *KafkaConsumer) handleErrors() {
	for err := range kc.consumerGroup.Errors() {
		kc.log.Error("Consumer group error", slog.Any("error", err))
	}
}

// Stop shuts down the consumer group
func (kc *KafkaConsumer) Stop() error {
	if kc.cancel != nil {
		kc.cancel()
	}
	if err := kc.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

type consumerGroupHandler struct {
	workerID     int
	emailService EmailService
	maxRetries   int
	retryBackoff time.Duration
	log          *logger.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			if err := h.processMessage(session.Context(), message); err != nil {
				h.log.Error("Failed to process notification",
					slog.Int("worker", h.workerID), slog.Any("error", err))
			}
			// Mark regardless: a notification that exhausted its retries is
			// dropped, it never blocks the partition.
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	notification, err := FromJSON(message.Value)
	if err != nil {
		return err
	}

	return h.sendWithRetry(ctx, notification)
}

func (h *consumerGroupHandler) sendWithRetry(ctx context.Context, notification *BookingNotification) error {
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		err := h.emailService.SendNotification(ctx, notification)
		if err == nil {
			notification.Status = NotificationStatusSent
			return nil
		}

		if attempt == h.maxRetries {
			notification.Status = NotificationStatusFailed
			return fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}

		// Exponential backoff
		delay := h.retryBackoff * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
