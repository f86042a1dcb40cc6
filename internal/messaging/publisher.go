package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventPublisher delivers studio events to whoever listens for them.
type EventPublisher interface {
	PublishStudioEvent(ctx context.Context, event StudioEvent) error
}

// amqpChannel is the part of *amqp.Channel the publisher needs.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitMQEventPublisher struct {
	channel   amqpChannel
	queueName string
	appID     string
	logger    *zap.Logger
}

// NewRabbitMQEventPublisher открывает канал и объявляет durable очередь событий студии.
func NewRabbitMQEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*rabbitMQEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("event publisher: не удалось открыть канал: %w", err)
	}
	if _, err = ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("event publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	logger.Info("Studio events queue declared", zap.String("queue", queueName))
	return newRabbitMQEventPublisher(ch, queueName, logger), nil
}

func newRabbitMQEventPublisher(ch amqpChannel, queueName string, logger *zap.Logger) *rabbitMQEventPublisher {
	return &rabbitMQEventPublisher{
		channel:   ch,
		queueName: queueName,
		appID:     "studio-server",
		logger:    logger.Named("RabbitMQEventPublisher"),
	}
}

func (p *rabbitMQEventPublisher) PublishStudioEvent(ctx context.Context, event StudioEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка подготовки сообщения StudioEvent: %w", err)
	}
	if err := p.publishMessage(ctx, body); err != nil {
		p.logger.Error("Failed to publish studio event",
			zap.String("kind", string(event.Kind)), zap.String("sessionID", event.SessionID), zap.Error(err))
		return err
	}
	return nil
}

// Close закрывает канал паблишера.
func (p *rabbitMQEventPublisher) Close() error {
	return p.channel.Close()
}

func (p *rabbitMQEventPublisher) publishMessage(ctx context.Context, body []byte) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // default exchange
			p.queueName, // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        p.appID,
			},
		)
		if err == nil {
			p.logger.Debug("Message published", zap.String("queue", p.queueName), zap.Int("attempt", attempt))
			return nil
		}
		p.logger.Warn("Publish attempt failed", zap.String("queue", p.queueName), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("ошибка публикации в очередь %s: %w", p.queueName, ctx.Err())
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("ошибка публикации в очередь %s после retries: %w", p.queueName, err)
}

// logEventPublisher пишет события только в лог, когда RabbitMQ не настроен.
type logEventPublisher struct {
	logger *zap.Logger
}

func NewLogEventPublisher(logger *zap.Logger) EventPublisher {
	return &logEventPublisher{logger: logger.Named("StudioEvents")}
}

func (p *logEventPublisher) PublishStudioEvent(_ context.Context, event StudioEvent) error {
	p.logger.Info(event.Message,
		zap.String("kind", string(event.Kind)),
		zap.String("level", string(event.Level)),
		zap.String("sessionID", event.SessionID),
		zap.String("lessonID", event.LessonID))
	return nil
}

// fanoutPublisher sends every event to all publishers and joins their errors.
type fanoutPublisher []EventPublisher

// Fanout combines publishers; nil entries are skipped.
func Fanout(publishers ...EventPublisher) EventPublisher {
	var out fanoutPublisher
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (f fanoutPublisher) PublishStudioEvent(ctx context.Context, event StudioEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishStudioEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
