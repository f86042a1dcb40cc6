//go:build integration

package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestRabbitMQEventPublisherIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	amqpURL, err := container.AmqpURL(ctx)
	require.NoError(t, err)
	conn, err := amqp.Dial(amqpURL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	publisher, err := NewRabbitMQEventPublisher(conn, "studio_events_test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { publisher.Close() })

	event := NewStudioEvent(EventResourceAttached, LevelSuccess, "Resource attached.")
	event.SessionID = "s-1"
	event.LessonID = "12"
	require.NoError(t, publisher.PublishStudioEvent(ctx, event))

	consumer, err := conn.Channel()
	require.NoError(t, err)
	defer consumer.Close()
	deliveries, err := consumer.Consume("studio_events_test", "", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		var got StudioEvent
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, EventResourceAttached, got.Kind)
		assert.Equal(t, "12", got.LessonID)
		assert.Equal(t, uint8(amqp.Persistent), d.DeliveryMode)
	case <-time.After(10 * time.Second):
		t.Fatal("event was not delivered")
	}
}
