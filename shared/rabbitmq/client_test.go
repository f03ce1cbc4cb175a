package rabbitmq

import (
	"context"
	"io"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(cfg *Config) *Client {
	return &Client{config: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestPublishing(t *testing.T) {
	c := newTestClient(&Config{RoutingKey: "video-pipeline"})

	t.Run("falls back to configured routing key and JSON", func(t *testing.T) {
		key, pub := c.publishing(Message{MessageID: "m-1", Body: []byte(`{}`)})

		assert.Equal(t, "video-pipeline", key)
		assert.Equal(t, "application/json", pub.ContentType)
		assert.Equal(t, "m-1", pub.MessageId)
		assert.Equal(t, amqp.Persistent, pub.DeliveryMode)
		assert.False(t, pub.Timestamp.IsZero())
	})

	t.Run("message overrides", func(t *testing.T) {
		key, pub := c.publishing(Message{
			RoutingKey:  "other",
			ContentType: "text/plain",
			Headers:     map[string]any{"x-definition": "v2"},
		})

		assert.Equal(t, "other", key)
		assert.Equal(t, "text/plain", pub.ContentType)
		assert.Equal(t, amqp.Table{"x-definition": "v2"}, pub.Headers)
	})
}

func TestClient_RequiresConnection(t *testing.T) {
	c := newTestClient(&Config{})

	err := c.Publish(context.Background(), Message{Body: []byte(`{}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")

	err = c.PublishWithRetry(context.Background(), Message{Body: []byte(`{}`)})
	require.Error(t, err)

	_, err = c.Consume("tag")
	require.Error(t, err)

	assert.False(t, c.IsConnected())
}
