package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Envelope(t *testing.T) {
	before := time.Now().UTC()
	e := New(CartItemAdded, CartPayload{CartItemID: 1, ProductID: 7, Quantity: 2})

	_, err := uuid.Parse(e.ID)
	require.NoError(t, err)
	assert.Equal(t, CartItemAdded, e.Type)
	assert.False(t, e.OccurredAt.Before(before))

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "cart_item_added", out["type"])
	payload := out["payload"].(map[string]any)
	assert.EqualValues(t, 7, payload["product_id"])
	assert.EqualValues(t, 2, payload["quantity"])
}

func TestProductPayload_PriceIsExact(t *testing.T) {
	raw, err := json.Marshal(ProductPayload{ProductID: 1, Price: decimal.RequireFromString("19.99")})
	require.NoError(t, err)

	var back ProductPayload
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Price.Equal(decimal.RequireFromString("19.99")), back.Price.String())
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher(nil)
	_, ok := p.(NopPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), TopicCart, "1", New(CartCleared, nil)))
	assert.NoError(t, p.Close())

	kp, ok := NewPublisher([]string{"localhost:9092"}).(*KafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, "localhost:9092", kp.w.Addr.String())
	assert.IsType(t, &kafka.Hash{}, kp.w.Balancer)
	assert.Empty(t, kp.w.Topic, "topic is chosen per message")
}
