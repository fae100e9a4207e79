package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderEventWireFormat(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	body, err := json.Marshal(OrderEvent{
		Type:        EventOrderPlaced,
		OrderID:     "CKT_12345678_54321",
		UserID:      "u1",
		Status:      "Order Placed",
		TotalAmount: 998,
		At:          at,
	})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "order.placed", raw["type"])
	assert.Equal(t, "CKT_12345678_54321", raw["orderId"])
	assert.Equal(t, "u1", raw["userId"])
	assert.Equal(t, 998.0, raw["totalAmount"])

	event, err := DecodeOrderEvent(body)
	require.NoError(t, err)
	assert.True(t, at.Equal(event.At))
}

func TestDecodeOrderEventRejectsIncomplete(t *testing.T) {
	_, err := DecodeOrderEvent([]byte(`{"type":"order.placed"}`))
	assert.Error(t, err)

	_, err = DecodeOrderEvent([]byte(`not json`))
	assert.Error(t, err)
}
