package audit

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(EventStatusUpdated, "0xabc", map[string]int{"productId": 4})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, EventStatusUpdated, ev.EventType)
	assert.Equal(t, "0xabc", ev.TxHash)
	assert.False(t, ev.Ts.IsZero())

	var payload map[string]int
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, 4, payload["productId"])
}

func TestNewEventUnmarshallablePayload(t *testing.T) {
	_, err := NewEvent(EventWorkerRegistered, "0xabc", make(chan int))
	assert.Error(t, err)
}

func TestNewKafkaPublisherValidation(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaPublisherConfig{Topic: "audit"})
	assert.Error(t, err)

	_, err = NewKafkaPublisher(KafkaPublisherConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)
}

func TestKafkaPublisherCloseNil(t *testing.T) {
	var p *KafkaPublisher
	assert.NoError(t, p.Close())
}
