// Package audit streams write-through events (registrations, status
// updates) to downstream consumers and archives them to object storage.
// Emission is best-effort: a failed emit is logged by the caller and
// never rolls back the on-chain write it describes.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventWorkerRegistered  = "worker.registered"
	EventProductRegistered = "product.registered"
	EventStatusUpdated     = "status.updated"
)

// Event is one write-through record.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	EventType string          `json:"eventType"`
	TxHash    string          `json:"txHash"`
	Payload   json.RawMessage `json:"payload"`
	Ts        time.Time       `json:"ts"`
}

func NewEvent(eventType, txHash string, payload interface{}) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:        uuid.New(),
		EventType: eventType,
		TxHash:    txHash,
		Payload:   body,
		Ts:        time.Now().UTC(),
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, ev Event) error { return nil }
func (NopPublisher) Close() error                                { return nil }
