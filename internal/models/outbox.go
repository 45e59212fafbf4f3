package models

import (
	"encoding/json"
	"time"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// OutboxMessage represents an event waiting in the outbox table to be
// published to Kafka.
type OutboxMessage struct {
	ID                 int64        `db:"id" json:"id"`
	AggregateType      string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID        string       `db:"aggregate_id" json:"aggregate_id"`
	EventType          string       `db:"event_type" json:"event_type"`
	Payload            []byte       `db:"payload" json:"payload"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt        *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingAttempts int          `db:"processing_attempts" json:"processing_attempts"`
	LastError          *string      `db:"last_error" json:"last_error,omitempty"`
	Status             OutboxStatus `db:"status" json:"status"`
}

// OutboxMessageEvent is the envelope serialized into an outbox payload.
type OutboxMessageEvent struct {
	EventType   string      `json:"event_type"`
	EventID     string      `json:"event_id"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

func newOrderOutboxMessage(eventType string, orderID string, data interface{}) (*OutboxMessage, error) {
	event := OutboxMessageEvent{
		EventType:   eventType,
		EventID:     GenerateID("evt"),
		AggregateID: orderID,
		OccurredAt:  GetCurrentTime(),
		Data:        data,
	}

	payload, err := json.Marshal(event)

	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		AggregateType:      "order",
		AggregateID:        orderID,
		EventType:          eventType,
		Payload:            payload,
		CreatedAt:          GetCurrentTime(),
		ProcessingAttempts: 0,
		Status:             OutboxStatusPending,
	}, nil
}

// NewOrderCreatedEvent creates the outbox message for a newly received order
func NewOrderCreatedEvent(order *Order) (*OutboxMessage, error) {
	return newOrderOutboxMessage("order_created", order.ID, order)
}

// NewOrderStatusChangedEvent creates the outbox message for a status change.
// The trigger distinguishes timeout rejects from gesture accepts and manual
// advances for downstream consumers.
func NewOrderStatusChangedEvent(order *Order, oldStatus OrderStatus, trigger string) (*OutboxMessage, error) {
	return newOrderOutboxMessage("order_status_changed", order.ID, map[string]interface{}{
		"order_id":   order.ID,
		"old_status": oldStatus,
		"new_status": order.Status,
		"trigger":    trigger,
	})
}
