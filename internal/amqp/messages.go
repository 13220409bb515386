package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rodger/internal/core"
)

// EventKind names what happened in the ledger.
type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransactionUpdated EventKind = "transaction.updated"
	TransactionDeleted EventKind = "transaction.deleted"
	ItemDeleted        EventKind = "item.deleted"
)

func (k EventKind) IsValid() bool {
	switch k {
	case TransactionCreated, TransactionUpdated, TransactionDeleted, ItemDeleted:
		return true
	}
	return false
}

// LedgerEvent is published after a ledger or registry mutation has been
// persisted. Consumers must not assume delivery: publication is best effort.
type LedgerEvent struct {
	ID           string               `json:"id"`
	Kind         EventKind            `json:"kind"`
	PartitionKey string               `json:"partition_key,omitempty"`
	Position     int                  `json:"position"`
	Serial       int                  `json:"serial,omitempty"`
	CustomerName string               `json:"customer_name,omitempty"`
	ItemName     string               `json:"item_name,omitempty"`
	Amount       float64              `json:"amount,omitempty"`
	Type         core.TransactionType `json:"type,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

// NewTransactionEvent describes a change to the row at position in
// partition key.
func NewTransactionEvent(kind EventKind, key string, position int, tx core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		ID:           uuid.NewString(),
		Kind:         kind,
		PartitionKey: key,
		Position:     position,
		Serial:       tx.Serial,
		CustomerName: tx.CustomerName,
		ItemName:     tx.ItemName,
		Amount:       tx.Amount,
		Timestamp:    time.Now().UTC(),
	}
}

func NewItemDeletedEvent(name string) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Kind:      ItemDeleted,
		ItemName:  name,
		Timestamp: time.Now().UTC(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and sanity-checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Kind.IsValid() {
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", e.ID, err)
	}
	return &e, nil
}
