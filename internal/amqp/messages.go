package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// LedgerEventMessage announces that a transaction was created, updated or
// deleted. It carries only the id and action; consumers fetch the current
// row from the database, so a stale message is harmless.
type LedgerEventMessage struct {
	TransactionID string    `json:"transactionId"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(transactionID, action string) *LedgerEventMessage {
	return &LedgerEventMessage{
		TransactionID: transactionID,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
