package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Change actions carried by LedgerChangedMessage.
const (
	ActionSaved    = "saved"
	ActionDeleted  = "deleted"
	ActionCleared  = "cleared"
	ActionImported = "imported"
)

// Record kinds carried by LedgerChangedMessage.
const (
	KindUser        = "user"
	KindIncome      = "income"
	KindExpense     = "expense"
	KindSavingsGoal = "savings_goal"
	KindAll         = "all"
)

// LedgerChangedMessage announces a mutation of the ledger. It only identifies
// the record; consumers read current data from the store.
type LedgerChangedMessage struct {
	Action    string    `json:"action"`
	Kind      string    `json:"kind"`
	UserID    string    `json:"userId,omitempty"`
	RecordID  string    `json:"recordId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message stamped with the current time.
func NewLedgerChangedMessage(action, kind, userID, recordID string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Action:    action,
		Kind:      kind,
		UserID:    userID,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message and checks it names an action.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Action == "" {
		return nil, fmt.Errorf("ledger changed message without action")
	}
	return &msg, nil
}
