package amqp

import (
	"encoding/json"
	"fmt"

	"ledger/internal/core"
)

// ContentType of every message published by Client.
const ContentType = "application/json"

// EncodeEvent serialises an expense event for publishing.
func EncodeEvent(event core.ExpenseEvent) ([]byte, error) {
	if !event.Action.IsValid() {
		return nil, fmt.Errorf("unknown event action %q", event.Action)
	}
	return json.Marshal(event)
}

// DecodeEvent parses a message body produced by EncodeEvent.
func DecodeEvent(data []byte) (core.ExpenseEvent, error) {
	var event core.ExpenseEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return core.ExpenseEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if !event.Action.IsValid() {
		return core.ExpenseEvent{}, fmt.Errorf("unknown event action %q", event.Action)
	}
	if event.ID <= 0 {
		return core.ExpenseEvent{}, fmt.Errorf("invalid expense id %d", event.ID)
	}
	return event, nil
}
