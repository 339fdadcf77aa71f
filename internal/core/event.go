package core

import "time"

// EventAction names the mutation an ExpenseEvent describes.
type EventAction string

const (
	EventCreated EventAction = "created"
	EventUpdated EventAction = "updated"
	EventDeleted EventAction = "deleted"
)

func (a EventAction) IsValid() bool {
	switch a {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

// ExpenseEvent is emitted after a successful mutation of the ledger.
// Expense is the stored row for created events, the first affected row
// for updated events, and nil for deleted ones.
type ExpenseEvent struct {
	Action    EventAction `json:"action"`
	ID        int64       `json:"id"`
	Expense   *Expense    `json:"expense,omitempty"`
	Fields    []string    `json:"fields,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewExpenseEvent(action EventAction, id int64, e *Expense, fields []string) ExpenseEvent {
	return ExpenseEvent{
		Action:    action,
		ID:        id,
		Expense:   e,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}
