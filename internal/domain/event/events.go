// Package event defines the domain events emitted after successful write
// commands. Events are published best-effort through the messaging port;
// a publish failure never fails the originating command.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventID returns the unique identifier for this event instance.
	EventID() string

	// EventType returns the type name of the event (e.g. "stock.item_added").
	EventType() string

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the id of the row that produced this event.
	AggregateID() int64

	// AggregateType returns the kind of row (e.g. "item", "debtor").
	AggregateType() string
}

// BaseEvent provides common fields for all domain events.
type BaseEvent struct {
	eventID       string
	eventType     string
	occurredAt    time.Time
	aggregateID   int64
	aggregateType string
}

// NewBaseEvent creates a BaseEvent stamped with a fresh id and the current
// time.
func NewBaseEvent(eventType string, aggregateID int64, aggregateType string) BaseEvent {
	return BaseEvent{
		eventID:       uuid.NewString(),
		eventType:     eventType,
		occurredAt:    time.Now(),
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
	}
}

func (e BaseEvent) EventID() string       { return e.eventID }
func (e BaseEvent) EventType() string     { return e.eventType }
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }
func (e BaseEvent) AggregateID() int64    { return e.aggregateID }
func (e BaseEvent) AggregateType() string { return e.aggregateType }

// StockItemAdded is emitted when a new stock item is committed.
type StockItemAdded struct {
	BaseEvent
	ItemID     int64  `json:"item_id"`
	CategoryID int64  `json:"category_id"`
	Item       string `json:"item"`
	Category   string `json:"category"`
}

// NewStockItemAdded creates a StockItemAdded event.
func NewStockItemAdded(itemID, categoryID int64, item, category string) StockItemAdded {
	return StockItemAdded{
		BaseEvent:  NewBaseEvent("stock.item_added", itemID, "item"),
		ItemID:     itemID,
		CategoryID: categoryID,
		Item:       item,
		Category:   category,
	}
}

// StockItemArchived is emitted when a stock item is soft-deleted.
type StockItemArchived struct {
	BaseEvent
	ItemID     int64 `json:"item_id"`
	CategoryID int64 `json:"category_id"`
}

// NewStockItemArchived creates a StockItemArchived event.
func NewStockItemArchived(itemID, categoryID int64) StockItemArchived {
	return StockItemArchived{
		BaseEvent:  NewBaseEvent("stock.item_archived", itemID, "item"),
		ItemID:     itemID,
		CategoryID: categoryID,
	}
}

// StockItemRestored is emitted when a soft-delete is undone.
type StockItemRestored struct {
	BaseEvent
	ItemID     int64 `json:"item_id"`
	CategoryID int64 `json:"category_id"`
}

// NewStockItemRestored creates a StockItemRestored event.
func NewStockItemRestored(itemID, categoryID int64) StockItemRestored {
	return StockItemRestored{
		BaseEvent:  NewBaseEvent("stock.item_restored", itemID, "item"),
		ItemID:     itemID,
		CategoryID: categoryID,
	}
}

// IncomeRecorded is emitted when an income transaction is committed.
type IncomeRecorded struct {
	BaseEvent
	IncomeID int64   `json:"income_id"`
	Purpose  string  `json:"purpose"`
	Amount   float64 `json:"amount"`
}

// NewIncomeRecorded creates an IncomeRecorded event.
func NewIncomeRecorded(incomeID int64, purpose string, amount float64) IncomeRecorded {
	return IncomeRecorded{
		BaseEvent: NewBaseEvent("income.recorded", incomeID, "income"),
		IncomeID:  incomeID,
		Purpose:   purpose,
		Amount:    amount,
	}
}

// DebtorAdded is emitted when a debtor and its debts are committed.
type DebtorAdded struct {
	BaseEvent
	DebtorID int64 `json:"debtor_id"`
	ClientID int64 `json:"client_id"`
}

// NewDebtorAdded creates a DebtorAdded event.
func NewDebtorAdded(debtorID, clientID int64) DebtorAdded {
	return DebtorAdded{
		BaseEvent: NewBaseEvent("debtor.added", debtorID, "debtor"),
		DebtorID:  debtorID,
		ClientID:  clientID,
	}
}

// UserSignedIn is emitted after a successful sign-in.
type UserSignedIn struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
}

// NewUserSignedIn creates a UserSignedIn event.
func NewUserSignedIn(userID int64, userName string) UserSignedIn {
	return UserSignedIn{
		BaseEvent: NewBaseEvent("user.signed_in", userID, "user"),
		UserID:    userID,
		UserName:  userName,
	}
}
