// Package model holds the record types that flow through result payloads.
// These are row projections of the persisted schema, not aggregates; the
// SQL managers construct them directly from scanned rows.
package model

import "time"

// StockItem is one tracked inventory item joined with its category, unit
// and current quantity.
type StockItem struct {
	ItemID      int64     `json:"item_id"`
	CategoryID  int64     `json:"category_id"`
	Category    string    `json:"category"`
	Item        string    `json:"item"`
	Description string    `json:"description"`
	Divisible   bool      `json:"divisible"`
	Image       string    `json:"image"`
	Quantity    float64   `json:"quantity"`
	UnitID      int64     `json:"unit_id"`
	Unit        string    `json:"unit"`
	CostPrice   float64   `json:"cost_price"`
	RetailPrice float64   `json:"retail_price"`
	Currency    string    `json:"currency"`
	Created     time.Time `json:"created"`
	LastEdited  time.Time `json:"last_edited"`
	UserID      int64     `json:"user_id"`
}

// StockCategory is one unarchived category row.
type StockCategory struct {
	CategoryID int64  `json:"category_id"`
	Category   string `json:"category"`
}
