package model

import "time"

// IncomeTransaction is one recorded income row.
type IncomeTransaction struct {
	IncomeID      int64     `json:"income_id"`
	ClientName    string    `json:"client_name"`
	Purpose       string    `json:"purpose"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Currency      string    `json:"currency"`
	Created       time.Time `json:"created"`
	UserID        int64     `json:"user_id"`
}

// IncomeReportRow aggregates income transactions by purpose.
type IncomeReportRow struct {
	Purpose     string  `json:"purpose"`
	TotalAmount float64 `json:"total_amount"`
	Count       int64   `json:"count"`
}
