package model

import "time"

// Debtor is one debtor joined with its client row and outstanding total.
type Debtor struct {
	DebtorID      int64     `json:"debtor_id"`
	ClientID      int64     `json:"client_id"`
	PreferredName string    `json:"preferred_name"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	PhoneNumber   string    `json:"phone_number"`
	TotalDebt     float64   `json:"total_debt"`
	Created       time.Time `json:"created"`
}

// DebtTransaction is one debt owed by a debtor.
type DebtTransaction struct {
	DebtTransactionID int64     `json:"debt_transaction_id"`
	DebtorID          int64     `json:"debtor_id"`
	TotalDebt         float64   `json:"total_debt"`
	DueDate           time.Time `json:"due_date"`
	Created           time.Time `json:"created"`
}
