// Package model holds the records exchanged with the budget spreadsheet.
package model

import (
	"github.com/shopspring/decimal"
)

// Transaction is one committed budget entry. Note may be empty.
type Transaction struct {
	// Date is rendered as DD.MM.YYYY.
	Date     string
	Amount   decimal.Decimal
	Category string
	Wallet   string
	Note     string
}

// WalletBalance is a read-only projection of a wallet row.
type WalletBalance struct {
	Name     string
	Balance  decimal.Decimal
	Currency string
}

// UnknownCurrency is used when a wallet row has no currency cell.
const UnknownCurrency = "unknown"
