package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one raw row placed in time and tagged with its provenance.
// The ledger keeps the original row untouched so later stages can resolve
// bank-specific columns from it.
type LedgerEntry struct {
	Date          time.Time `json:"date"`
	Bank          string    `json:"bank"`
	AccountNumber string    `json:"account_number"`
	SourceFile    string    `json:"source_file"`

	Row Row `json:"row"`
}

// Transaction is the canonical view of a ledger entry after schema
// normalization. Amount sign convention: positive = credit (incoming),
// negative = debit (outgoing).
type Transaction struct {
	Date             time.Time       `json:"date"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description"`
	CounterpartyID   string          `json:"counterparty_id"`
	CounterpartyName string          `json:"counterparty_name"`

	Bank          string `json:"bank"`
	AccountNumber string `json:"account_number"`
	SourceFile    string `json:"source_file"`
}
