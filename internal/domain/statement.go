package domain

import (
	"time"
)

// Row is one raw transaction record exactly as a bank-specific extractor
// produced it: column name → cell text. Column names differ per bank
// ("Дата операции" vs "Дата" vs "date"); the schema registry resolves them.
type Row map[string]string

// Clone returns an independent copy of the row. Analysis stages never mutate
// caller-owned rows; anything derived is attached to a copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Statement is one parsed bank document: header metadata plus the ordered
// transaction rows extracted from it. Statements are created by the external
// per-bank parsers and are treated as immutable by the analysis core.
type Statement struct {
	Bank          string    `json:"bank"`
	SourceFile    string    `json:"source_file"`
	HolderName    string    `json:"holder_name"`
	HolderID      string    `json:"holder_id"` // ИИН/БИН of the account holder
	AccountNumber string    `json:"account_number"`
	PeriodFrom    time.Time `json:"period_from"`
	PeriodTo      time.Time `json:"period_to"`
	GeneratedAt   time.Time `json:"generated_at"`

	Rows []Row `json:"rows"`
}
