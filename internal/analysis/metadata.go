package analysis

import (
	"time"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/schema"
)

// MetadataRecord is one statement's header line in the batch overview table.
type MetadataRecord struct {
	SourceFile    string `json:"source_file"`
	Bank          string `json:"bank"`
	BankLabel     string `json:"bank_label"`
	HolderName    string `json:"holder_name"`
	HolderID      string `json:"holder_id"`
	AccountNumber string `json:"account_number"`
	PeriodFrom    string `json:"period_from,omitempty"`
	PeriodTo      string `json:"period_to,omitempty"`
	GeneratedAt   string `json:"generated_at,omitempty"`
	Rows          int    `json:"rows"`
}

// BuildMetadata flattens statement headers into one record per statement,
// in batch order.
func BuildMetadata(statements []*domain.Statement, reg *schema.Registry) []MetadataRecord {
	records := make([]MetadataRecord, 0, len(statements))
	for _, stmt := range statements {
		records = append(records, MetadataRecord{
			SourceFile:    stmt.SourceFile,
			Bank:          stmt.Bank,
			BankLabel:     reg.Label(stmt.Bank),
			HolderName:    stmt.HolderName,
			HolderID:      stmt.HolderID,
			AccountNumber: stmt.AccountNumber,
			PeriodFrom:    formatDate(stmt.PeriodFrom),
			PeriodTo:      formatDate(stmt.PeriodTo),
			GeneratedAt:   formatDate(stmt.GeneratedAt),
			Rows:          len(stmt.Rows),
		})
	}
	return records
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
