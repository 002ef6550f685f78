package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/schema"
)

// MissingDateColumnError reports a statement whose rows carry no usable
// operation-date column. Such a statement cannot be placed in time, so its
// whole contribution to the ledger fails.
type MissingDateColumnError struct {
	Bank       string
	SourceFile string
	Tried      []string
}

func (e *MissingDateColumnError) Error() string {
	return fmt.Sprintf("%s/%s: no operation-date column found (tried %s)",
		e.Bank, e.SourceFile, strings.Join(e.Tried, ", "))
}

// StatementIssue pairs a failed statement with the error that excluded it.
// One bad statement never loses the rest of the batch.
type StatementIssue struct {
	Bank       string `json:"bank"`
	SourceFile string `json:"source_file"`
	Err        error  `json:"-"`
	Message    string `json:"error"`
}

// LedgerResult is the merged, window-filtered, deduplicated transaction table
// plus per-statement observability counters.
type LedgerResult struct {
	Entries []domain.LedgerEntry `json:"entries"`

	// DroppedRows counts rows excluded per source file because their date
	// column did not parse. The rows themselves are silently absent from
	// Entries; the count keeps the loss observable.
	DroppedRows map[string]int `json:"dropped_rows,omitempty"`

	// Failed lists statements whose contribution was skipped entirely.
	Failed []StatementIssue `json:"failed,omitempty"`
}

// dateLayouts are tried in order when parsing operation dates. Statement
// extractors emit day-first formats; ISO appears when a run is re-ingested
// from exported data.
var dateLayouts = []string{
	"02.01.2006",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02.01.06",
}

// ParseDate parses a statement cell as a calendar date. The result is
// truncated to midnight UTC so window comparison and dedup work at day
// granularity.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// resolveDateColumn picks the operation-date column for one statement:
// the bank's configured column first, then the shared alias chain. It only
// accepts a column that actually occurs in the statement's rows.
func resolveDateColumn(stmt *domain.Statement, reg *schema.Registry) (string, []string) {
	var candidates []string
	if sch, ok := reg.Lookup(stmt.Bank); ok && sch.DateColumn != "" {
		candidates = append(candidates, sch.DateColumn)
	}
	candidates = append(candidates, schema.DateAliases...)

	present := make(map[string]bool)
	for _, row := range stmt.Rows {
		for col := range row {
			present[col] = true
		}
	}
	for _, c := range candidates {
		if present[c] {
			return c, candidates
		}
	}
	return "", candidates
}

// BuildLedger merges the statements' rows into one chronologically-scoped
// table: resolve each statement's date column, parse dates (unparseable rows
// are dropped and counted), tag provenance, keep only in-window rows and
// collapse duplicates on the (bank, account, date) composite key, first
// occurrence winning. Input statements are never mutated; ordering of the
// result is insertion order.
func BuildLedger(statements []*domain.Statement, w Window, reg *schema.Registry) LedgerResult {
	result := LedgerResult{
		DroppedRows: make(map[string]int),
	}
	seen := make(map[string]bool)

	for _, stmt := range statements {
		if len(stmt.Rows) == 0 {
			continue
		}

		dateCol, tried := resolveDateColumn(stmt, reg)
		if dateCol == "" {
			err := &MissingDateColumnError{Bank: stmt.Bank, SourceFile: stmt.SourceFile, Tried: tried}
			result.Failed = append(result.Failed, StatementIssue{
				Bank:       stmt.Bank,
				SourceFile: stmt.SourceFile,
				Err:        err,
				Message:    err.Error(),
			})
			continue
		}

		for _, row := range stmt.Rows {
			date, ok := ParseDate(row[dateCol])
			if !ok {
				result.DroppedRows[stmt.SourceFile]++
				continue
			}
			if !w.Contains(date) {
				continue
			}

			if stmt.Bank != "" && stmt.AccountNumber != "" {
				key := stmt.Bank + "\x00" + stmt.AccountNumber + "\x00" + date.Format("2006-01-02")
				if seen[key] {
					continue
				}
				seen[key] = true
			}

			result.Entries = append(result.Entries, domain.LedgerEntry{
				Date:          date,
				Bank:          stmt.Bank,
				AccountNumber: stmt.AccountNumber,
				SourceFile:    stmt.SourceFile,
				Row:           row.Clone(),
			})
		}
	}

	return result
}
