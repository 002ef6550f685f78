package analysis

import (
	"context"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/schema"
)

// ColumnSet names the bank-specific columns an income classifier needs to
// read from a statement's raw rows.
type ColumnSet struct {
	Date         string
	Credit       string
	PurposeCode  string
	Purpose      string
	Counterparty string
}

// ColumnSetFor builds the classifier column set from the bank's schema.
// The second result is false when the bank is not configured, in which case
// the statement is skipped by income collection.
func ColumnSetFor(bank string, reg *schema.Registry) (ColumnSet, bool) {
	sch, ok := reg.Lookup(bank)
	if !ok {
		return ColumnSet{}, false
	}
	credit := sch.CreditColumn
	if credit == "" {
		credit = sch.AmountColumn
	}
	return ColumnSet{
		Date:         sch.DateColumn,
		Credit:       credit,
		PurposeCode:  sch.PurposeCodeColumn,
		Purpose:      sch.PurposeColumn,
		Counterparty: sch.CounterpartyColumn,
	}, true
}

// IncomeSummary is one statement's monthly income record. The core treats
// its contents as opaque apart from the provenance keys it adds itself.
type IncomeSummary map[string]any

// IncomeResult is what a classifier returns for one statement: the windowed
// rows enriched with income-eligibility flags, plus a summary record. Either
// part may be empty when the statement had nothing classifiable.
type IncomeResult struct {
	Transactions []domain.Row
	Summary      IncomeSummary
}

// IncomeClassifier is the external per-transaction income-classification
// engine. It categorizes entrepreneurial income from payment-purpose codes
// and keywords; this package only fans statements into it and collects the
// outputs.
type IncomeClassifier interface {
	Classify(ctx context.Context, stmt *domain.Statement, w Window, cols ColumnSet) (*IncomeResult, error)
}

// IncomeCollection is the concatenated classifier output across a batch.
type IncomeCollection struct {
	Transactions []domain.Row     `json:"transactions,omitempty"`
	Summaries    []IncomeSummary  `json:"summaries,omitempty"`
	Failed       []StatementIssue `json:"failed,omitempty"`
}

// CollectIncome runs the classifier per statement and concatenates results,
// tagging every enriched row and summary with its bank, account number and
// source file. Classifier errors are collected per statement, never fatal
// for the batch. Statements for banks without a schema contribute nothing.
func CollectIncome(
	ctx context.Context,
	clf IncomeClassifier,
	statements []*domain.Statement,
	w Window,
	reg *schema.Registry,
) IncomeCollection {
	var out IncomeCollection
	if clf == nil {
		return out
	}

	for _, stmt := range statements {
		cols, ok := ColumnSetFor(stmt.Bank, reg)
		if !ok {
			continue
		}

		res, err := clf.Classify(ctx, stmt, w, cols)
		if err != nil {
			out.Failed = append(out.Failed, StatementIssue{
				Bank:       stmt.Bank,
				SourceFile: stmt.SourceFile,
				Err:        err,
				Message:    err.Error(),
			})
			continue
		}
		if res == nil {
			continue
		}

		for _, row := range res.Transactions {
			tagged := row.Clone()
			tagged["bank"] = stmt.Bank
			tagged["account_number"] = stmt.AccountNumber
			tagged["source_file"] = stmt.SourceFile
			out.Transactions = append(out.Transactions, tagged)
		}

		if res.Summary != nil {
			summary := IncomeSummary{
				"bank":           stmt.Bank,
				"account_number": stmt.AccountNumber,
				"source_file":    stmt.SourceFile,
			}
			for k, v := range res.Summary {
				if _, taken := summary[k]; !taken {
					summary[k] = v
				}
			}
			out.Summaries = append(out.Summaries, summary)
		}
	}

	return out
}
