package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/schema"
)

// mockClassifier is a test double for the external income classifier.
type mockClassifier struct {
	classifyFunc func(ctx context.Context, stmt *domain.Statement, w Window, cols ColumnSet) (*IncomeResult, error)
	calls        []ColumnSet
}

func (m *mockClassifier) Classify(ctx context.Context, stmt *domain.Statement, w Window, cols ColumnSet) (*IncomeResult, error) {
	m.calls = append(m.calls, cols)
	if m.classifyFunc != nil {
		return m.classifyFunc(ctx, stmt, w, cols)
	}
	return nil, nil
}

func TestCollectIncomeTagsAndConcatenates(t *testing.T) {
	statements := []*domain.Statement{
		{Bank: "kaspi_pay", AccountNumber: "KZ1", SourceFile: "a.pdf"},
		{Bank: "halyk_business", AccountNumber: "KZ2", SourceFile: "b.pdf"},
	}

	clf := &mockClassifier{
		classifyFunc: func(_ context.Context, stmt *domain.Statement, _ Window, _ ColumnSet) (*IncomeResult, error) {
			return &IncomeResult{
				Transactions: []domain.Row{{"ip_flag": "true"}},
				Summary:      IncomeSummary{"total_income": "100"},
			}, nil
		},
	}

	w := ComputeWindow(date(2024, time.March, 15))
	out := CollectIncome(context.Background(), clf, statements, w, schema.Default())

	if len(out.Transactions) != 2 {
		t.Fatalf("transactions = %d, want 2", len(out.Transactions))
	}
	if got := out.Transactions[0]["bank"]; got != "kaspi_pay" {
		t.Errorf("first row bank tag = %q, want kaspi_pay", got)
	}
	if got := out.Transactions[1]["source_file"]; got != "b.pdf" {
		t.Errorf("second row source tag = %q, want b.pdf", got)
	}

	if len(out.Summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(out.Summaries))
	}
	if out.Summaries[0]["account_number"] != "KZ1" || out.Summaries[0]["total_income"] != "100" {
		t.Errorf("summary not tagged/merged: %+v", out.Summaries[0])
	}
}

func TestCollectIncomePassesBankColumns(t *testing.T) {
	statements := []*domain.Statement{
		{Bank: "kaspi_pay", SourceFile: "a.pdf"},
	}
	clf := &mockClassifier{}

	CollectIncome(context.Background(), clf, statements, testWindow(), schema.Default())

	if len(clf.calls) != 1 {
		t.Fatalf("classifier called %d times, want 1", len(clf.calls))
	}
	cols := clf.calls[0]
	if cols.Date != "Дата операции" || cols.Credit != "Кредит" || cols.PurposeCode != "КНП" {
		t.Errorf("column set = %+v, want kaspi_pay schema columns", cols)
	}
}

func TestCollectIncomeSkipsUnknownBank(t *testing.T) {
	statements := []*domain.Statement{
		{Bank: "unknown_bank", SourceFile: "x.pdf"},
	}
	clf := &mockClassifier{}

	out := CollectIncome(context.Background(), clf, statements, testWindow(), schema.Default())
	if len(clf.calls) != 0 {
		t.Errorf("classifier called for unconfigured bank")
	}
	if len(out.Transactions) != 0 || len(out.Summaries) != 0 || len(out.Failed) != 0 {
		t.Errorf("unexpected output for unconfigured bank: %+v", out)
	}
}

func TestCollectIncomeErrorIsPerStatement(t *testing.T) {
	statements := []*domain.Statement{
		{Bank: "kaspi_pay", SourceFile: "bad.pdf"},
		{Bank: "kaspi_pay", SourceFile: "good.pdf"},
	}

	clf := &mockClassifier{
		classifyFunc: func(_ context.Context, stmt *domain.Statement, _ Window, _ ColumnSet) (*IncomeResult, error) {
			if stmt.SourceFile == "bad.pdf" {
				return nil, errors.New("boom")
			}
			return &IncomeResult{Summary: IncomeSummary{"ok": true}}, nil
		},
	}

	out := CollectIncome(context.Background(), clf, statements, testWindow(), schema.Default())
	if len(out.Failed) != 1 || out.Failed[0].SourceFile != "bad.pdf" {
		t.Fatalf("failed = %+v, want bad.pdf only", out.Failed)
	}
	if len(out.Summaries) != 1 {
		t.Errorf("summaries = %d, want 1 from the good statement", len(out.Summaries))
	}
}

func TestCollectIncomeNilClassifier(t *testing.T) {
	out := CollectIncome(context.Background(), nil, []*domain.Statement{{Bank: "kaspi_pay"}}, testWindow(), schema.Default())
	if len(out.Transactions) != 0 || len(out.Summaries) != 0 {
		t.Errorf("nil classifier produced output: %+v", out)
	}
}
