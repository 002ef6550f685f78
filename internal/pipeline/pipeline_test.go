package pipeline_test

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-analyzer/internal/analysis"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/pipeline"
	"github.com/dvloznov/statement-analyzer/internal/session"
)

// mockIncomeClassifier returns a fixed summary per statement.
type mockIncomeClassifier struct{}

func (mockIncomeClassifier) Classify(_ context.Context, stmt *domain.Statement, _ analysis.Window, _ analysis.ColumnSet) (*analysis.IncomeResult, error) {
	return &analysis.IncomeResult{
		Summary: analysis.IncomeSummary{"total_income": "1000"},
	}, nil
}

func testBatch(t *testing.T) *session.Session {
	t.Helper()
	anchor := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	sess := session.New("Test Client", anchor)

	kaspi := &domain.Statement{
		Bank:          "kaspi_pay",
		SourceFile:    "kaspi.pdf",
		HolderID:      "123456789012",
		HolderName:    "ИП Иванов",
		AccountNumber: "KZ100",
		Rows: []domain.Row{
			{"Дата операции": "10.06.2023", "Кредит": "300 000,00", "Наименование получателя": "ТОО Ромашка 777777777777"},
			{"Дата операции": "11.06.2023", "Дебет": "50 000,00", "Наименование получателя": "ТОО Лютик 888888888888"},
			{"Дата операции": "12.06.2023", "Дебет": "10 000,00", "Назначение платежа": "перевод между своими счетами"},
			{"Дата операции": "10.01.2020", "Кредит": "1,00", "Наименование получателя": "out of window"},
			{"Дата операции": "bad date", "Кредит": "2,00"},
		},
	}
	halyk := &domain.Statement{
		Bank:          "halyk_business",
		SourceFile:    "halyk.pdf",
		HolderID:      "123456789012",
		AccountNumber: "KZ200",
		Rows: []domain.Row{
			{"Дата": "20.07.2023", "Кредит": "100 000,00", "Корреспондент": "ТОО Ромашка 777777777777"},
		},
	}

	for _, s := range []*domain.Statement{kaspi, halyk} {
		if err := sess.Add(s); err != nil {
			t.Fatalf("Add(%s): %v", s.SourceFile, err)
		}
	}
	return sess
}

func TestAnalyzerRun(t *testing.T) {
	sess := testBatch(t)
	analyzer := pipeline.NewAnalyzer(nil, mockIncomeClassifier{})

	report, err := analyzer.Run(context.Background(), sess)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := report.Window.Start.Format("2006-01-02"); got != "2023-03-01" {
		t.Errorf("window start = %s", got)
	}
	if got := report.Window.End.Format("2006-01-02"); got != "2024-02-29" {
		t.Errorf("window end = %s", got)
	}

	// 3 in-window kaspi rows + 1 halyk row; the out-of-window and bad-date
	// rows are gone, the bad date is counted
	if len(report.Ledger) != 4 {
		t.Fatalf("ledger entries = %d, want 4", len(report.Ledger))
	}
	if report.DroppedRows["kaspi.pdf"] != 1 {
		t.Errorf("dropped rows = %v, want kaspi.pdf:1", report.DroppedRows)
	}

	// self-transfer is in the ledger but in neither counterparty table
	if len(report.DebitTop) != 1 {
		t.Fatalf("debit top = %+v, want only ТОО Лютик", report.DebitTop)
	}
	if report.DebitTop[0].CounterpartyID != "888888888888" {
		t.Errorf("debit leader id = %q", report.DebitTop[0].CounterpartyID)
	}
	if report.DebitTop[0].Share != "100%" {
		t.Errorf("debit leader share = %q", report.DebitTop[0].Share)
	}

	// credit flows from both banks group on the same business id
	if len(report.CreditTop) != 1 {
		t.Fatalf("credit top = %+v, want one merged group", report.CreditTop)
	}
	if !report.CreditTop[0].Turnover.Equal(decimal.NewFromInt(400000)) {
		t.Errorf("credit turnover = %s, want 400000", report.CreditTop[0].Turnover)
	}

	var romashka *analysis.NetRow
	for i := range report.RelatedParties {
		if report.RelatedParties[i].CounterpartyID == "777777777777" {
			romashka = &report.RelatedParties[i]
		}
	}
	if romashka == nil {
		t.Fatalf("related parties = %+v, want ТОО Ромашка present", report.RelatedParties)
	}
	if !romashka.Balance.Equal(decimal.NewFromInt(400000)) {
		t.Errorf("related balance = %s, want 400000", romashka.Balance)
	}

	if len(report.Income.Summaries) != 2 {
		t.Errorf("income summaries = %d, want one per statement", len(report.Income.Summaries))
	}

	if len(report.Statements) != 2 || report.Statements[0].BankLabel != "Kaspi Pay" {
		t.Errorf("metadata records = %+v", report.Statements)
	}
}

func TestAnalyzerRunIsDeterministic(t *testing.T) {
	analyzer := pipeline.NewAnalyzer(nil, nil)

	first, err := analyzer.Run(context.Background(), testBatch(t))
	if err != nil {
		t.Fatal(err)
	}
	second, err := analyzer.Run(context.Background(), testBatch(t))
	if err != nil {
		t.Fatal(err)
	}

	// session ids differ; everything derived must not
	first.SessionID, second.SessionID = "", ""
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same batch produced different reports")
	}
}

func TestAnalyzerRunEmptySession(t *testing.T) {
	analyzer := pipeline.NewAnalyzer(nil, nil)
	sess := session.New("", time.Now())

	if _, err := analyzer.Run(context.Background(), sess); err == nil {
		t.Error("Run accepted an empty session")
	}
}

func TestReportSerializesToFlatRecords(t *testing.T) {
	analyzer := pipeline.NewAnalyzer(nil, nil)
	report, err := analyzer.Run(context.Background(), testBatch(t))
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("report does not serialize: %v", err)
	}

	var decoded struct {
		DebitTop []map[string]any `json:"debit_top"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(decoded.DebitTop) == 0 {
		t.Fatal("debit_top missing from serialized report")
	}
	for _, key := range []string{"counterparty_id", "name", "turnover", "share", "coefficient"} {
		if _, ok := decoded.DebitTop[0][key]; !ok {
			t.Errorf("serialized row missing %q", key)
		}
	}
}
