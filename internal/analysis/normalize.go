package analysis

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/schema"
)

// Column alias chains used when a bank's schema leaves a field unconfigured.
// Structured fields come first, free text last.
var (
	debitAliases  = []string{"Дебет", "debit"}
	creditAliases = []string{"Кредит", "credit"}
	amountAliases = []string{"amount", "Сумма операции", "Сумма"}

	purposeAliases = []string{
		"Назначение платежа",
		"details",
		"Детали",
		"Описание",
		"Description",
	}

	counterpartyAliases = []string{
		"Наименование получателя",
		"Наименование получателя (бенеф)",
		"Наименование получателя (отправителя денег)",
		"Контрагент",
		"Корреспондент",
	}
)

// businessIDPattern matches a Kazakhstani ИИН/БИН: a fixed-length 12-digit
// national identifier embedded in free text.
var businessIDPattern = regexp.MustCompile(`\b\d{12}\b`)

// ParseAmount parses a statement amount cell, tolerating locale formatting:
// non-breaking and narrow spaces as thousands separators, decimal comma.
// "5 576 876,37" → 5576876.37.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	replacer := strings.NewReplacer(" ", "", " ", "", " ", "", ",", ".")
	cleaned := replacer.Replace(s)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Normalize maps every ledger entry onto the canonical transaction shape:
// signed amount (credit positive, debit negative), description, counterparty
// id and display name. It never fails: a row whose amount cannot be resolved
// becomes a zero-amount transaction rather than aborting the batch.
func Normalize(entries []domain.LedgerEntry, reg *schema.Registry) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(entries))
	for _, e := range entries {
		sch, _ := reg.Lookup(e.Bank)

		desc := resolveDescription(e.Row, sch)
		id, name := resolveCounterparty(e.Row, sch, desc)

		txs = append(txs, domain.Transaction{
			Date:             e.Date,
			Amount:           resolveAmount(e.Row, sch),
			Description:      desc,
			CounterpartyID:   id,
			CounterpartyName: name,
			Bank:             e.Bank,
			AccountNumber:    e.AccountNumber,
			SourceFile:       e.SourceFile,
		})
	}
	return txs
}

// pickColumn returns the first candidate column with a non-empty value.
// An empty configured name is skipped, not treated as a match.
func pickColumn(row domain.Row, configured string, aliases []string) (string, bool) {
	candidates := aliases
	if configured != "" {
		candidates = append([]string{configured}, aliases...)
	}
	for _, c := range candidates {
		if v, ok := row[c]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// resolveAmount applies the amount fallback chain:
// canonical signed "amount" column → split debit/credit columns combined as
// credit − debit → bank-configured single signed column → zero.
func resolveAmount(row domain.Row, sch schema.BankSchema) decimal.Decimal {
	if v, ok := row["amount"]; ok {
		if d, ok := ParseAmount(v); ok {
			return d
		}
	}

	debitRaw, haveDebit := pickColumn(row, sch.DebitColumn, debitAliases)
	creditRaw, haveCredit := pickColumn(row, sch.CreditColumn, creditAliases)
	if haveDebit || haveCredit {
		var debit, credit decimal.Decimal
		if haveDebit {
			debit, _ = ParseAmount(debitRaw)
		}
		if haveCredit {
			credit, _ = ParseAmount(creditRaw)
		}
		return credit.Sub(debit.Abs())
	}

	if v, ok := pickColumn(row, sch.AmountColumn, amountAliases); ok {
		if d, ok := ParseAmount(v); ok {
			return d
		}
	}

	return decimal.Zero
}

func resolveDescription(row domain.Row, sch schema.BankSchema) string {
	v, _ := pickColumn(row, sch.PurposeColumn, purposeAliases)
	return v
}

// resolveCounterparty scans the structured counterparty columns first and the
// description text last. Bank-family operation prefixes are stripped, only
// the first line is considered, and a 12-digit national identifier embedded
// in the text becomes the stable grouping key with the preceding text as the
// display name.
func resolveCounterparty(row domain.Row, sch schema.BankSchema, description string) (id, name string) {
	raw, ok := pickColumn(row, sch.CounterpartyColumn, counterpartyAliases)
	if !ok {
		raw = description
	}

	raw = stripPrefixes(raw, sch.DescriptionPrefixes)
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "N/A", "N/A"
	}

	if loc := businessIDPattern.FindStringIndex(raw); loc != nil {
		id = raw[loc[0]:loc[1]]
		name = strings.TrimRight(strings.TrimSpace(raw[:loc[0]]), ",;:-")
		name = strings.TrimSpace(name)
		if name == "" {
			name = id
		}
		return id, name
	}

	return raw, raw
}

func stripPrefixes(s string, prefixes []string) string {
	trimmed := strings.TrimSpace(s)
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, p))
		}
	}
	return trimmed
}
