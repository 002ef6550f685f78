package analysis

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-analyzer/internal/domain"
)

// OthersID is the sentinel counterparty id of the synthetic remainder row.
const OthersID = "OTHERS"

// OthersLabel is its display name.
const OthersLabel = "Others"

// topSize is how many counterparties are kept verbatim before the remainder
// is folded into one row.
const topSize = 9

// selfTransferKeywords mark movements between the holder's own accounts.
// Matched case-insensitively against description and counterparty name.
// Self-transfers are not economic activity with third parties and are
// excluded from counterparty analysis entirely.
var selfTransferKeywords = []string{
	"со своего счета",
	"между своими",
	"перевод между своими",
	"between own accounts",
	"own account",
	"internal transfer",
	"с карты другого банка",
}

// AggregationRow is one ranked counterparty entry of a Top-9+Others table.
type AggregationRow struct {
	CounterpartyID string          `json:"counterparty_id"`
	Name           string          `json:"name"`
	Turnover       decimal.Decimal `json:"turnover"`
	Share          string          `json:"share"`
	Coefficient    int             `json:"coefficient"`
}

// TopTables holds the two ranked turnover views: outgoing and incoming.
type TopTables struct {
	Debit  []AggregationRow `json:"debit_top"`
	Credit []AggregationRow `json:"credit_top"`
}

func isSelfTransfer(tx domain.Transaction) bool {
	desc := strings.ToLower(tx.Description)
	name := strings.ToLower(tx.CounterpartyName)
	for _, kw := range selfTransferKeywords {
		if strings.Contains(desc, kw) || strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// filterSelfTransfers returns the transactions with self-transfers removed,
// preserving order.
func filterSelfTransfers(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !isSelfTransfer(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// AggregateTopN builds the debit and credit Top-9+Others tables from the
// canonical transaction set. A side with no rows yields an empty table.
func AggregateTopN(txs []domain.Transaction) TopTables {
	filtered := filterSelfTransfers(txs)
	return TopTables{
		Debit:  rankSide(filtered, true),
		Credit: rankSide(filtered, false),
	}
}

type turnoverGroup struct {
	id       string
	name     string
	turnover decimal.Decimal
}

// rankSide groups one flow direction by counterparty id, ranks groups by
// absolute turnover and folds everything past the ninth group into the
// Others row. The table never exceeds ten rows and its turnover always sums
// to the side's total.
func rankSide(txs []domain.Transaction, debit bool) []AggregationRow {
	groups := make(map[string]*turnoverGroup)
	var order []*turnoverGroup

	for _, tx := range txs {
		if debit && !tx.Amount.IsNegative() {
			continue
		}
		if !debit && !tx.Amount.IsPositive() {
			continue
		}
		g, ok := groups[tx.CounterpartyID]
		if !ok {
			// first-seen name becomes the group label
			g = &turnoverGroup{id: tx.CounterpartyID, name: tx.CounterpartyName}
			groups[tx.CounterpartyID] = g
			order = append(order, g)
		}
		g.turnover = g.turnover.Add(tx.Amount.Abs())
	}

	if len(order) == 0 {
		return nil
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].turnover.GreaterThan(order[j].turnover)
	})

	total := decimal.Zero
	for _, g := range order {
		total = total.Add(g.turnover)
	}

	top := order
	if len(order) > topSize {
		top = order[:topSize]
		others := decimal.Zero
		for _, g := range order[topSize:] {
			others = others.Add(g.turnover)
		}
		top = append(top, &turnoverGroup{id: OthersID, name: OthersLabel, turnover: others})
	}

	rows := make([]AggregationRow, 0, len(top))
	for _, g := range top {
		rows = append(rows, AggregationRow{
			CounterpartyID: g.id,
			Name:           g.name,
			Turnover:       g.turnover,
			Share:          FormatShare(g.turnover, total),
			Coefficient:    1,
		})
	}
	return rows
}

var (
	hundred    = decimal.NewFromInt(100)
	tinyShare  = decimal.RequireFromString("0.1")
	onePercent = decimal.NewFromInt(1)
)

// FormatShare renders turnover's share of total as a stable percentage label:
// zero → "0%", below 0.1% → "<0.1%" (a genuinely tiny but nonzero share is
// never rendered as nothing), below 1% → one decimal place, otherwise the
// nearest whole percent. A zero total is guarded and yields "0%".
func FormatShare(turnover, total decimal.Decimal) string {
	if total.IsZero() || turnover.IsZero() {
		return "0%"
	}
	share := turnover.Mul(hundred).Div(total)
	switch {
	case share.LessThan(tinyShare):
		return "<0.1%"
	case share.LessThan(onePercent):
		return share.StringFixed(1) + "%"
	default:
		return share.Round(0).String() + "%"
	}
}
