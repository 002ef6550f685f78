package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-analyzer/internal/domain"
)

// NetRow is one related-party entry: the counterparty's signed debit and
// credit totals, net balance and absolute turnover across the whole window.
type NetRow struct {
	CounterpartyID string          `json:"counterparty_id"`
	Name           string          `json:"name"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Balance        decimal.Decimal `json:"balance"`
	Turnover       decimal.Decimal `json:"turnover"`
	Coefficient    int             `json:"coefficient"`
}

// NetRelatedParties computes the per-counterparty net position over the
// self-transfer-filtered transaction set. Unlike the Top-9 views this table
// is exhaustive: one row per distinct (id, name) pair, no ranking and no
// truncation, since it exists for manual review of every recurring
// counterparty. Row order is first appearance.
func NetRelatedParties(txs []domain.Transaction) []NetRow {
	filtered := filterSelfTransfers(txs)

	index := make(map[string]int)
	var rows []NetRow

	for _, tx := range filtered {
		key := tx.CounterpartyID + "\x00" + tx.CounterpartyName
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, NetRow{
				CounterpartyID: tx.CounterpartyID,
				Name:           tx.CounterpartyName,
				Coefficient:    1,
			})
		}

		r := &rows[i]
		if tx.Amount.IsNegative() {
			r.Debit = r.Debit.Add(tx.Amount)
		} else {
			r.Credit = r.Credit.Add(tx.Amount)
		}
		r.Balance = r.Balance.Add(tx.Amount)
		r.Turnover = r.Turnover.Add(tx.Amount.Abs())
	}

	return rows
}
