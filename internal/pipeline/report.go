package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-analyzer/internal/analysis"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/dvloznov/statement-analyzer/internal/schema"
	"github.com/dvloznov/statement-analyzer/internal/session"
)

// Report is the complete analytical view for one batch: everything the
// review UI or an exporter needs, as ordered flat records ready for
// row-oriented serialization.
type Report struct {
	SessionID  string                    `json:"session_id,omitempty"`
	ClientName string                    `json:"client_name,omitempty"`
	Window     analysis.Window           `json:"window"`
	Statements []analysis.MetadataRecord `json:"statements"`

	Ledger         []domain.LedgerEntry      `json:"ledger"`
	DebitTop       []analysis.AggregationRow `json:"debit_top"`
	CreditTop      []analysis.AggregationRow `json:"credit_top"`
	RelatedParties []analysis.NetRow         `json:"related_parties"`
	Income         analysis.IncomeCollection `json:"income"`

	DroppedRows map[string]int            `json:"dropped_rows,omitempty"`
	Failed      []analysis.StatementIssue `json:"failed_statements,omitempty"`
}

// Analyzer runs batches through the analysis pipeline with a fixed schema
// registry and an optional income classifier.
type Analyzer struct {
	Registry   *schema.Registry
	Classifier analysis.IncomeClassifier
}

// NewAnalyzer builds an analyzer over the given registry. A nil registry
// falls back to the compiled-in defaults.
func NewAnalyzer(reg *schema.Registry, clf analysis.IncomeClassifier) *Analyzer {
	if reg == nil {
		reg = schema.Default()
	}
	return &Analyzer{Registry: reg, Classifier: clf}
}

// Run executes the full pipeline over a session's batch and assembles the
// report. Per-statement failures (missing date column, classifier errors)
// end up in Report.Failed; they never abort the batch.
func (a *Analyzer) Run(ctx context.Context, sess *session.Session) (*Report, error) {
	if sess.Len() == 0 {
		return nil, fmt.Errorf("pipeline: session %s has no statements", sess.ID)
	}

	log := logger.FromContext(ctx)

	state := &State{
		Statements: sess.Statements(),
		Anchor:     sess.AnchorDate,
	}
	if err := NewBatchAnalysisPipeline(a.Registry, a.Classifier).Execute(ctx, state); err != nil {
		return nil, err
	}

	logBatchOutcome(log, state)

	failed := append([]analysis.StatementIssue{}, state.Ledger.Failed...)
	failed = append(failed, state.Income.Failed...)

	return &Report{
		SessionID:      sess.ID,
		ClientName:     sess.ClientName,
		Window:         state.Window,
		Statements:     analysis.BuildMetadata(state.Statements, a.Registry),
		Ledger:         state.Ledger.Entries,
		DebitTop:       state.Tops.Debit,
		CreditTop:      state.Tops.Credit,
		RelatedParties: state.RelatedParties,
		Income:         state.Income,
		DroppedRows:    state.Ledger.DroppedRows,
		Failed:         failed,
	}, nil
}

func logBatchOutcome(log zerolog.Logger, state *State) {
	for src, n := range state.Ledger.DroppedRows {
		log.Warn().
			Str("source_file", src).
			Int("rows", n).
			Msg("Dropped rows with unparseable dates")
	}
	for _, issue := range state.Ledger.Failed {
		log.Error().
			Str("bank", issue.Bank).
			Str("source_file", issue.SourceFile).
			Err(issue.Err).
			Msg("Statement excluded from ledger")
	}
	log.Info().
		Str("window", state.Window.String()).
		Int("statements", len(state.Statements)).
		Int("ledger_entries", len(state.Ledger.Entries)).
		Int("related_parties", len(state.RelatedParties)).
		Msg("Batch analysis complete")
}
