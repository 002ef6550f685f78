// Package pipeline orchestrates a full batch analysis: window → ledger →
// normalization → turnover ranking → related-party netting → income
// classification. Every step is a pure transform over the shared State;
// running the same batch twice yields identical reports.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/statement-analyzer/internal/analysis"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/schema"
)

// State holds the shared state across all analysis steps.
type State struct {
	Statements []*domain.Statement
	Anchor     time.Time

	Window         analysis.Window
	Ledger         analysis.LedgerResult
	Canonical      []domain.Transaction
	Tops           analysis.TopTables
	RelatedParties []analysis.NetRow
	Income         analysis.IncomeCollection
}

// Step is a single stage of the analysis pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// ComputeWindowStep derives the 12-month window from the anchor date.
type ComputeWindowStep struct{}

func (s *ComputeWindowStep) Execute(ctx context.Context, state *State) error {
	state.Window = analysis.ComputeWindow(state.Anchor)
	return nil
}

// BuildLedgerStep merges, windows and deduplicates the statements' rows.
type BuildLedgerStep struct {
	Registry *schema.Registry
}

func (s *BuildLedgerStep) Execute(ctx context.Context, state *State) error {
	state.Ledger = analysis.BuildLedger(state.Statements, state.Window, s.Registry)
	return nil
}

// NormalizeStep maps ledger entries onto the canonical transaction shape.
type NormalizeStep struct {
	Registry *schema.Registry
}

func (s *NormalizeStep) Execute(ctx context.Context, state *State) error {
	state.Canonical = analysis.Normalize(state.Ledger.Entries, s.Registry)
	return nil
}

// AggregateStep builds the debit/credit Top-9+Others tables.
type AggregateStep struct{}

func (s *AggregateStep) Execute(ctx context.Context, state *State) error {
	state.Tops = analysis.AggregateTopN(state.Canonical)
	return nil
}

// NetRelatedPartiesStep computes the exhaustive per-counterparty net table.
type NetRelatedPartiesStep struct{}

func (s *NetRelatedPartiesStep) Execute(ctx context.Context, state *State) error {
	state.RelatedParties = analysis.NetRelatedParties(state.Canonical)
	return nil
}

// CollectIncomeStep fans the statements into the external income classifier
// and concatenates its outputs. With a nil classifier it is a no-op.
type CollectIncomeStep struct {
	Registry   *schema.Registry
	Classifier analysis.IncomeClassifier
}

func (s *CollectIncomeStep) Execute(ctx context.Context, state *State) error {
	state.Income = analysis.CollectIncome(ctx, s.Classifier, state.Statements, state.Window, s.Registry)
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// New creates a pipeline with the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially against the state.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewBatchAnalysisPipeline creates the standard six-step pipeline for one
// batch of statements.
func NewBatchAnalysisPipeline(reg *schema.Registry, clf analysis.IncomeClassifier) *Pipeline {
	return New(
		&ComputeWindowStep{},
		&BuildLedgerStep{Registry: reg},
		&NormalizeStep{Registry: reg},
		&AggregateStep{},
		&NetRelatedPartiesStep{},
		&CollectIncomeStep{Registry: reg, Classifier: clf},
	)
}
