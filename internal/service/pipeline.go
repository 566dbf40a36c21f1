package service

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"housingreview/internal/domain"
	"housingreview/internal/loader"
	"housingreview/internal/reconcile"
	"housingreview/internal/rules"
)

// PipelineResult is everything one review run produces.
type PipelineResult struct {
	Document       *domain.Document
	Record         *domain.DocumentRecord
	Reconciliation *domain.ReconciliationOutcome
	Verdict        *domain.Verdict
}

// Runner runs the review pipeline over a set of files.
type Runner interface {
	Run(ctx context.Context, documentID string, files []loader.File, dual bool) (*PipelineResult, error)
}

// Pipeline chains loading, extraction (single or dual pass) and rule
// validation. It holds no per-run state.
type Pipeline struct {
	loader     *loader.Loader
	primary    reconcile.Pass
	reconciler *reconcile.Reconciler
	engine     *rules.Engine
}

// NewPipeline creates a Pipeline. A nil secondary disables dual validation.
func NewPipeline(l *loader.Loader, engine *rules.Engine, primary reconcile.Pass, secondary *reconcile.Pass) *Pipeline {
	p := &Pipeline{loader: l, primary: primary, engine: engine}
	if secondary != nil && secondary.Extractor != nil {
		p.reconciler = reconcile.New(primary, *secondary)
	}
	return p
}

// DualAvailable reports whether a secondary pass is configured.
func (p *Pipeline) DualAvailable() bool {
	return p.reconciler != nil
}

// Run loads files, extracts every type found and validates the record. With
// dual set, both passes run and the merged record is validated together
// with the reconciliation outcome.
func (p *Pipeline) Run(ctx context.Context, documentID string, files []loader.File, dual bool) (*PipelineResult, error) {
	doc, err := p.loader.Load(ctx, documentID, files)
	if err != nil {
		return nil, err
	}
	res := &PipelineResult{Document: doc}

	if dual {
		if p.reconciler == nil {
			return nil, eris.Wrap(domain.ErrInvalidReviewRequest, "pipeline: dual validation is not configured")
		}
		outcome, err := p.reconciler.Reconcile(ctx, doc, nil, p.primary.Name)
		if err != nil {
			return nil, err
		}
		res.Reconciliation = outcome
		res.Record = outcome.Merged
	} else {
		record, err := p.primary.Extractor.Extract(ctx, doc, nil)
		if err != nil {
			return nil, err
		}
		res.Record = record
	}

	res.Verdict = p.engine.Validate(res.Record, res.Reconciliation)
	zap.L().Info("pipeline: review evaluated",
		zap.String("document_id", documentID),
		zap.Bool("dual", dual),
		zap.String("verdict", string(res.Verdict.Status)),
		zap.Strings("supplementary", res.Verdict.SupplementaryIDs()),
		zap.Int("disagreements", len(res.Reconciliation.Disagreements())),
	)
	return res, nil
}
