// Package reconcile runs two independent extraction passes over the same
// document and merges them into a single record with per-field agreement.
package reconcile

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"housingreview/internal/domain"
	"housingreview/internal/normalize"
)

const (
	agreeBoost      = 0.2
	disagreePenalty = 0.6
)

// Extractor produces a record for a document. *extract.Orchestrator
// satisfies it.
type Extractor interface {
	Extract(ctx context.Context, doc *domain.Document, requested []domain.DocumentType) (*domain.DocumentRecord, error)
}

// Pass is one named extraction pass.
type Pass struct {
	Name      string
	Extractor Extractor
}

// Reconciler owns the two passes.
type Reconciler struct {
	a, b Pass
}

// New creates a Reconciler over two distinctly named passes.
func New(a, b Pass) *Reconciler {
	return &Reconciler{a: a, b: b}
}

type passResult struct {
	record *domain.DocumentRecord
	err    error
	took   time.Duration
}

// Reconcile runs both passes concurrently and merges them. primary names the
// pass whose value wins a disagreement; it must be one of the two pass names.
// A pass that fails wholesale is dropped and every field of the surviving
// pass is one-sided. Only when both passes fail is an error returned.
func (r *Reconciler) Reconcile(ctx context.Context, doc *domain.Document, types []domain.DocumentType, primary string) (*domain.ReconciliationOutcome, error) {
	var first, second Pass
	switch primary {
	case r.a.Name:
		first, second = r.a, r.b
	case r.b.Name:
		first, second = r.b, r.a
	default:
		return nil, eris.Wrapf(domain.ErrUnknownPass, "reconcile: %q", primary)
	}

	// Each pass gets its own copy of the document and builds its own record.
	results := make([]passResult, 2)
	var g errgroup.Group
	for i, p := range []Pass{first, second} {
		g.Go(func() error {
			start := time.Now()
			rec, err := p.Extractor.Extract(ctx, cloneDocument(doc), types)
			results[i] = passResult{record: rec, err: err, took: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait()

	logger := zap.L().With(zap.String("document_id", doc.ID))
	for i, p := range []Pass{first, second} {
		if results[i].err != nil {
			logger.Warn("reconcile: pass failed", zap.String("pass", p.Name), zap.Error(results[i].err))
			continue
		}
		logger.Debug("reconcile: pass finished", zap.String("pass", p.Name), zap.Duration("took", results[i].took))
	}

	pr, sr := results[0], results[1]
	if pr.err != nil && sr.err != nil {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrapf(err, "reconcile: document %s", doc.ID)
		}
		return nil, eris.Wrapf(pr.err, "reconcile: both passes failed for document %s (secondary: %v)", doc.ID, sr.err)
	}

	out := &domain.ReconciliationOutcome{
		PrimaryPass:   first.Name,
		SecondaryPass: second.Name,
		Primary:       pr.record,
		Secondary:     sr.record,
	}
	if pr.err != nil {
		out.Primary = nil
	}
	if sr.err != nil {
		out.Secondary = nil
	}
	out.Merged, out.Agreement = Merge(doc.ID, out.Primary, out.Secondary)

	logger.Info("reconcile: merged",
		zap.String("primary", first.Name),
		zap.Int("fields", len(out.Merged.Fields)),
		zap.Int("disagreements", len(out.Disagreements())),
	)
	return out, nil
}

// Merge combines a primary and a secondary record. Either may be nil, in
// which case every resolved field of the other is one-sided. Fields that
// neither record resolved stay unresolved and carry no agreement entry.
func Merge(documentID string, primary, secondary *domain.DocumentRecord) (*domain.DocumentRecord, map[string]domain.Agreement) {
	merged := domain.NewDocumentRecord(documentID)
	agreement := make(map[string]domain.Agreement)

	paths := map[string]bool{}
	for _, rec := range []*domain.DocumentRecord{primary, secondary} {
		if rec == nil {
			continue
		}
		for p := range rec.Fields {
			paths[p] = true
		}
		for t, ok := range rec.Types {
			if ok {
				merged.MarkPresent(t)
			}
		}
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	for _, p := range sorted {
		a, b := resolved(primary, p), resolved(secondary, p)
		switch {
		case a != nil && b != nil && normalize.Equal(a.Value, b.Value):
			conf := maxf(a.Confidence, b.Confidence)
			merged.Confirm(p, a.Value, conf+(1-conf)*agreeBoost, a.Source)
			agreement[p] = domain.AgreementAgree
		case a != nil && b != nil:
			merged.Supersede(p, domain.Field{
				Value:        a.Value,
				Confidence:   a.Confidence * disagreePenalty,
				State:        domain.FieldExtracted,
				Source:       a.Source,
				Disagreement: true,
			})
			agreement[p] = domain.AgreementDisagree
		case a != nil:
			merged.Set(p, a.Value, a.Confidence, a.Source)
			agreement[p] = domain.AgreementOneSided
		case b != nil:
			merged.Set(p, b.Value, b.Confidence, b.Source)
			agreement[p] = domain.AgreementOneSided
		default:
			merged.MarkUnresolved(p, unresolvedSource(primary, secondary, p))
		}
	}
	return merged, agreement
}

func resolved(rec *domain.DocumentRecord, path string) *domain.Field {
	if rec == nil {
		return nil
	}
	f, ok := rec.Get(path)
	if !ok || !f.Resolved() || f.Value == "" {
		return nil
	}
	return f
}

func unresolvedSource(primary, secondary *domain.DocumentRecord, path string) string {
	for _, rec := range []*domain.DocumentRecord{primary, secondary} {
		if rec == nil {
			continue
		}
		if f, ok := rec.Get(path); ok {
			return f.Source
		}
	}
	return ""
}

func cloneDocument(doc *domain.Document) *domain.Document {
	return &domain.Document{ID: doc.ID, Pages: append([]domain.Page(nil), doc.Pages...)}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
