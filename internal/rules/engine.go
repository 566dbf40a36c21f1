package rules

import (
	"time"

	"go.uber.org/zap"

	"housingreview/internal/domain"
)

// Engine evaluates every applicable rule and builds the Verdict.
type Engine struct {
	registry *Registry
	settings Settings
	now      func() time.Time
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithNow overrides the clock used for Verdict.EvaluatedAt.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine over registry.
func NewEngine(registry *Registry, settings Settings, opts ...EngineOption) *Engine {
	e := &Engine{registry: registry, settings: settings, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the engine's rule settings.
func (e *Engine) Settings() Settings { return e.settings }

// Registry returns the engine's rule registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Validate runs every rule in registration order without short-circuiting.
// Rules whose contexts are absent from the record are reported as not
// applicable and never evaluated. Supplementary documents are deduplicated
// by ID and keep the order in which they were first requested.
func (e *Engine) Validate(record *domain.DocumentRecord, recon *domain.ReconciliationOutcome) *domain.Verdict {
	in := &Input{Record: record, Recon: recon, Settings: e.settings}
	applicable := e.registry.applicable(record)

	verdict := &domain.Verdict{
		Supplementary: []domain.SupplementaryDocument{},
		FiredRules:    []string{},
		EvaluatedAt:   e.now().UTC(),
	}
	seen := make(map[string]bool)
	excluded := false

	for _, rule := range e.registry.rules {
		result := domain.RuleResult{
			RuleID:   rule.ID(),
			RuleName: rule.Name(),
			Category: string(rule.Category()),
		}
		if !applicable[rule.ID()] {
			result.Status = domain.RuleStatusNotApplicable
			verdict.Results = append(verdict.Results, result)
			continue
		}

		out := rule.Evaluate(in)
		result.Status = out.Status()
		result.Messages = out.Messages
		verdict.Results = append(verdict.Results, result)

		if out.Excluded {
			excluded = true
		}
		if out.Excluded || len(out.Supplementary) > 0 {
			verdict.FiredRules = append(verdict.FiredRules, rule.ID())
		}
		for _, doc := range out.Supplementary {
			if seen[doc.ID] {
				continue
			}
			seen[doc.ID] = true
			doc.RuleID = rule.ID()
			verdict.Supplementary = append(verdict.Supplementary, doc)
		}
	}

	switch {
	case excluded:
		verdict.Status = domain.VerdictExcluded
	case len(verdict.Supplementary) > 0:
		verdict.Status = domain.VerdictConditional
	default:
		verdict.Status = domain.VerdictEligible
	}
	verdict.Passed = verdict.Status == domain.VerdictEligible

	zap.L().Debug("rules: validated",
		zap.String("document_id", record.DocumentID),
		zap.String("status", string(verdict.Status)),
		zap.Strings("fired", verdict.FiredRules),
		zap.Int("supplementary", len(verdict.Supplementary)),
	)
	return verdict
}
