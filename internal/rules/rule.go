// Package rules evaluates eligibility rules against an extracted document
// record and folds their outcomes into a Verdict.
package rules

import (
	"housingreview/internal/domain"
)

// Category groups rules for listing and reporting.
type Category string

const (
	CategoryRequired    Category = "required_documents"
	CategoryOwner       Category = "owner"
	CategorySeal        Category = "seal"
	CategoryBuilding    Category = "building"
	CategoryLand        Category = "land"
	CategoryRegistry    Category = "registry"
	CategoryConsistency Category = "consistency"
)

// Rule is one eligibility check.
//
// Contexts lists the document types the rule is written for. The engine only
// evaluates a rule when at least one of those types is present in the
// record; an empty list means the rule always applies.
type Rule interface {
	ID() string
	Name() string
	Category() Category
	Contexts() []domain.DocumentType
	Evaluate(in *Input) Outcome
}

// Input is what a rule sees. Recon is nil for single-pass reviews.
type Input struct {
	Record   *domain.DocumentRecord
	Recon    *domain.ReconciliationOutcome
	Settings Settings
}

// Outcome is the result of evaluating one rule. A rule may exclude the
// application and still request supplementary documents.
type Outcome struct {
	Excluded      bool
	Skipped       bool
	Supplementary []domain.SupplementaryDocument
	Messages      []string
}

// Pass returns a passing outcome.
func Pass(messages ...string) Outcome {
	return Outcome{Messages: messages}
}

// Skip returns an outcome for a rule whose precondition does not hold on
// this record.
func Skip(reason string) Outcome {
	return Outcome{Skipped: true, Messages: []string{reason}}
}

// Require adds a supplementary document request.
func (o *Outcome) Require(doc domain.SupplementaryDocument) {
	o.Supplementary = append(o.Supplementary, doc)
	if doc.Reason != "" {
		o.Messages = append(o.Messages, doc.Reason)
	}
}

// Exclude marks the application as ineligible.
func (o *Outcome) Exclude(reason string) {
	o.Excluded = true
	o.Messages = append(o.Messages, reason)
}

// ExcludeOn excludes the application on the strength of the fields at paths.
// When the two passes disagreed on any of them the exclusion is not trusted
// and doc is requested instead.
func (o *Outcome) ExcludeOn(r *domain.DocumentRecord, reason string, doc domain.SupplementaryDocument, paths ...string) {
	if Disputed(r, paths...) {
		o.Require(doc)
		return
	}
	o.Exclude(reason)
}

// Disputed reports whether the two passes disagreed on any of paths.
func Disputed(r *domain.DocumentRecord, paths ...string) bool {
	for _, p := range paths {
		if f, ok := r.Get(p); ok && f.Disagreement {
			return true
		}
	}
	return false
}

// Note records an informational message.
func (o *Outcome) Note(msg string) {
	o.Messages = append(o.Messages, msg)
}

// Status maps the outcome onto the per-rule status.
func (o *Outcome) Status() domain.RuleStatus {
	switch {
	case o.Excluded:
		return domain.RuleStatusExcluded
	case len(o.Supplementary) > 0:
		return domain.RuleStatusSupplement
	case o.Skipped:
		return domain.RuleStatusNotApplicable
	default:
		return domain.RuleStatusPassed
	}
}
