// Package housing holds the built-in eligibility rules for housing purchase
// applications.
package housing

import (
	"housingreview/internal/domain"
	"housingreview/internal/rules"
)

// builtinRule adapts a rule function and its metadata to rules.Rule.
type builtinRule struct {
	id       string
	name     string
	category rules.Category
	contexts []domain.DocumentType
	fn       func(*rules.Input) rules.Outcome
}

func (b *builtinRule) ID() string                             { return b.id }
func (b *builtinRule) Name() string                           { return b.name }
func (b *builtinRule) Category() rules.Category               { return b.category }
func (b *builtinRule) Contexts() []domain.DocumentType        { return b.contexts }
func (b *builtinRule) Evaluate(in *rules.Input) rules.Outcome { return b.fn(in) }

type options struct {
	compareDates DateComparator
}

// Option customizes the built-in rule set.
type Option func(*options)

// WithDateComparator replaces the comparison used by the approval-date rule
// when no upstream verdict is available.
func WithDateComparator(c DateComparator) Option {
	return func(o *options) { o.compareDates = c }
}

// Rules returns the built-in rules in evaluation order.
func Rules(opts ...Option) []rules.Rule {
	o := options{compareDates: CompareDates}
	for _, opt := range opts {
		opt(&o)
	}
	return []rules.Rule{
		requiredDocumentsRule(),
		ownerInfoRule(),
		corporateOwnerRule(),
		individualOwnerRule(),
		applicationSealRule(),
		agentRule(),
		approvalDateRule(o.compareDates),
		issueDateRule(),
		multiBuildingRule(),
		buildingCountRule(),
		seismicDesignRule(),
		basementUnitsRule(),
		parkingRule(),
		pilotiRule(),
		exteriorFinishRule(),
		unitAreaRule(),
		unitCountRule(),
		landUseZoneRule(),
		encumbranceRule(),
		privateRentalRule(),
		landAreaRule(),
		realtorRule(),
		disagreementRule(),
		unresolvedRule(),
	}
}

// NewRegistry returns a registry holding the built-in rules.
func NewRegistry(opts ...Option) *rules.Registry {
	return rules.NewRegistry().MustRegister(Rules(opts...)...)
}
