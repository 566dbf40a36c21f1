package rules_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housingreview/internal/domain"
	"housingreview/internal/rules"
)

type stubRule struct {
	id       string
	contexts []domain.DocumentType
	outcome  rules.Outcome
	calls    int
}

func (s *stubRule) ID() string                      { return s.id }
func (s *stubRule) Name() string                    { return "stub " + s.id }
func (s *stubRule) Category() rules.Category        { return rules.CategoryConsistency }
func (s *stubRule) Contexts() []domain.DocumentType { return s.contexts }
func (s *stubRule) Evaluate(*rules.Input) rules.Outcome {
	s.calls++
	return s.outcome
}

func requireDoc(id string) rules.Outcome {
	var out rules.Outcome
	out.Require(domain.SupplementaryDocument{ID: id, Name: id, Reason: "needed"})
	return out
}

func recordWith(types ...domain.DocumentType) *domain.DocumentRecord {
	r := domain.NewDocumentRecord("doc")
	for _, t := range types {
		r.MarkPresent(t)
	}
	return r
}

var fixedNow = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

func TestEngine_ContextGating(t *testing.T) {
	titleOnly := &stubRule{id: "T-1", contexts: []domain.DocumentType{domain.DocBuildingLedgerTitle}, outcome: requireDoc("x")}
	summary := &stubRule{id: "S-1", contexts: []domain.DocumentType{domain.DocBuildingLedgerSummary}}
	always := &stubRule{id: "A-1"}
	reg := rules.NewRegistry().MustRegister(titleOnly, summary, always)

	v := rules.NewEngine(reg, rules.Settings{}, rules.WithNow(fixedNow)).
		Validate(recordWith(domain.DocBuildingLedgerSummary), nil)

	assert.Equal(t, 0, titleOnly.calls)
	assert.Equal(t, 1, summary.calls)
	assert.Equal(t, 1, always.calls)
	require.Len(t, v.Results, 3)
	assert.Equal(t, domain.RuleStatusNotApplicable, v.Results[0].Status)
	assert.Equal(t, domain.RuleStatusPassed, v.Results[1].Status)
	assert.Empty(t, v.FiredRules)
	assert.Equal(t, domain.VerdictEligible, v.Status)
	assert.True(t, v.Passed)
	assert.Equal(t, fixedNow(), v.EvaluatedAt)
}

func TestEngine_DeduplicatesSupplementaryInFirstTriggeredOrder(t *testing.T) {
	a := &stubRule{id: "R-1", outcome: requireDoc("owner-eligibility-certificate")}
	b := &stubRule{id: "R-2", outcome: requireDoc("land-ledger")}
	c := &stubRule{id: "R-3", outcome: requireDoc("owner-eligibility-certificate")}
	reg := rules.NewRegistry().MustRegister(a, b, c)

	v := rules.NewEngine(reg, rules.Settings{}).Validate(recordWith(), nil)

	assert.Equal(t, []string{"owner-eligibility-certificate", "land-ledger"}, v.SupplementaryIDs())
	assert.Equal(t, "R-1", v.Supplementary[0].RuleID)
	assert.Equal(t, []string{"R-1", "R-2", "R-3"}, v.FiredRules)
	assert.Equal(t, domain.VerdictConditional, v.Status)
	assert.False(t, v.Passed)
}

func TestEngine_DoesNotShortCircuitOnExclusion(t *testing.T) {
	var excl rules.Outcome
	excl.Exclude("seizure")
	first := &stubRule{id: "R-1", outcome: excl}
	second := &stubRule{id: "R-2", outcome: requireDoc("trust-documents")}
	reg := rules.NewRegistry().MustRegister(first, second)

	v := rules.NewEngine(reg, rules.Settings{}).Validate(recordWith(), nil)

	assert.Equal(t, 1, second.calls)
	assert.Equal(t, domain.VerdictExcluded, v.Status)
	assert.Equal(t, []string{"trust-documents"}, v.SupplementaryIDs())
	assert.Equal(t, domain.RuleStatusExcluded, v.Results[0].Status)
	assert.Equal(t, domain.RuleStatusSupplement, v.Results[1].Status)
}

func TestEngine_SkippedRuleIsNotApplicable(t *testing.T) {
	r := &stubRule{id: "R-1", outcome: rules.Skip("no agent")}
	v := rules.NewEngine(rules.NewRegistry().MustRegister(r), rules.Settings{}).Validate(recordWith(), nil)

	assert.Equal(t, domain.RuleStatusNotApplicable, v.Results[0].Status)
	assert.Equal(t, []string{"no agent"}, v.Results[0].Messages)
}

func TestRegistry_RejectsDuplicatesAndInvalidContexts(t *testing.T) {
	reg := rules.NewRegistry()
	require.NoError(t, reg.Register(&stubRule{id: "R-1"}))
	assert.Error(t, reg.Register(&stubRule{id: "R-1"}))
	assert.Error(t, reg.Register(&stubRule{id: ""}))
	assert.Error(t, reg.Register(&stubRule{id: "R-2", contexts: []domain.DocumentType{domain.DocUnknown}}))

	title := &stubRule{id: "R-3", contexts: []domain.DocumentType{domain.DocBuildingLedgerTitle}}
	require.NoError(t, reg.Register(title))
	assert.Len(t, reg.ForType(domain.DocBuildingLedgerTitle), 1)
	assert.Empty(t, reg.ForType(domain.DocBuildingLedgerSummary))
	assert.Len(t, reg.All(), 2)
	assert.NotNil(t, reg.Get("R-3"))
}

func TestSettings_SealMatchesIsInclusive(t *testing.T) {
	s := rules.Settings{SealMatchThreshold: 45}
	assert.True(t, s.SealMatches(45))
	assert.True(t, s.SealMatches(45.1))
	assert.False(t, s.SealMatches(44.99))
}

func TestOutcome_ExcludeOnDisputedFieldRequestsDocument(t *testing.T) {
	r := domain.NewDocumentRecord("doc")
	r.Set("building_registry.has_seizure", "true", 0.9, "primary")
	recheck := domain.SupplementaryDocument{ID: "building-registry", Reason: "recheck"}

	var out rules.Outcome
	out.ExcludeOn(r, "seizure", recheck, "building_registry.has_seizure")
	assert.True(t, out.Excluded)
	assert.Empty(t, out.Supplementary)

	r.Supersede("building_registry.has_seizure", domain.Field{Value: "true", State: domain.FieldExtracted, Disagreement: true})
	out = rules.Outcome{}
	out.ExcludeOn(r, "seizure", recheck, "building_registry.has_mortgage", "building_registry.has_seizure")
	assert.False(t, out.Excluded)
	assert.Equal(t, domain.RuleStatusSupplement, out.Status())
	assert.Equal(t, []domain.SupplementaryDocument{recheck}, out.Supplementary)
	assert.True(t, rules.Disputed(r, "building_registry.has_seizure"))
	assert.False(t, rules.Disputed(r, "building_registry.has_mortgage"))
}
