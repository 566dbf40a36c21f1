package housing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housingreview/internal/domain"
	"housingreview/internal/reconcile"
	"housingreview/internal/rules"
	"housingreview/internal/rules/housing"
)

var settings = rules.Settings{
	SealMatchThreshold: 45,
	AnnouncementDate:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	MinUnitArea:        16,
	MaxUnitArea:        85,
	MinUnits:           15,
}

// eligibleRecord is a complete individual-owner application that passes
// every rule.
func eligibleRecord() *domain.DocumentRecord {
	r := domain.NewDocumentRecord("app-1")
	set := func(t domain.DocumentType, path, v string) {
		r.MarkPresent(t)
		r.Set(domain.FieldPath(t, path), v, 0.9, "test")
	}
	set(domain.DocSaleApplication, "owner.name", "홍길동")
	set(domain.DocSaleApplication, "owner.birth_date", "1970-01-01")
	set(domain.DocSaleApplication, "owner.address", "서울특별시 중구 세종대로 110")
	set(domain.DocSaleApplication, "owner.phone", "010-1234-5678")
	set(domain.DocSaleApplication, "seal_verification.seal_exists", "true")
	set(domain.DocSaleApplication, "seal_verification.match_rate", "72.5")
	set(domain.DocSaleApplication, "agent.exists", "false")
	set(domain.DocSaleApplication, "building_count", "1")
	set(domain.DocSaleApplication, "land_area", "330.5")
	set(domain.DocSaleApplication, "approval_date", "2021.05.03")
	set(domain.DocOwnerIdentity, "name", "홍길동")
	set(domain.DocSealCertificate, "name", "홍길동")
	set(domain.DocConsentForm, "owner_signed", "true")
	set(domain.DocIntegrityPledge, "owner_signed", "true")
	set(domain.DocBuildingLedgerTitle, "issue_date", "2025-02-01")
	set(domain.DocBuildingLedgerTitle, "approval_date", "2021-05-03")
	set(domain.DocBuildingLedgerTitle, "seismic_design", "true")
	set(domain.DocBuildingLedgerTitle, "has_basement_units", "false")
	set(domain.DocBuildingLedgerTitle, "has_piloti", "false")
	set(domain.DocBuildingLedgerTitle, "outdoor_parking", "8")
	set(domain.DocBuildingLedgerExclusive, "unit_count", "20")
	set(domain.DocBuildingLedgerExclusive, "min_exclusive_area", "29.8")
	set(domain.DocBuildingLedgerExclusive, "max_exclusive_area", "59.9")
	set(domain.DocLandLedger, "issue_date", "2025-02-01")
	set(domain.DocLandLedger, "land_area", "330.5")
	set(domain.DocLandRegistry, "issue_date", "2025-02-01")
	set(domain.DocLandRegistry, "land_area", "330.5㎡")
	set(domain.DocBuildingRegistry, "issue_date", "2025-02-01")
	set(domain.DocBuildingRegistry, "has_seizure", "false")
	set(domain.DocBuildingRegistry, "has_mortgage", "false")
	set(domain.DocBuildingRegistry, "has_trust", "false")
	set(domain.DocAsBuiltDrawing, "exterior_finish_material", "화강석")
	set(domain.DocLandUsePlan, "is_redevelopment_zone", "false")
	return r
}

func validate(t *testing.T, r *domain.DocumentRecord, recon *domain.ReconciliationOutcome, opts ...housing.Option) *domain.Verdict {
	t.Helper()
	return rules.NewEngine(housing.NewRegistry(opts...), settings).Validate(r, recon)
}

func resultFor(v *domain.Verdict, id string) domain.RuleResult {
	for _, r := range v.Results {
		if r.RuleID == id {
			return r
		}
	}
	return domain.RuleResult{}
}

func TestRules_AreRegisteredInOrder(t *testing.T) {
	all := housing.Rules()
	require.Len(t, all, 24)
	assert.Equal(t, "HSG-001", all[0].ID())
	assert.Equal(t, "HSG-024", all[len(all)-1].ID())
}

func TestEligibleApplication(t *testing.T) {
	v := validate(t, eligibleRecord(), nil)

	assert.Equal(t, domain.VerdictEligible, v.Status, v.Results)
	assert.True(t, v.Passed)
	assert.Empty(t, v.Supplementary)
	assert.Empty(t, v.FiredRules)
}

func TestTitleRulesDoNotApplyToSummaryOnlyRecord(t *testing.T) {
	r := domain.NewDocumentRecord("app-2")
	r.MarkPresent(domain.DocBuildingLedgerSummary)
	r.Set("building_ledger_summary.building_count", "2", 0.9, "test")

	v := validate(t, r, nil)

	reg := housing.NewRegistry()
	for _, rule := range reg.ForType(domain.DocBuildingLedgerTitle) {
		assert.Equal(t, domain.RuleStatusNotApplicable, resultFor(v, rule.ID()).Status, rule.ID())
		assert.NotContains(t, v.FiredRules, rule.ID())
	}
	assert.NotContains(t, v.SupplementaryIDs(), housing.DocStructuralSafety)
}

func TestSealThresholdBoundary(t *testing.T) {
	cases := []struct {
		rate  string
		fired bool
	}{
		{"45", false},
		{"45.0", false},
		{"44.9", true},
		{"100", false},
	}
	for _, tc := range cases {
		r := eligibleRecord()
		r.Set("sale_application.seal_verification.match_rate", tc.rate, 0.9, "test")
		v := validate(t, r, nil)
		if tc.fired {
			assert.Contains(t, v.FiredRules, "HSG-005", tc.rate)
			assert.Contains(t, v.SupplementaryIDs(), "seal-certificate", tc.rate)
		} else {
			assert.NotContains(t, v.FiredRules, "HSG-005", tc.rate)
		}
	}
}

func TestAgentSealUsesSharedThreshold(t *testing.T) {
	r := eligibleRecord()
	r.Set("sale_application.agent.exists", "true", 0.9, "test")
	r.MarkPresent(domain.DocPowerOfAttorney)
	r.Set("power_of_attorney.seal_match_rate", "45", 0.9, "test")
	assert.NotContains(t, validate(t, r, nil).FiredRules, "HSG-006")

	r.Set("power_of_attorney.seal_match_rate", "30", 0.9, "test")
	v := validate(t, r, nil)
	assert.Contains(t, v.FiredRules, "HSG-006")
	assert.Contains(t, v.SupplementaryIDs(), "power-of-attorney")
}

func TestApprovalDate_TrustsUpstreamVerdict(t *testing.T) {
	calls := 0
	counting := housing.WithDateComparator(func(a, b string) domain.Tristate {
		calls++
		return housing.CompareDates(a, b)
	})

	r := eligibleRecord()
	r.Set("sale_application.approval_date_match", "true", 0.9, "test")
	r.Set("sale_application.approval_date", "2021년 5월 4일", 0.9, "test")
	v := validate(t, r, nil, counting)
	assert.Equal(t, 0, calls)
	assert.NotContains(t, v.FiredRules, "HSG-007")

	r.Set("sale_application.approval_date_match", "false", 0.9, "test")
	v = validate(t, r, nil, counting)
	assert.Equal(t, 0, calls)
	assert.Contains(t, v.FiredRules, "HSG-007")
}

func TestApprovalDate_ComparesOnceWhenUnknown(t *testing.T) {
	calls := 0
	counting := housing.WithDateComparator(func(a, b string) domain.Tristate {
		calls++
		return housing.CompareDates(a, b)
	})

	v := validate(t, eligibleRecord(), nil, counting)
	assert.Equal(t, 1, calls)
	assert.NotContains(t, v.FiredRules, "HSG-007")

	calls = 0
	r := eligibleRecord()
	r.Set("sale_application.approval_date", "2021-06-03", 0.9, "test")
	v = validate(t, r, nil, counting)
	assert.Equal(t, 1, calls)
	assert.Contains(t, v.FiredRules, "HSG-007")
}

func TestPilotiFinishOnlyCheckedWithPiloti(t *testing.T) {
	r := eligibleRecord()
	v := validate(t, r, nil)
	assert.Equal(t, domain.RuleStatusNotApplicable, resultFor(v, "HSG-014").Status)

	r.Set("building_ledger_title.has_piloti", "unknown", 0.9, "test")
	v = validate(t, r, nil)
	assert.Equal(t, domain.RuleStatusNotApplicable, resultFor(v, "HSG-014").Status)
	assert.NotContains(t, v.SupplementaryIDs(), "as-built-drawing")

	r.Set("building_ledger_title.has_piloti", "있음", 0.9, "test")
	v = validate(t, r, nil)
	assert.Equal(t, domain.RuleStatusSupplement, resultFor(v, "HSG-014").Status)
	assert.Contains(t, v.SupplementaryIDs(), "as-built-drawing")

	r.Set("as_built_drawing.piloti_finish_material", "석재", 0.9, "test")
	r.Set("as_built_drawing.piloti_insulation_material", "그라스울", 0.9, "test")
	v = validate(t, r, nil)
	assert.Equal(t, domain.RuleStatusPassed, resultFor(v, "HSG-014").Status)
}

func TestSeismicDesign(t *testing.T) {
	r := eligibleRecord()
	r.Set("building_ledger_title.seismic_design", "미적용", 0.9, "test")
	v := validate(t, r, nil)
	assert.Equal(t, domain.VerdictExcluded, v.Status)
	assert.Contains(t, v.FiredRules, "HSG-011")

	r = eligibleRecord()
	r.Supersede("building_ledger_title.seismic_design", domain.Field{State: domain.FieldUnresolved})
	v = validate(t, r, nil)
	assert.Equal(t, domain.VerdictConditional, v.Status)
	assert.Contains(t, v.SupplementaryIDs(), housing.DocStructuralSafety)
	assert.Contains(t, v.SupplementaryIDs(), "building-ledger-title", "unresolved key field")
}

func TestRequiredDocumentsMissing(t *testing.T) {
	r := domain.NewDocumentRecord("app-3")
	r.MarkPresent(domain.DocSaleApplication)
	r.Set("sale_application.owner.name", "홍길동", 0.9, "test")

	v := validate(t, r, nil)
	var ids []string
	for _, doc := range v.Supplementary {
		if doc.RuleID == "HSG-001" {
			ids = append(ids, doc.ID)
		}
	}
	assert.Equal(t, []string{"land-ledger", "land-registry", "building-registry", "building-ledger-title", "consent-form", "integrity-pledge"}, ids)
	assert.Contains(t, v.FiredRules, "HSG-002", "owner details beyond the name are missing")
}

func TestOwnerInfoAndUnresolvedNameShareOneEntry(t *testing.T) {
	r := eligibleRecord()
	r.Supersede("sale_application.owner.name", domain.Field{State: domain.FieldUnresolved})

	v := validate(t, r, nil)
	count := 0
	for _, id := range v.SupplementaryIDs() {
		if id == "sale-application" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Contains(t, v.FiredRules, "HSG-002")
	assert.Contains(t, v.FiredRules, "HSG-024")
}

func TestCorporateOwner(t *testing.T) {
	r := eligibleRecord()
	r.Set("sale_application.owner.name", "주식회사 한빛건설", 0.9, "test")
	r.Supersede("sale_application.owner.birth_date", domain.Field{State: domain.FieldUnresolved})

	v := validate(t, r, nil)
	assert.Contains(t, v.SupplementaryIDs(), "corporate-documents")
	assert.Equal(t, domain.RuleStatusNotApplicable, resultFor(v, "HSG-004").Status)
	assert.NotContains(t, v.FiredRules, "HSG-002", "corporations have no birth date")

	r.MarkPresent(domain.DocCorporateDocuments)
	r.Set("corporate_documents.corporation_name", "주식회사 다른건설", 0.9, "test")
	v = validate(t, r, nil)
	assert.Contains(t, v.SupplementaryIDs(), housing.DocOwnerEligibility)
}

func TestIsCorporateName(t *testing.T) {
	for _, n := range []string{"주식회사 한빛", "(주)한빛", "㈜한빛", "한빛건설 유한회사", "Hanbit Co., Ltd."} {
		assert.True(t, housing.IsCorporateName(n), n)
	}
	for _, n := range []string{"홍길동", "", "김법"} {
		assert.False(t, housing.IsCorporateName(n), n)
	}
}

func TestIssueDateBeforeAnnouncement(t *testing.T) {
	r := eligibleRecord()
	r.Set("land_ledger.issue_date", "2024.12.30", 0.9, "test")

	v := validate(t, r, nil)
	assert.Contains(t, v.FiredRules, "HSG-008")
	assert.Contains(t, v.SupplementaryIDs(), "land-ledger")
}

func TestEncumbrances(t *testing.T) {
	r := eligibleRecord()
	r.Set("building_registry.has_seizure", "true", 0.9, "test")
	r.Set("building_registry.has_mortgage", "true", 0.9, "test")
	r.Set("building_registry.has_trust", "true", 0.9, "test")

	v := validate(t, r, nil)
	assert.Equal(t, domain.VerdictExcluded, v.Status)
	assert.Contains(t, v.SupplementaryIDs(), housing.DocMortgageCancellation)
	assert.Contains(t, v.SupplementaryIDs(), "trust-documents")
}

func TestLandUseZoneExcludes(t *testing.T) {
	r := eligibleRecord()
	r.Set("land_use_plan.is_public_housing_zone", "true", 0.9, "test")

	v := validate(t, r, nil)
	assert.Equal(t, domain.VerdictExcluded, v.Status)
	assert.Contains(t, v.FiredRules, "HSG-018")
}

func TestLandAreaTolerance(t *testing.T) {
	r := eligibleRecord()
	r.Set("land_registry.land_area", "332", 0.9, "test")
	assert.NotContains(t, validate(t, r, nil).FiredRules, "HSG-021")

	r.Set("land_registry.land_area", "340", 0.9, "test")
	assert.Contains(t, validate(t, r, nil).FiredRules, "HSG-021")
}

func TestUnitBounds(t *testing.T) {
	r := eligibleRecord()
	r.Set("building_ledger_exclusive.max_exclusive_area", "92.1", 0.9, "test")
	assert.Contains(t, validate(t, r, nil).FiredRules, "HSG-016")

	r = eligibleRecord()
	r.Set("building_ledger_exclusive.unit_count", "12", 0.9, "test")
	v := validate(t, r, nil)
	assert.Equal(t, domain.VerdictExcluded, v.Status)
	assert.Contains(t, v.FiredRules, "HSG-017")
}

func TestExteriorFinish(t *testing.T) {
	r := eligibleRecord()
	r.Set("as_built_drawing.exterior_finish_material", "드라이비트", 0.9, "test")
	assert.Equal(t, domain.VerdictExcluded, validate(t, r, nil).Status)

	r.Set("as_built_drawing.exterior_finish_material", "알루미늄 복합패널", 0.9, "test")
	v := validate(t, r, nil)
	assert.Contains(t, v.SupplementaryIDs(), housing.DocTestCertificateValid)

	r.MarkPresent(domain.DocTestCertificate)
	r.Set("test_certificate.has_heat_release_test", "true", 0.9, "test")
	r.Set("test_certificate.has_gas_toxicity_test", "true", 0.9, "test")
	assert.NotContains(t, validate(t, r, nil).FiredRules, "HSG-015")
}

func TestDisagreementOnKeyField(t *testing.T) {
	r := eligibleRecord()
	r.Supersede("land_ledger.land_area", domain.Field{Value: "330.5", Confidence: 0.5, State: domain.FieldExtracted, Disagreement: true})
	recon := &domain.ReconciliationOutcome{Merged: r, Agreement: map[string]domain.Agreement{"land_ledger.land_area": domain.AgreementDisagree}}

	v := validate(t, r, recon)
	assert.Contains(t, v.FiredRules, "HSG-023")
	assert.Contains(t, v.SupplementaryIDs(), "land-ledger")
	assert.Equal(t, domain.VerdictConditional, v.Status)

	v = validate(t, r, nil)
	assert.Equal(t, domain.RuleStatusNotApplicable, resultFor(v, "HSG-023").Status)
}

func reconciled(t *testing.T, primary, secondary *domain.DocumentRecord) (*domain.DocumentRecord, *domain.ReconciliationOutcome) {
	t.Helper()
	merged, agreement := reconcile.Merge("app-1", primary, secondary)
	return merged, &domain.ReconciliationOutcome{
		PrimaryPass:   "primary",
		SecondaryPass: "secondary",
		Primary:       primary,
		Secondary:     secondary,
		Merged:        merged,
		Agreement:     agreement,
	}
}

func TestDisputedExclusionBecomesSupplement(t *testing.T) {
	primary := eligibleRecord()
	primary.Set("building_ledger_title.has_basement_units", "true", 0.9, "test")
	merged, recon := reconciled(t, primary, eligibleRecord())
	require.Equal(t, domain.AgreementDisagree, recon.Agreement["building_ledger_title.has_basement_units"])

	v := validate(t, merged, recon)
	assert.Equal(t, domain.VerdictConditional, v.Status)
	assert.Equal(t, domain.RuleStatusSupplement, resultFor(v, "HSG-012").Status)
	assert.Contains(t, v.FiredRules, "HSG-012")
	assert.Contains(t, v.FiredRules, "HSG-023")
	assert.Equal(t, []string{"building-ledger-title"}, v.SupplementaryIDs())
}

func TestDisputedExclusionsAcrossRules(t *testing.T) {
	cases := []struct {
		path, value, rule, doc string
	}{
		{"building_ledger_title.seismic_design", "false", "HSG-011", "building-ledger-title"},
		{"as_built_drawing.exterior_finish_material", "드라이비트", "HSG-015", "as-built-drawing"},
		{"building_ledger_exclusive.unit_count", "3", "HSG-017", "building-ledger-exclusive"},
		{"land_use_plan.is_redevelopment_zone", "true", "HSG-018", "land-use-plan"},
		{"building_registry.has_seizure", "true", "HSG-019", "building-registry"},
	}
	for _, tc := range cases {
		primary := eligibleRecord()
		primary.Set(tc.path, tc.value, 0.9, "test")
		merged, recon := reconciled(t, primary, eligibleRecord())

		v := validate(t, merged, recon)
		assert.Equal(t, domain.VerdictConditional, v.Status, tc.path)
		assert.Equal(t, domain.RuleStatusSupplement, resultFor(v, tc.rule).Status, tc.path)
		assert.Contains(t, v.SupplementaryIDs(), tc.doc, tc.path)

		v = validate(t, primary, nil)
		assert.Equal(t, domain.VerdictExcluded, v.Status, tc.path)
	}
}

func TestDisagreementOutsideDecidingFieldsIsReported(t *testing.T) {
	primary := eligibleRecord()
	primary.Set("building_registry.has_mortgage", "true", 0.9, "test")
	merged, recon := reconciled(t, primary, eligibleRecord())

	v := validate(t, merged, recon)
	assert.Contains(t, v.FiredRules, "HSG-023")
	assert.Contains(t, v.SupplementaryIDs(), "building-registry")
}

func TestUnresolvedDocumentIsRequested(t *testing.T) {
	r := eligibleRecord()
	for _, p := range []string{"is_redevelopment_zone", "is_maintenance_zone", "is_public_housing_zone", "is_housing_development_zone", "zones"} {
		r.Supersede(domain.FieldPath(domain.DocLandUsePlan, p), domain.Field{State: domain.FieldUnresolved, Source: "primary/batch-2"})
	}

	v := validate(t, r, nil)
	assert.Equal(t, domain.VerdictConditional, v.Status)
	assert.False(t, v.Passed)
	assert.Equal(t, []string{"land-use-plan"}, v.SupplementaryIDs())
	assert.Equal(t, "HSG-024", v.Supplementary[0].RuleID)
	require.Len(t, resultFor(v, "HSG-024").Messages, 1)
}

func TestUnresolvedFieldsRequestEachDocumentOnce(t *testing.T) {
	r := eligibleRecord()
	r.MarkPresent(domain.DocBuildingLedgerSummary)
	r.MarkUnresolved("building_ledger_summary.building_count", "primary/batch-1")
	r.Supersede("building_registry.has_mortgage", domain.Field{State: domain.FieldUnresolved})
	r.Supersede("building_registry.has_trust", domain.Field{State: domain.FieldUnresolved})

	v := validate(t, r, nil)
	assert.Equal(t, domain.RuleStatusNotApplicable, resultFor(v, "HSG-010").Status)
	assert.Equal(t, domain.RuleStatusSupplement, resultFor(v, "HSG-024").Status)
	assert.Len(t, resultFor(v, "HSG-024").Messages, 2)
	assert.Equal(t, []string{"building-ledger-summary", "building-registry"}, v.SupplementaryIDs())
}
