package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housingreview/internal/domain"
)

func TestDocumentRecord_SetNeverOverwritesConfirmed(t *testing.T) {
	r := domain.NewDocumentRecord("doc-1")
	path := domain.FieldPath(domain.DocSaleApplication, "owner.name")

	require.True(t, r.Confirm(path, "홍길동", 0.95, "reconcile"))
	assert.False(t, r.Set(path, "홍길순", 0.99, "batch-2"))
	assert.False(t, r.Fill(path, "홍길순", 0.99, "owner"))
	assert.False(t, r.MarkUnresolved(path, "batch-3"))

	f, ok := r.Get(path)
	require.True(t, ok)
	assert.Equal(t, "홍길동", f.Value)
	assert.Equal(t, domain.FieldConfirmed, f.State)

	r.Supersede(path, domain.Field{Value: "홍길순", State: domain.FieldExtracted, Source: "manual"})
	assert.Equal(t, "홍길순", r.Text(domain.DocSaleApplication, "owner.name"))
}

func TestDocumentRecord_SetLastWriterWinsForExtracted(t *testing.T) {
	r := domain.NewDocumentRecord("doc-1")
	path := domain.FieldPath(domain.DocLandLedger, "area")

	r.Set(path, "120.5", 0.8, "batch-1")
	r.Set(path, "121.0", 0.7, "batch-2")

	assert.Equal(t, "121.0", r.Text(domain.DocLandLedger, "area"))
}

func TestDocumentRecord_EmptyValuesIgnored(t *testing.T) {
	r := domain.NewDocumentRecord("doc-1")
	assert.False(t, r.Set("land_ledger.area", "   ", 0.9, "batch-1"))
	_, ok := r.Get("land_ledger.area")
	assert.False(t, ok)
}

func TestDocumentRecord_FillOnlyEmpty(t *testing.T) {
	r := domain.NewDocumentRecord("doc-1")
	name := domain.FieldPath(domain.DocSaleApplication, "owner.name")
	addr := domain.FieldPath(domain.DocSaleApplication, "owner.address")

	r.Set(name, "홍길동", 0.9, "batch-1")
	r.MarkUnresolved(addr, "batch-1")

	assert.False(t, r.Fill(name, "김철수", 0.9, "owner"))
	assert.True(t, r.Fill(addr, "서울시 중구", 0.9, "owner"))
	assert.Equal(t, "홍길동", r.Text(domain.DocSaleApplication, "owner.name"))
	assert.Equal(t, "서울시 중구", r.Text(domain.DocSaleApplication, "owner.address"))
}

func TestDocumentRecord_MarkUnresolvedKeepsResolvedValue(t *testing.T) {
	r := domain.NewDocumentRecord("doc-1")
	r.Set("land_ledger.area", "100", 0.9, "batch-1")

	assert.False(t, r.MarkUnresolved("land_ledger.area", "batch-2"))
	assert.Empty(t, r.UnresolvedFields())
	assert.True(t, r.HasUsableFields())
}

func TestDocumentRecord_HasUsableFields(t *testing.T) {
	r := domain.NewDocumentRecord("doc-1")
	assert.False(t, r.HasUsableFields())

	r.MarkUnresolved("land_ledger.area", "batch-1")
	assert.False(t, r.HasUsableFields())
	assert.Equal(t, []string{"land_ledger.area"}, r.UnresolvedFields())
}

func TestDocumentRecord_TypedAccessors(t *testing.T) {
	r := domain.NewDocumentRecord("doc-1")
	r.Set("land_ledger.area", "1,234.5㎡", 0.9, "b")
	r.Set("building_ledger_title.has_piloti", "있음", 0.9, "b")
	r.Set("sale_application.seal_verification.match_rate", "47.5%", 0.9, "b")

	area, ok := r.Float(domain.DocLandLedger, "area")
	require.True(t, ok)
	assert.InDelta(t, 1234.5, area, 0.0001)

	rate, ok := r.Float(domain.DocSaleApplication, "seal_verification.match_rate")
	require.True(t, ok)
	assert.InDelta(t, 47.5, rate, 0.0001)

	assert.Equal(t, domain.True, r.Bool(domain.DocBuildingLedgerTitle, "has_piloti"))
	assert.Equal(t, domain.Unknown, r.Bool(domain.DocBuildingLedgerTitle, "has_elevator"))

	_, ok = r.Float(domain.DocLandLedger, "missing")
	assert.False(t, ok)
}

func TestDocumentRecord_CloneIsIndependent(t *testing.T) {
	r := domain.NewDocumentRecord("doc-1")
	r.Set("land_ledger.area", "100", 0.9, "b")
	r.MarkPresent(domain.DocLandLedger)

	c := r.Clone()
	c.Set("land_ledger.area", "200", 0.9, "b")
	c.MarkPresent(domain.DocLandUsePlan)

	assert.Equal(t, "100", r.Text(domain.DocLandLedger, "area"))
	assert.False(t, r.Present(domain.DocLandUsePlan))
}

func TestDocumentRecord_PresentTypesCanonicalOrder(t *testing.T) {
	r := domain.NewDocumentRecord("doc-1")
	r.MarkPresent(domain.DocLandLedger)
	r.MarkPresent(domain.DocSaleApplication)
	r.MarkPresent(domain.DocBuildingLedgerTitle)
	r.MarkPresent(domain.DocUnknown)

	assert.Equal(t, []domain.DocumentType{
		domain.DocSaleApplication,
		domain.DocBuildingLedgerTitle,
		domain.DocLandLedger,
	}, r.PresentTypes())
}

func TestParseTristate(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Tristate
	}{
		{"true", domain.True},
		{"있음", domain.True},
		{"일치", domain.True},
		{"false", domain.False},
		{"없음", domain.False},
		{"", domain.Unknown},
		{"maybe", domain.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ParseTristate(tt.in))
		})
	}
}

func TestParseDocumentType(t *testing.T) {
	assert.Equal(t, domain.DocBuildingLedgerTitle, domain.ParseDocumentType("building_ledger_title"))
	assert.Equal(t, domain.DocBuildingLedgerSummary, domain.ParseDocumentType("건축물대장총괄표제부"))
	assert.Equal(t, domain.DocUnknown, domain.ParseDocumentType("기타"))
	assert.Equal(t, domain.FamilyBuildingLedger, domain.DocBuildingLedgerExclusive.Family())
	assert.False(t, domain.DocUnknown.Valid())
}
