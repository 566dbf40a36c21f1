package loader_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housingreview/internal/domain"
	"housingreview/internal/loader"
)

func fakeText(pages ...string) loader.Option {
	return loader.WithTextExtractor(func([]byte) ([]string, error) { return pages, nil })
}

func TestDetectType(t *testing.T) {
	cases := []struct {
		text string
		want domain.DocumentType
	}{
		{"일반건축물대장(갑) 표제부", domain.DocBuildingLedgerTitle},
		{"집합건축물대장 총괄표제부", domain.DocBuildingLedgerSummary},
		{"집합건축물대장(전유부, 갑)", domain.DocBuildingLedgerExclusive},
		{"토지이용계획확인서", domain.DocLandUsePlan},
		{"토 지 대 장", domain.DocLandLedger},
		{"등기사항전부증명서(말소사항 포함) - 토지", domain.DocLandRegistry},
		{"등기사항전부증명서 - 집합건물", domain.DocBuildingRegistry},
		{"주택 매도신청서", domain.DocSaleApplication},
		{"인감증명서", domain.DocSealCertificate},
		{"개인정보 수집·이용 동의서", domain.DocConsentForm},
		{"scan_0001", domain.DocUnknown},
		{"", domain.DocUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, loader.DetectType(tc.text), tc.text)
	}
}

func TestLoad_TypesPages(t *testing.T) {
	l := loader.New(fakeText("토지대장\n고유번호 1111010100-10001-0001", ""))

	doc, err := l.Load(context.Background(), "app-1", []loader.File{
		{Name: "ledger.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
		{Name: "위임장.jpg", ContentType: "image/jpeg", Content: []byte{0xff, 0xd8}},
		{Name: "scan.png", Content: []byte{0x89}},
		{Name: "photo.png", Content: []byte{0x89}, DeclaredType: domain.DocOwnerIdentity},
	})
	require.NoError(t, err)
	require.Len(t, doc.Pages, 4)

	assert.Equal(t, domain.DocLandLedger, doc.Pages[0].Type)
	assert.Equal(t, "application/pdf", doc.Pages[0].ContentType)
	assert.Equal(t, domain.DocPowerOfAttorney, doc.Pages[1].Type)
	assert.Equal(t, domain.DocUnknown, doc.Pages[2].Type)
	assert.Equal(t, "image/png", doc.Pages[2].ContentType)
	assert.Equal(t, domain.DocOwnerIdentity, doc.Pages[3].Type)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{doc.Pages[0].Number, doc.Pages[1].Number, doc.Pages[2].Number, doc.Pages[3].Number})
}

func TestLoad_DeclaredTypeWins(t *testing.T) {
	l := loader.New(fakeText("토지대장"))
	doc, err := l.Load(context.Background(), "app-2", []loader.File{
		{Name: "a.pdf", Content: []byte("%PDF"), DeclaredType: domain.DocLandRegistry},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DocLandRegistry, doc.Pages[0].Type)
}

func TestLoad_ExtractorFailureLeavesPageUnknown(t *testing.T) {
	l := loader.New(loader.WithTextExtractor(func([]byte) ([]string, error) { return nil, errors.New("broken xref") }))
	doc, err := l.Load(context.Background(), "app-3", []loader.File{{Name: "scan.pdf", Content: []byte("%PDF")}})
	require.NoError(t, err)
	assert.Equal(t, domain.DocUnknown, doc.Pages[0].Type)
}

func TestLoad_Rejects(t *testing.T) {
	l := loader.New(fakeText())

	_, err := l.Load(context.Background(), "app-4", []loader.File{{Name: "notes.docx", Content: []byte("x")}})
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFileType))

	_, err = l.Load(context.Background(), "app-4", nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidReviewRequest))
}

func TestPDFPageTexts_InvalidInput(t *testing.T) {
	_, err := loader.PDFPageTexts([]byte("not a pdf"))
	assert.Error(t, err)
}
