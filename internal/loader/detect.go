package loader

import (
	"strings"

	"housingreview/internal/domain"
	"housingreview/internal/normalize"
)

// keywordRule maps printed form titles to a document type. All keywords of a
// rule must appear. Rules are tried in order, so more specific titles come
// first.
type keywordRule struct {
	keywords []string
	docType  domain.DocumentType
}

var keywordRules = []keywordRule{
	{[]string{"총괄표제부"}, domain.DocBuildingLedgerSummary},
	{[]string{"전유부"}, domain.DocBuildingLedgerExclusive},
	{[]string{"표제부", "건축물대장"}, domain.DocBuildingLedgerTitle},
	{[]string{"토지이용계획"}, domain.DocLandUsePlan},
	{[]string{"토지대장"}, domain.DocLandLedger},
	{[]string{"신탁원부"}, domain.DocTrustDocuments},
	{[]string{"등기사항", "토지"}, domain.DocLandRegistry},
	{[]string{"등기사항", "건물"}, domain.DocBuildingRegistry},
	{[]string{"임대현황"}, domain.DocRentalStatus},
	{[]string{"매도신청서"}, domain.DocSaleApplication},
	{[]string{"위임장"}, domain.DocPowerOfAttorney},
	{[]string{"법인", "등기"}, domain.DocCorporateDocuments},
	{[]string{"사업자등록증"}, domain.DocCorporateDocuments},
	{[]string{"인감증명"}, domain.DocSealCertificate},
	{[]string{"개인정보", "동의"}, domain.DocConsentForm},
	{[]string{"청렴서약"}, domain.DocIntegrityPledge},
	{[]string{"직원", "확인서"}, domain.DocEmployeeConfirmation},
	{[]string{"중개사무소"}, domain.DocRealtorDocuments},
	{[]string{"시험성적서"}, domain.DocTestCertificate},
	{[]string{"준공도면"}, domain.DocAsBuiltDrawing},
	{[]string{"주민등록증"}, domain.DocOwnerIdentity},
	{[]string{"운전면허증"}, domain.DocOwnerIdentity},
	{[]string{"신분증"}, domain.DocOwnerIdentity},
}

// DetectType guesses the document type from printed text or a file name.
// It returns DocUnknown when no form title is recognized.
func DetectType(text string) domain.DocumentType {
	compact := strings.ReplaceAll(normalize.Text(text), " ", "")
	if compact == "" {
		return domain.DocUnknown
	}
	for _, r := range keywordRules {
		if containsAll(compact, r.keywords) {
			return r.docType
		}
	}
	return domain.DocUnknown
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}
