package housing

import (
	"strings"

	"housingreview/internal/domain"
	"housingreview/internal/rules"
)

// Supplementary document identifiers that do not correspond to a submitted
// document type.
const (
	DocStructuralSafety     = "structural-safety-confirmation"
	DocMortgageCancellation = "mortgage-cancellation-consent"
	DocTestCertificateValid = "semi-noncombustible-test-certificate"
	DocOwnerEligibility     = "owner-eligibility-certificate"
)

var extraDocuments = map[string]string{
	DocStructuralSafety:     "구조안전 확인서",
	DocMortgageCancellation: "근저당권 말소 동의서",
	DocTestCertificateValid: "준불연 시험성적서·납품확인서",
	DocOwnerEligibility:     "소유자 자격 확인서류",
}

// DocumentID returns the supplementary document identifier for a submitted
// document type.
func DocumentID(t domain.DocumentType) string {
	return strings.ReplaceAll(string(t), "_", "-")
}

// supplement requests a fresh copy of a submitted document type.
func supplement(t domain.DocumentType, reason string) domain.SupplementaryDocument {
	return domain.SupplementaryDocument{ID: DocumentID(t), Name: t.Label(), Reason: reason}
}

// excludeOn excludes on the fields of t at paths. A field the two passes
// disagreed on asks for a fresh copy of t instead.
func excludeOn(out *rules.Outcome, r *domain.DocumentRecord, t domain.DocumentType, reason string, paths ...string) {
	full := make([]string, len(paths))
	for i, p := range paths {
		full[i] = domain.FieldPath(t, p)
	}
	out.ExcludeOn(r, reason, supplement(t, "이중 검증 불일치로 판단 보류: "+reason), full...)
}

// extra requests a document that is not one of the submitted types.
func extra(id, reason string) domain.SupplementaryDocument {
	return domain.SupplementaryDocument{ID: id, Name: extraDocuments[id], Reason: reason}
}
