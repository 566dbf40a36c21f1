package domain

import "strings"

// DocumentFamily groups document variants that share a paper form.
type DocumentFamily string

const (
	FamilySaleApplication DocumentFamily = "sale_application"
	FamilyBuildingLedger  DocumentFamily = "building_ledger"
	FamilyLand            DocumentFamily = "land"
	FamilyRegistry        DocumentFamily = "registry"
	FamilyOwnerDocuments  DocumentFamily = "owner_documents"
	FamilyDeclarations    DocumentFamily = "declarations"
	FamilyConstruction    DocumentFamily = "construction"
	FamilyUnknown         DocumentFamily = "unknown"
)

// DocumentType is the closed set of document type/variant pairs the system
// recognizes. Ledger variants are distinct types so rule applicability can be
// expressed per variant.
type DocumentType string

const (
	DocSaleApplication         DocumentType = "sale_application"
	DocRentalStatus            DocumentType = "rental_status"
	DocPowerOfAttorney         DocumentType = "power_of_attorney"
	DocOwnerIdentity           DocumentType = "owner_identity"
	DocSealCertificate         DocumentType = "seal_certificate"
	DocCorporateDocuments      DocumentType = "corporate_documents"
	DocConsentForm             DocumentType = "consent_form"
	DocIntegrityPledge         DocumentType = "integrity_pledge"
	DocEmployeeConfirmation    DocumentType = "employee_confirmation"
	DocRealtorDocuments        DocumentType = "realtor_documents"
	DocBuildingLedgerSummary   DocumentType = "building_ledger_summary"
	DocBuildingLedgerTitle     DocumentType = "building_ledger_title"
	DocBuildingLedgerExclusive DocumentType = "building_ledger_exclusive"
	DocLandLedger              DocumentType = "land_ledger"
	DocLandUsePlan             DocumentType = "land_use_plan"
	DocLandRegistry            DocumentType = "land_registry"
	DocBuildingRegistry        DocumentType = "building_registry"
	DocAsBuiltDrawing          DocumentType = "as_built_drawing"
	DocTestCertificate         DocumentType = "test_certificate"
	DocTrustDocuments          DocumentType = "trust_documents"
	DocUnknown                 DocumentType = "unknown"
)

type docTypeInfo struct {
	family DocumentFamily
	label  string
}

var docTypes = map[DocumentType]docTypeInfo{
	DocSaleApplication:         {FamilySaleApplication, "주택매도신청서"},
	DocRentalStatus:            {FamilySaleApplication, "매도신청주택임대현황"},
	DocPowerOfAttorney:         {FamilyOwnerDocuments, "위임장"},
	DocOwnerIdentity:           {FamilyOwnerDocuments, "소유자 신분증"},
	DocSealCertificate:         {FamilyOwnerDocuments, "인감증명서"},
	DocCorporateDocuments:      {FamilyOwnerDocuments, "법인 등기사항증명서"},
	DocConsentForm:             {FamilyDeclarations, "개인정보동의서"},
	DocIntegrityPledge:         {FamilyDeclarations, "청렴서약서"},
	DocEmployeeConfirmation:    {FamilyDeclarations, "공사직원확인서"},
	DocRealtorDocuments:        {FamilyOwnerDocuments, "중개사무소등록증"},
	DocBuildingLedgerSummary:   {FamilyBuildingLedger, "건축물대장 총괄표제부"},
	DocBuildingLedgerTitle:     {FamilyBuildingLedger, "건축물대장 표제부"},
	DocBuildingLedgerExclusive: {FamilyBuildingLedger, "건축물대장 전유부"},
	DocLandLedger:              {FamilyLand, "토지대장"},
	DocLandUsePlan:             {FamilyLand, "토지이용계획확인원"},
	DocLandRegistry:            {FamilyRegistry, "토지 등기사항전부증명서"},
	DocBuildingRegistry:        {FamilyRegistry, "건물 등기사항전부증명서"},
	DocAsBuiltDrawing:          {FamilyConstruction, "준공도면"},
	DocTestCertificate:         {FamilyConstruction, "시험성적서"},
	DocTrustDocuments:          {FamilyRegistry, "신탁원부"},
	DocUnknown:                 {FamilyUnknown, "미확인"},
}

// orderedDocTypes fixes the canonical iteration order.
var orderedDocTypes = []DocumentType{
	DocSaleApplication,
	DocRentalStatus,
	DocPowerOfAttorney,
	DocOwnerIdentity,
	DocSealCertificate,
	DocCorporateDocuments,
	DocConsentForm,
	DocIntegrityPledge,
	DocEmployeeConfirmation,
	DocRealtorDocuments,
	DocBuildingLedgerSummary,
	DocBuildingLedgerTitle,
	DocBuildingLedgerExclusive,
	DocLandLedger,
	DocLandUsePlan,
	DocLandRegistry,
	DocBuildingRegistry,
	DocAsBuiltDrawing,
	DocTestCertificate,
	DocTrustDocuments,
}

// AllDocumentTypes returns every known type except DocUnknown, in canonical order.
func AllDocumentTypes() []DocumentType {
	out := make([]DocumentType, len(orderedDocTypes))
	copy(out, orderedDocTypes)
	return out
}

// Family returns the paper-form family the type belongs to.
func (t DocumentType) Family() DocumentFamily {
	if info, ok := docTypes[t]; ok {
		return info.family
	}
	return FamilyUnknown
}

// Label returns the Korean document name used on forms and in prompts.
func (t DocumentType) Label() string {
	if info, ok := docTypes[t]; ok {
		return info.label
	}
	return string(t)
}

// Valid reports whether t is a recognized, classified type.
func (t DocumentType) Valid() bool {
	_, ok := docTypes[t]
	return ok && t != DocUnknown
}

// Order returns the canonical position of t, or len(AllDocumentTypes()) for unknown values.
func (t DocumentType) Order() int {
	for i, dt := range orderedDocTypes {
		if dt == t {
			return i
		}
	}
	return len(orderedDocTypes)
}

// ParseDocumentType accepts either the identifier or the Korean label.
// Unrecognized input yields DocUnknown.
func ParseDocumentType(s string) DocumentType {
	s = strings.TrimSpace(s)
	if s == "" {
		return DocUnknown
	}
	if _, ok := docTypes[DocumentType(s)]; ok {
		return DocumentType(s)
	}
	compact := strings.ReplaceAll(s, " ", "")
	for t, info := range docTypes {
		if strings.ReplaceAll(info.label, " ", "") == compact {
			return t
		}
	}
	return DocUnknown
}
