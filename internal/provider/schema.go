package provider

import (
	"housingreview/internal/domain"
)

// FieldKind tells the model how to render a field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindDate
	KindNumber
	KindFlag
)

// FieldSpec is one field the model is asked to extract for a document type.
type FieldSpec struct {
	Path        string
	Kind        FieldKind
	Description string
}

// ClassificationField is the flattened path a classification call answers in.
const ClassificationField = "classification.document_type"

var schemas = map[domain.DocumentType][]FieldSpec{
	domain.DocSaleApplication: {
		{"issue_date", KindDate, "작성일자"},
		{"property_address", KindText, "물건 소재지"},
		{"owner.name", KindText, "소유자 성명 또는 법인명"},
		{"owner.birth_date", KindDate, "소유자 생년월일"},
		{"owner.address", KindText, "소유자 현거주지 주소"},
		{"owner.phone", KindText, "소유자 휴대전화번호"},
		{"owner.email", KindText, "소유자 이메일"},
		{"agent.exists", KindFlag, "대리인 기재 여부"},
		{"agent.name", KindText, "대리인 성명"},
		{"agent.is_realtor", KindFlag, "대리인이 공인중개사인지 여부"},
		{"seal_verification.seal_exists", KindFlag, "인감 날인 여부"},
		{"seal_verification.match_rate", KindNumber, "인감증명서 대비 인감 일치율(%)"},
		{"building_count", KindNumber, "신청 건물 동 수"},
		{"land_area", KindNumber, "대지면적(㎡)"},
		{"approval_date", KindDate, "건물 사용승인일"},
		{"approval_date_match", KindFlag, "사용승인일이 건축물대장 표제부와 일치하는지 여부"},
	},
	domain.DocRentalStatus: {
		{"issue_date", KindDate, "작성일자"},
		{"unit_count", KindNumber, "총 호수"},
		{"rented_units", KindNumber, "임대 중인 호수"},
	},
	domain.DocPowerOfAttorney: {
		{"issue_date", KindDate, "작성일자"},
		{"delegator.name", KindText, "위임인 성명"},
		{"delegate.name", KindText, "수임인 성명"},
		{"seal_match_rate", KindNumber, "위임인 인감 일치율(%)"},
	},
	domain.DocOwnerIdentity: {
		{"id_type", KindText, "신분증 종류"},
		{"name", KindText, "신분증상 성명"},
	},
	domain.DocSealCertificate: {
		{"issue_date", KindDate, "발급일"},
		{"name", KindText, "인감 명의인"},
	},
	domain.DocCorporateDocuments: {
		{"issue_date", KindDate, "법인등기사항증명서 발급일"},
		{"corporation_name", KindText, "법인명"},
		{"registration_number", KindText, "법인등록번호 또는 사업자등록번호"},
		{"executive_count", KindNumber, "등기 임원 수"},
	},
	domain.DocConsentForm: {
		{"issue_date", KindDate, "작성일자"},
		{"owner_signed", KindFlag, "소유자 서명 또는 날인 여부"},
	},
	domain.DocIntegrityPledge: {
		{"issue_date", KindDate, "작성일자"},
		{"owner_signed", KindFlag, "소유자 서명 또는 날인 여부"},
	},
	domain.DocEmployeeConfirmation: {
		{"issue_date", KindDate, "작성일자"},
		{"owner_name", KindText, "소유자 성명"},
	},
	domain.DocRealtorDocuments: {
		{"office_registration", KindFlag, "중개사무소 등록증 포함 여부"},
		{"realtor_name", KindText, "공인중개사 성명"},
	},
	domain.DocBuildingLedgerSummary: {
		{"issue_date", KindDate, "발급일"},
		{"building_count", KindNumber, "총괄표제부상 동 수"},
	},
	domain.DocBuildingLedgerTitle: {
		{"issue_date", KindDate, "발급일"},
		{"approval_date", KindDate, "사용승인일"},
		{"seismic_design", KindFlag, "내진설계 적용 여부"},
		{"outdoor_parking", KindNumber, "옥외 주차 대수"},
		{"indoor_parking", KindNumber, "옥내 주차 대수"},
		{"mechanical_parking", KindNumber, "기계식 주차 대수"},
		{"has_basement", KindFlag, "지하층 유무"},
		{"has_basement_units", KindFlag, "지하층에 거주용 세대가 있는지 여부"},
		{"has_elevator", KindFlag, "승강기 설치 여부"},
		{"has_piloti", KindFlag, "필로티 구조 여부"},
		{"floor_count", KindNumber, "지상 층수"},
	},
	domain.DocBuildingLedgerExclusive: {
		{"issue_date", KindDate, "발급일"},
		{"unit_count", KindNumber, "전유부 호 수"},
		{"min_exclusive_area", KindNumber, "최소 전용면적(㎡)"},
		{"max_exclusive_area", KindNumber, "최대 전용면적(㎡)"},
	},
	domain.DocLandLedger: {
		{"issue_date", KindDate, "발급일"},
		{"land_area", KindNumber, "대지면적(㎡)"},
		{"land_category", KindText, "지목"},
	},
	domain.DocLandUsePlan: {
		{"issue_date", KindDate, "발급일"},
		{"zones", KindText, "지역·지구 목록"},
		{"is_redevelopment_zone", KindFlag, "재정비촉진지구 여부"},
		{"is_maintenance_zone", KindFlag, "정비구역 여부"},
		{"is_public_housing_zone", KindFlag, "공공주택지구 여부"},
		{"is_housing_development_zone", KindFlag, "택지개발지구 여부"},
	},
	domain.DocLandRegistry: {
		{"issue_date", KindDate, "발급일"},
		{"land_area", KindNumber, "대지면적(㎡)"},
		{"owner_name", KindText, "소유자"},
	},
	domain.DocBuildingRegistry: {
		{"issue_date", KindDate, "발급일"},
		{"total_units", KindNumber, "총 호수"},
		{"has_mortgage", KindFlag, "근저당권 설정 여부"},
		{"has_seizure", KindFlag, "압류·가압류 여부"},
		{"has_trust", KindFlag, "신탁 등기 여부"},
		{"is_private_rental_stated", KindFlag, "민간임대주택 부기등기 여부"},
	},
	domain.DocAsBuiltDrawing: {
		{"exterior_finish_material", KindText, "외벽 마감재료"},
		{"exterior_insulation_material", KindText, "외벽 단열재료"},
		{"piloti_finish_material", KindText, "필로티 마감재료"},
		{"piloti_insulation_material", KindText, "필로티 단열재료"},
	},
	domain.DocTestCertificate: {
		{"has_heat_release_test", KindFlag, "열방출시험 항목 여부"},
		{"has_gas_toxicity_test", KindFlag, "가스유해성 시험 항목 여부"},
		{"materials", KindText, "시험 대상 자재명"},
	},
	domain.DocTrustDocuments: {
		{"issue_date", KindDate, "작성일자"},
		{"all_parties_signed", KindFlag, "모든 관계인 서명 여부"},
	},
}

// ownerPaths are the sale application fields the owner fallback call fills.
var ownerPaths = []string{"owner.name", "owner.birth_date", "owner.address", "owner.phone", "owner.email"}

// Schema returns the fields extracted for t.
func Schema(t domain.DocumentType) []FieldSpec {
	return schemas[t]
}

// SchemaPaths returns the full record paths of every field extracted for
// types, in schema order.
func SchemaPaths(types []domain.DocumentType) []string {
	var out []string
	for _, t := range types {
		for _, f := range schemas[t] {
			out = append(out, domain.FieldPath(t, f.Path))
		}
	}
	return out
}

// OwnerPaths returns the full record paths filled by the owner fallback.
func OwnerPaths() []string {
	out := make([]string, 0, len(ownerPaths))
	for _, p := range ownerPaths {
		out = append(out, domain.FieldPath(domain.DocSaleApplication, p))
	}
	return out
}
