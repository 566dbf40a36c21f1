package housing

import (
	"housingreview/internal/domain"
	"housingreview/internal/rules"
)

func encumbranceRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-019",
		name:     "권리 제한 사항",
		category: rules.CategoryRegistry,
		contexts: []domain.DocumentType{domain.DocBuildingRegistry},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			var out rules.Outcome
			if r.Bool(domain.DocBuildingRegistry, "has_seizure").IsTrue() {
				excludeOn(&out, r, domain.DocBuildingRegistry, "압류·가압류 등기 존재", "has_seizure")
			}
			if r.Bool(domain.DocBuildingRegistry, "has_mortgage").IsTrue() {
				out.Require(extra(DocMortgageCancellation, "근저당권 설정 주택"))
			}
			if r.Bool(domain.DocBuildingRegistry, "has_trust").IsTrue() {
				switch {
				case !r.Present(domain.DocTrustDocuments):
					out.Require(supplement(domain.DocTrustDocuments, "신탁 등기 주택은 신탁원부 필요"))
				case !r.Bool(domain.DocTrustDocuments, "all_parties_signed").IsTrue():
					out.Require(supplement(domain.DocTrustDocuments, "신탁 관계인 전원 서명 필요"))
				}
			}
			return out
		},
	}
}

func privateRentalRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-020",
		name:     "민간임대주택 임대현황",
		category: rules.CategoryRegistry,
		contexts: []domain.DocumentType{domain.DocBuildingRegistry},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			if !r.Bool(domain.DocBuildingRegistry, "is_private_rental_stated").IsTrue() {
				return rules.Skip("not a registered private rental")
			}
			var out rules.Outcome
			if !r.Present(domain.DocRentalStatus) {
				out.Require(supplement(domain.DocRentalStatus, "민간임대주택 부기등기 주택은 임대현황 필요"))
			}
			return out
		},
	}
}
