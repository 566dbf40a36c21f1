package housing

import (
	"fmt"
	"strings"

	"housingreview/internal/domain"
	"housingreview/internal/normalize"
	"housingreview/internal/rules"
)

var corporateMarkers = []string{
	"주식회사", "(주)", "㈜", "유한회사", "합명회사", "합자회사",
	"사단법인", "재단법인", "법인", "조합", "co.,", "corp", "inc.", "ltd",
}

// IsCorporateName reports whether an owner name denotes a corporation.
func IsCorporateName(name string) bool {
	n := strings.ToLower(normalize.Text(name))
	if n == "" {
		return false
	}
	for _, m := range corporateMarkers {
		if strings.Contains(n, m) {
			return true
		}
	}
	return false
}

// corporateOwner reports whether the application is filed by a corporation,
// either by name or because corporate documents were submitted.
func corporateOwner(r *domain.DocumentRecord) bool {
	return r.Present(domain.DocCorporateDocuments) ||
		IsCorporateName(r.Text(domain.DocSaleApplication, "owner.name"))
}

func sameName(a, b string) bool {
	return strings.ReplaceAll(normalize.Text(a), " ", "") == strings.ReplaceAll(normalize.Text(b), " ", "")
}

func ownerInfoRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-002",
		name:     "소유자 정보 기재",
		category: rules.CategoryOwner,
		contexts: []domain.DocumentType{domain.DocSaleApplication},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			fields := []struct{ path, label string }{
				{"owner.name", "성명"},
				{"owner.birth_date", "생년월일"},
				{"owner.address", "주소"},
				{"owner.phone", "연락처"},
			}
			corporate := corporateOwner(r)
			var missing []string
			for _, f := range fields {
				if corporate && f.path == "owner.birth_date" {
					continue
				}
				if !r.Has(domain.DocSaleApplication, f.path) {
					missing = append(missing, f.label)
				}
			}
			if len(missing) == 0 {
				return rules.Pass()
			}
			var out rules.Outcome
			out.Require(supplement(domain.DocSaleApplication, "소유자 정보 누락: "+strings.Join(missing, ", ")))
			return out
		},
	}
}

func corporateOwnerRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-003",
		name:     "법인 소유자 서류",
		category: rules.CategoryOwner,
		contexts: []domain.DocumentType{domain.DocSaleApplication},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			if !corporateOwner(r) {
				return rules.Skip("individual owner")
			}
			var out rules.Outcome
			if !r.Present(domain.DocCorporateDocuments) {
				out.Require(supplement(domain.DocCorporateDocuments, "법인 소유자 서류 미제출"))
				return out
			}
			owner := r.Text(domain.DocSaleApplication, "owner.name")
			corp := r.Text(domain.DocCorporateDocuments, "corporation_name")
			if owner != "" && corp != "" && !sameName(owner, corp) {
				out.Require(extra(DocOwnerEligibility, fmt.Sprintf("신청서 소유자(%s)와 법인명(%s) 불일치", owner, corp)))
			}
			return out
		},
	}
}

func individualOwnerRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-004",
		name:     "개인 소유자 신분증·인감증명서",
		category: rules.CategoryOwner,
		contexts: []domain.DocumentType{domain.DocSaleApplication},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			if corporateOwner(r) {
				return rules.Skip("corporate owner")
			}
			var out rules.Outcome
			if !r.Present(domain.DocOwnerIdentity) {
				out.Require(supplement(domain.DocOwnerIdentity, "소유자 신분증 미제출"))
			}
			if !r.Present(domain.DocSealCertificate) {
				out.Require(supplement(domain.DocSealCertificate, "인감증명서 미제출"))
			}
			owner := r.Text(domain.DocSaleApplication, "owner.name")
			idName := r.Text(domain.DocOwnerIdentity, "name")
			if owner != "" && idName != "" && !sameName(owner, idName) {
				out.Require(extra(DocOwnerEligibility, fmt.Sprintf("신청서 소유자(%s)와 신분증 성명(%s) 불일치", owner, idName)))
			}
			return out
		},
	}
}

func applicationSealRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-005",
		name:     "매도신청서 인감 일치",
		category: rules.CategorySeal,
		contexts: []domain.DocumentType{domain.DocSaleApplication},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			var out rules.Outcome
			if r.Bool(domain.DocSaleApplication, "seal_verification.seal_exists").IsFalse() {
				out.Require(supplement(domain.DocSaleApplication, "매도신청서 인감 날인 누락"))
				return out
			}
			rate, ok := r.Float(domain.DocSaleApplication, "seal_verification.match_rate")
			if !ok {
				out.Require(supplement(domain.DocSealCertificate, "인감 일치율 확인 불가"))
				return out
			}
			if !in.Settings.SealMatches(rate) {
				out.Require(supplement(domain.DocSealCertificate,
					fmt.Sprintf("인감 불일치 (일치율 %.1f%% < 기준 %.1f%%)", rate, in.Settings.SealMatchThreshold)))
				return out
			}
			out.Note(fmt.Sprintf("seal match %.1f%%", rate))
			return out
		},
	}
}

func agentRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-006",
		name:     "대리인 위임장 인감 일치",
		category: rules.CategorySeal,
		contexts: []domain.DocumentType{domain.DocSaleApplication},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			if !r.Bool(domain.DocSaleApplication, "agent.exists").IsTrue() {
				return rules.Skip("no agent")
			}
			var out rules.Outcome
			if !r.Present(domain.DocPowerOfAttorney) {
				out.Require(supplement(domain.DocPowerOfAttorney, "대리인 신청 시 위임장 필요"))
				return out
			}
			rate, ok := r.Float(domain.DocPowerOfAttorney, "seal_match_rate")
			switch {
			case !ok:
				out.Require(supplement(domain.DocPowerOfAttorney, "위임장 인감 일치율 확인 불가"))
			case !in.Settings.SealMatches(rate):
				out.Require(supplement(domain.DocPowerOfAttorney,
					fmt.Sprintf("위임장 인감 불일치 (일치율 %.1f%% < 기준 %.1f%%)", rate, in.Settings.SealMatchThreshold)))
			}
			return out
		},
	}
}

func realtorRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-022",
		name:     "공인중개사 대리 서류",
		category: rules.CategoryOwner,
		contexts: []domain.DocumentType{domain.DocSaleApplication},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			if !r.Bool(domain.DocSaleApplication, "agent.is_realtor").IsTrue() {
				return rules.Skip("agent is not a realtor")
			}
			var out rules.Outcome
			if !r.Present(domain.DocRealtorDocuments) {
				out.Require(supplement(domain.DocRealtorDocuments, "공인중개사 대리 시 중개사무소 등록증 필요"))
			}
			return out
		},
	}
}
