package housing

import (
	"fmt"
	"time"

	"housingreview/internal/domain"
	"housingreview/internal/normalize"
	"housingreview/internal/rules"
)

// RequiredDocuments must be part of every application.
var RequiredDocuments = []domain.DocumentType{
	domain.DocSaleApplication,
	domain.DocLandLedger,
	domain.DocLandRegistry,
	domain.DocBuildingRegistry,
	domain.DocBuildingLedgerTitle,
	domain.DocConsentForm,
	domain.DocIntegrityPledge,
}

func requiredDocumentsRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-001",
		name:     "필수 서류 제출",
		category: rules.CategoryRequired,
		fn: func(in *rules.Input) rules.Outcome {
			var out rules.Outcome
			for _, t := range RequiredDocuments {
				if !in.Record.Present(t) {
					out.Require(supplement(t, "서류 미제출"))
				}
			}
			return out
		},
	}
}

// DateComparator decides whether two extracted dates denote the same day.
// It returns Unknown when either value cannot be read as a date.
type DateComparator func(a, b string) domain.Tristate

// CompareDates compares two dates after canonicalization.
func CompareDates(a, b string) domain.Tristate {
	da, okA := normalize.Date(a)
	db, okB := normalize.Date(b)
	if !okA || !okB {
		return domain.Unknown
	}
	return domain.TristateOf(da == db)
}

// approvalDateRule trusts the match verdict recorded during extraction and
// only compares the two dates itself when that verdict is unknown.
func approvalDateRule(compare DateComparator) rules.Rule {
	return &builtinRule{
		id:       "HSG-007",
		name:     "사용승인일 일치",
		category: rules.CategoryBuilding,
		contexts: []domain.DocumentType{domain.DocBuildingLedgerTitle},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			var out rules.Outcome
			switch r.Bool(domain.DocSaleApplication, "approval_date_match") {
			case domain.True:
				out.Note("approval date confirmed during extraction")
				return out
			case domain.False:
				out.Require(supplement(domain.DocSaleApplication, "신청서 사용승인일이 건축물대장과 불일치"))
				return out
			}

			applied := r.Text(domain.DocSaleApplication, "approval_date")
			ledger := r.Text(domain.DocBuildingLedgerTitle, "approval_date")
			if applied == "" || ledger == "" {
				return rules.Skip("approval date not available on both documents")
			}
			switch compare(applied, ledger) {
			case domain.True:
				out.Note("approval dates match")
			case domain.False:
				out.Require(supplement(domain.DocSaleApplication,
					fmt.Sprintf("사용승인일 불일치 (신청서 %s, 건축물대장 %s)", applied, ledger)))
			default:
				out.Require(supplement(domain.DocBuildingLedgerTitle, "사용승인일 판독 불가"))
			}
			return out
		},
	}
}

var datedDocuments = []domain.DocumentType{
	domain.DocLandLedger,
	domain.DocLandRegistry,
	domain.DocBuildingRegistry,
	domain.DocBuildingLedgerTitle,
}

func issueDateRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-008",
		name:     "공고일 이후 발급",
		category: rules.CategoryRequired,
		contexts: datedDocuments,
		fn: func(in *rules.Input) rules.Outcome {
			announced := in.Settings.AnnouncementDate
			if announced.IsZero() {
				return rules.Skip("no announcement date configured")
			}
			var out rules.Outcome
			for _, t := range datedDocuments {
				if !in.Record.Present(t) {
					continue
				}
				d, ok := normalize.Date(in.Record.Text(t, "issue_date"))
				if !ok {
					continue
				}
				issued, err := time.Parse(time.DateOnly, d)
				if err != nil {
					continue
				}
				if issued.Before(announced) {
					out.Require(supplement(t,
						fmt.Sprintf("공고일(%s) 이전 발급 (%s)", announced.Format(time.DateOnly), d)))
				}
			}
			return out
		},
	}
}
