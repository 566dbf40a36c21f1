package housing

import (
	"fmt"
	"math"
	"strings"

	"housingreview/internal/domain"
	"housingreview/internal/rules"
)

// landAreaTolerance is the relative difference tolerated between land areas.
const landAreaTolerance = 0.01

var restrictedZones = []struct {
	path  string
	label string
}{
	{"is_redevelopment_zone", "재정비촉진지구"},
	{"is_maintenance_zone", "정비구역"},
	{"is_public_housing_zone", "공공주택지구"},
	{"is_housing_development_zone", "택지개발지구"},
}

func landUseZoneRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-018",
		name:     "매입 제외 지역·지구",
		category: rules.CategoryLand,
		contexts: []domain.DocumentType{domain.DocLandUsePlan},
		fn: func(in *rules.Input) rules.Outcome {
			var hit, paths []string
			for _, z := range restrictedZones {
				if in.Record.Bool(domain.DocLandUsePlan, z.path).IsTrue() {
					hit = append(hit, z.label)
					paths = append(paths, z.path)
				}
			}
			var out rules.Outcome
			if len(hit) > 0 {
				excludeOn(&out, in.Record, domain.DocLandUsePlan, "매입 제외 구역 해당: "+strings.Join(hit, ", "), paths...)
			}
			return out
		},
	}
}

func landAreaRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-021",
		name:     "대지면적 일치",
		category: rules.CategoryLand,
		contexts: []domain.DocumentType{domain.DocLandLedger},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			ledger, ok := r.Float(domain.DocLandLedger, "land_area")
			if !ok {
				return rules.Skip("land ledger area not available")
			}
			var out rules.Outcome
			others := []struct {
				t     domain.DocumentType
				label string
			}{
				{domain.DocSaleApplication, "신청서"},
				{domain.DocLandRegistry, "토지 등기부"},
			}
			for _, o := range others {
				v, ok := r.Float(o.t, "land_area")
				if !ok {
					continue
				}
				if !withinTolerance(ledger, v, landAreaTolerance) {
					out.Require(supplement(domain.DocLandLedger,
						fmt.Sprintf("대지면적 불일치 (토지대장 %g㎡, %s %g㎡)", ledger, o.label, v)))
				}
			}
			return out
		},
	}
}

func withinTolerance(want, got, rel float64) bool {
	if want == 0 {
		return got == 0
	}
	return math.Abs(want-got)/math.Abs(want) <= rel
}
