package housing

import (
	"fmt"
	"math"
	"strings"

	"housingreview/internal/domain"
	"housingreview/internal/normalize"
	"housingreview/internal/rules"
)

func multiBuildingRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-009",
		name:     "다동 신청 시 총괄표제부",
		category: rules.CategoryBuilding,
		contexts: []domain.DocumentType{domain.DocSaleApplication},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			n, ok := r.Float(domain.DocSaleApplication, "building_count")
			if !ok || n < 2 {
				return rules.Skip("single building")
			}
			var out rules.Outcome
			if !r.Present(domain.DocBuildingLedgerSummary) {
				out.Require(supplement(domain.DocBuildingLedgerSummary, fmt.Sprintf("%d개 동 신청 시 총괄표제부 필요", int(n))))
			}
			return out
		},
	}
}

func buildingCountRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-010",
		name:     "총괄표제부 동 수 일치",
		category: rules.CategoryBuilding,
		contexts: []domain.DocumentType{domain.DocBuildingLedgerSummary},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			summary, okS := r.Float(domain.DocBuildingLedgerSummary, "building_count")
			applied, okA := r.Float(domain.DocSaleApplication, "building_count")
			if !okS || !okA {
				return rules.Skip("building count not available on both documents")
			}
			var out rules.Outcome
			if summary != applied {
				out.Require(supplement(domain.DocBuildingLedgerSummary,
					fmt.Sprintf("동 수 불일치 (신청서 %d, 총괄표제부 %d)", int(applied), int(summary))))
			}
			return out
		},
	}
}

func seismicDesignRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-011",
		name:     "내진설계 적용",
		category: rules.CategoryBuilding,
		contexts: []domain.DocumentType{domain.DocBuildingLedgerTitle},
		fn: func(in *rules.Input) rules.Outcome {
			var out rules.Outcome
			switch in.Record.Bool(domain.DocBuildingLedgerTitle, "seismic_design") {
			case domain.False:
				excludeOn(&out, in.Record, domain.DocBuildingLedgerTitle, "내진설계 미적용 주택", "seismic_design")
			case domain.Unknown:
				out.Require(extra(DocStructuralSafety, "표제부에서 내진설계 적용 여부 확인 불가"))
			}
			return out
		},
	}
}

func basementUnitsRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-012",
		name:     "지하층 세대 없음",
		category: rules.CategoryBuilding,
		contexts: []domain.DocumentType{domain.DocBuildingLedgerTitle},
		fn: func(in *rules.Input) rules.Outcome {
			var out rules.Outcome
			if in.Record.Bool(domain.DocBuildingLedgerTitle, "has_basement_units").IsTrue() {
				excludeOn(&out, in.Record, domain.DocBuildingLedgerTitle, "지하층에 거주용 세대가 있는 주택", "has_basement_units")
			}
			return out
		},
	}
}

func parkingRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-013",
		name:     "주차대수 기재",
		category: rules.CategoryBuilding,
		contexts: []domain.DocumentType{domain.DocBuildingLedgerTitle},
		fn: func(in *rules.Input) rules.Outcome {
			total, known := 0.0, false
			for _, p := range []string{"outdoor_parking", "indoor_parking", "mechanical_parking"} {
				if n, ok := in.Record.Float(domain.DocBuildingLedgerTitle, p); ok {
					total += n
					known = true
				}
			}
			var out rules.Outcome
			if !known {
				out.Require(supplement(domain.DocBuildingLedgerTitle, "주차대수 미기재"))
				return out
			}
			out.Note(fmt.Sprintf("parking spaces: %d", int(total)))
			return out
		},
	}
}

// pilotiRule checks the piloti finish only when the title ledger records a
// piloti structure. False or unknown skips the check.
func pilotiRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-014",
		name:     "필로티 마감·단열재료",
		category: rules.CategoryBuilding,
		contexts: []domain.DocumentType{domain.DocBuildingLedgerTitle},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			if !r.Bool(domain.DocBuildingLedgerTitle, "has_piloti").IsTrue() {
				return rules.Skip("no piloti structure")
			}
			var missing []string
			if !r.Has(domain.DocAsBuiltDrawing, "piloti_finish_material") {
				missing = append(missing, "마감재료")
			}
			if !r.Has(domain.DocAsBuiltDrawing, "piloti_insulation_material") {
				missing = append(missing, "단열재료")
			}
			var out rules.Outcome
			if len(missing) > 0 {
				out.Require(supplement(domain.DocAsBuiltDrawing, "필로티 "+strings.Join(missing, "·")+" 확인 불가"))
			}
			return out
		},
	}
}

var (
	stoneMaterials     = []string{"석재", "화강석", "대리석", "현무암", "사암", "타일", "테라코타", "세라믹", "자기질", "stone", "granite", "marble"}
	flammableMaterials = []string{"드라이비트", "스티로폼", "eps", "우레탄", "압출법", "xps", "가연"}
)

func containsAny(s string, words []string) bool {
	s = strings.ToLower(normalize.Text(s))
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// exteriorFinishRule accepts stone-like finishes outright. Other finishes
// need a test certificate covering both heat release and gas toxicity.
func exteriorFinishRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-015",
		name:     "외벽 마감재료 난연 성능",
		category: rules.CategoryBuilding,
		contexts: []domain.DocumentType{domain.DocAsBuiltDrawing},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			finish := r.Text(domain.DocAsBuiltDrawing, "exterior_finish_material")
			var out rules.Outcome
			switch {
			case finish == "":
				out.Require(supplement(domain.DocAsBuiltDrawing, "외벽 마감재료 확인 불가"))
			case containsAny(finish, flammableMaterials):
				excludeOn(&out, r, domain.DocAsBuiltDrawing,
					fmt.Sprintf("외벽 마감재료가 가연성 재료 (%s)", finish), "exterior_finish_material")
			case containsAny(finish, stoneMaterials):
				out.Note("non-combustible exterior finish")
			default:
				heat := r.Bool(domain.DocTestCertificate, "has_heat_release_test")
				gas := r.Bool(domain.DocTestCertificate, "has_gas_toxicity_test")
				if !r.Present(domain.DocTestCertificate) {
					out.Require(extra(DocTestCertificateValid, "서류 미제출"))
				} else if !heat.IsTrue() || !gas.IsTrue() {
					out.Require(extra(DocTestCertificateValid, "열방출시험·가스유해성시험 결과 필요"))
				}
			}
			return out
		},
	}
}

func unitAreaRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-016",
		name:     "전용면적 범위",
		category: rules.CategoryBuilding,
		contexts: []domain.DocumentType{domain.DocBuildingLedgerExclusive},
		fn: func(in *rules.Input) rules.Outcome {
			r := in.Record
			s := in.Settings
			minArea, okMin := r.Float(domain.DocBuildingLedgerExclusive, "min_exclusive_area")
			maxArea, okMax := r.Float(domain.DocBuildingLedgerExclusive, "max_exclusive_area")
			var out rules.Outcome
			if !okMin && !okMax {
				out.Require(supplement(domain.DocBuildingLedgerExclusive, "전유부 최소·최대 면적 확인 필요"))
				return out
			}
			if (okMin && s.MinUnitArea > 0 && minArea < s.MinUnitArea) ||
				(okMax && s.MaxUnitArea > 0 && maxArea > s.MaxUnitArea) {
				out.Require(supplement(domain.DocBuildingLedgerExclusive,
					fmt.Sprintf("전용면적이 %g㎡ 미만 또는 %g㎡ 초과", s.MinUnitArea, s.MaxUnitArea)))
			}
			return out
		},
	}
}

func unitCountRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-017",
		name:     "최소 세대수",
		category: rules.CategoryBuilding,
		contexts: []domain.DocumentType{domain.DocBuildingLedgerExclusive},
		fn: func(in *rules.Input) rules.Outcome {
			if in.Settings.MinUnits <= 0 {
				return rules.Skip("no minimum unit count configured")
			}
			var out rules.Outcome
			n, ok := in.Record.Float(domain.DocBuildingLedgerExclusive, "unit_count")
			switch {
			case !ok:
				out.Require(supplement(domain.DocBuildingLedgerExclusive, "전유부 호 수 확인 불가"))
			case int(math.Round(n)) < in.Settings.MinUnits:
				excludeOn(&out, in.Record, domain.DocBuildingLedgerExclusive,
					fmt.Sprintf("세대수 미달 (%d세대 < %d세대)", int(math.Round(n)), in.Settings.MinUnits), "unit_count")
			}
			return out
		},
	}
}
