package housing

import (
	"sort"
	"strings"

	"housingreview/internal/domain"
	"housingreview/internal/rules"
)

// fieldsByType groups the record paths matching keep by their owning
// document type, in canonical type order.
func fieldsByType(r *domain.DocumentRecord, keep func(*domain.Field) bool) ([]domain.DocumentType, map[domain.DocumentType][]string) {
	grouped := make(map[domain.DocumentType][]string)
	var types []domain.DocumentType
	for _, p := range r.Paths() {
		f, _ := r.Get(p)
		if !keep(f) {
			continue
		}
		t, _ := domain.SplitFieldPath(p)
		if !t.Valid() {
			continue
		}
		if _, ok := grouped[t]; !ok {
			types = append(types, t)
		}
		grouped[t] = append(grouped[t], p)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Order() < types[j].Order() })
	return types, grouped
}

// requestPerType asks once for every document type owning a matching field.
func requestPerType(r *domain.DocumentRecord, label string, keep func(*domain.Field) bool) rules.Outcome {
	var out rules.Outcome
	types, grouped := fieldsByType(r, keep)
	for _, t := range types {
		out.Require(supplement(t, label+": "+strings.Join(grouped[t], ", ")))
	}
	return out
}

func disagreementRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-023",
		name:     "이중 검증 불일치",
		category: rules.CategoryConsistency,
		fn: func(in *rules.Input) rules.Outcome {
			if in.Recon == nil {
				return rules.Skip("single-pass review")
			}
			return requestPerType(in.Record, "이중 검증 결과 불일치", func(f *domain.Field) bool {
				return f.Disagreement
			})
		},
	}
}

func unresolvedRule() rules.Rule {
	return &builtinRule{
		id:       "HSG-024",
		name:     "판독 불가 항목",
		category: rules.CategoryConsistency,
		fn: func(in *rules.Input) rules.Outcome {
			return requestPerType(in.Record, "판독 불가", func(f *domain.Field) bool {
				return !f.Resolved()
			})
		},
	}
}
