// Package export renders finished reviews as CSV or XLSX.
package export

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"housingreview/internal/domain"
)

// Summary is the flattened, export-ready view of one review.
type Summary struct {
	Review  *domain.Review
	Verdict *domain.Verdict
	Record  *domain.DocumentRecord
}

// Summarize decodes the stored verdict and record of review. Undecodable or
// missing JSON leaves the corresponding pointer nil.
func Summarize(review *domain.Review) Summary {
	s := Summary{Review: review}
	if len(review.Verdict) > 0 {
		var v domain.Verdict
		if err := json.Unmarshal(review.Verdict, &v); err == nil {
			s.Verdict = &v
		}
	}
	if len(review.Record) > 0 {
		var r domain.DocumentRecord
		if err := json.Unmarshal(review.Record, &r); err == nil && r.Fields != nil {
			s.Record = &r
		}
	}
	return s
}

var summaryColumns = []string{
	"신청번호",
	"심사상태",
	"판정",
	"보완서류",
	"발동규칙",
	"이중검증",
	"미확인필드",
	"오류",
	"시도횟수",
	"완료일시",
	"접수일시",
}

func (s Summary) row() []string {
	r := s.Review
	row := make([]string, len(summaryColumns))
	row[0] = r.ApplicationNo
	row[1] = string(r.Status)
	row[5] = formatBool(r.DualValidation)
	row[7] = r.Error
	row[8] = strconv.Itoa(r.Attempts)
	row[9] = formatTime(r.CompletedAt)
	row[10] = r.CreatedAt.Format(time.RFC3339)

	if s.Verdict != nil {
		row[2] = string(s.Verdict.Status)
		names := make([]string, 0, len(s.Verdict.Supplementary))
		for _, d := range s.Verdict.Supplementary {
			names = append(names, d.Name)
		}
		row[3] = strings.Join(names, "; ")
		row[4] = strings.Join(s.Verdict.FiredRules, "; ")
	}
	if s.Record != nil {
		row[6] = strconv.Itoa(len(s.Record.UnresolvedFields()))
	}
	return row
}

var ruleColumns = []string{"신청번호", "규칙", "규칙명", "분류", "결과", "메시지"}

func (s Summary) ruleRows() [][]string {
	if s.Verdict == nil {
		return nil
	}
	rows := make([][]string, 0, len(s.Verdict.Results))
	for _, res := range s.Verdict.Results {
		rows = append(rows, []string{
			s.Review.ApplicationNo, res.RuleID, res.RuleName, res.Category,
			string(res.Status), strings.Join(res.Messages, "; "),
		})
	}
	return rows
}

var fieldColumns = []string{"신청번호", "서류", "필드", "값", "신뢰도", "상태", "불일치"}

func (s Summary) fieldRows() [][]string {
	if s.Record == nil {
		return nil
	}
	var rows [][]string
	for _, p := range s.Record.Paths() {
		f := s.Record.Fields[p]
		t, path := domain.SplitFieldPath(p)
		rows = append(rows, []string{
			s.Review.ApplicationNo, t.Label(), path, f.Value,
			strconv.FormatFloat(f.Confidence, 'f', 2, 64), string(f.State), formatBool(f.Disagreement),
		})
	}
	return rows
}

func formatBool(v bool) string {
	if v {
		return "Y"
	}
	return "N"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
