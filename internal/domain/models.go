package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Page is one page of a submitted document bundle as supplied by the loader.
// Type is DocUnknown when neither the submitter nor text detection could
// determine it.
type Page struct {
	Number      int          `json:"number"`
	Content     []byte       `json:"-"`
	ContentType string       `json:"content_type"`
	Text        string       `json:"-"`
	Type        DocumentType `json:"type"`
}

// Document is a loaded bundle of pages ready for extraction.
type Document struct {
	ID    string `json:"id"`
	Pages []Page `json:"pages"`
}

// PagesOf returns the pages classified as t.
func (d *Document) PagesOf(t DocumentType) []Page {
	var out []Page
	for _, p := range d.Pages {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

// Unclassified returns the pages whose type is still unknown.
func (d *Document) Unclassified() []Page {
	return d.PagesOf(DocUnknown)
}

// ExtractionTask is one provider call. It is never mutated after creation.
type ExtractionTask struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Pages      []int          `json:"pages"`
	Types      []DocumentType `json:"types"`
	Priority   TaskPriority   `json:"priority"`
}

// ExtractionResult is the output of one ExtractionTask.
type ExtractionResult struct {
	TaskID      string             `json:"task_id"`
	Fields      map[string]string  `json:"fields"`
	Confidences map[string]float64 `json:"confidences,omitempty"`
	Model       string             `json:"model,omitempty"`
	Success     bool               `json:"success"`
	Err         error              `json:"-"`
	Attempts    int                `json:"attempts"`
}

// ReconciliationOutcome pairs two extraction passes with per-field agreement.
type ReconciliationOutcome struct {
	PrimaryPass   string               `json:"primary_pass"`
	SecondaryPass string               `json:"secondary_pass"`
	Primary       *DocumentRecord      `json:"-"`
	Secondary     *DocumentRecord      `json:"-"`
	Merged        *DocumentRecord      `json:"merged"`
	Agreement     map[string]Agreement `json:"agreement"`
}

// Disagreements lists the disagreeing field paths in sorted order.
func (o *ReconciliationOutcome) Disagreements() []string {
	if o == nil {
		return nil
	}
	var out []string
	for _, p := range o.Merged.Paths() {
		if o.Agreement[p] == AgreementDisagree {
			out = append(out, p)
		}
	}
	return out
}

// SupplementaryDocument is an additional document the applicant must provide.
type SupplementaryDocument struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
	RuleID string `json:"rule_id"`
}

// RuleResult records one rule evaluation inside a Verdict.
type RuleResult struct {
	RuleID   string     `json:"rule_id"`
	RuleName string     `json:"rule_name"`
	Category string     `json:"category"`
	Status   RuleStatus `json:"status"`
	Messages []string   `json:"messages,omitempty"`
}

// Verdict is the immutable outcome of validating a record.
type Verdict struct {
	Status        VerdictStatus           `json:"status"`
	Passed        bool                    `json:"passed"`
	Supplementary []SupplementaryDocument `json:"supplementary"`
	FiredRules    []string                `json:"fired_rules"`
	Results       []RuleResult            `json:"results"`
	EvaluatedAt   time.Time               `json:"evaluated_at"`
}

// SupplementaryIDs returns the supplementary document identifiers in order.
func (v *Verdict) SupplementaryIDs() []string {
	out := make([]string, 0, len(v.Supplementary))
	for _, s := range v.Supplementary {
		out = append(out, s.ID)
	}
	return out
}

// Review is the persisted unit of work for one application bundle.
type Review struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	ApplicationNo  string          `db:"application_no" json:"application_no"`
	Status         ReviewStatus    `db:"status" json:"status"`
	DualValidation bool            `db:"dual_validation" json:"dual_validation"`
	Files          json.RawMessage `db:"files" json:"files"`
	Record         json.RawMessage `db:"record" json:"record,omitempty"`
	Verdict        json.RawMessage `db:"verdict" json:"verdict,omitempty"`
	VerdictStatus  *VerdictStatus  `db:"verdict_status" json:"verdict_status,omitempty"`
	Error          string          `db:"error" json:"error,omitempty"`
	Attempts       int             `db:"attempts" json:"attempts"`
	RetryAfter     *time.Time      `db:"retry_after" json:"retry_after,omitempty"`
	NotifyEmail    string          `db:"notify_email" json:"notify_email,omitempty"`
	SubmittedBy    string          `db:"submitted_by" json:"submitted_by"`
	CompletedAt    *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// ReviewFile is one uploaded file belonging to a review, stored in Review.Files.
type ReviewFile struct {
	Key          string       `json:"key"`
	Bucket       string       `json:"bucket"`
	OriginalName string       `json:"original_name"`
	ContentType  string       `json:"content_type"`
	Size         int64        `json:"size"`
	DeclaredType DocumentType `json:"declared_type,omitempty"`
}

// ReviewStats holds aggregate review counts.
type ReviewStats struct {
	TotalReviews       int `db:"total_reviews" json:"total_reviews"`
	Queued             int `db:"queued" json:"queued"`
	Processing         int `db:"processing" json:"processing"`
	Completed          int `db:"completed" json:"completed"`
	Failed             int `db:"failed" json:"failed"`
	VerdictEligible    int `db:"verdict_eligible" json:"verdict_eligible"`
	VerdictConditional int `db:"verdict_conditional" json:"verdict_conditional"`
	VerdictExcluded    int `db:"verdict_excluded" json:"verdict_excluded"`
	DualValidation     int `db:"dual_validation" json:"dual_validation"`
}
