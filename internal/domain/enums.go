package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// TaskPriority classifies why a provider call is made.
type TaskPriority string

const (
	PriorityPrimary        TaskPriority = "primary"
	PriorityFallbackOwner  TaskPriority = "fallback_owner"
	PriorityClassification TaskPriority = "classification"
)

// ReviewStatus is the lifecycle of a queued review.
type ReviewStatus string

const (
	ReviewStatusQueued     ReviewStatus = "queued"
	ReviewStatusProcessing ReviewStatus = "processing"
	ReviewStatusCompleted  ReviewStatus = "completed"
	ReviewStatusFailed     ReviewStatus = "failed"
)

// VerdictStatus is the overall eligibility decision.
type VerdictStatus string

const (
	VerdictEligible    VerdictStatus = "eligible"
	VerdictConditional VerdictStatus = "conditional"
	VerdictExcluded    VerdictStatus = "excluded"
)

// RuleStatus is the outcome of evaluating one rule.
type RuleStatus string

const (
	RuleStatusPassed        RuleStatus = "passed"
	RuleStatusSupplement    RuleStatus = "supplement"
	RuleStatusExcluded      RuleStatus = "excluded"
	RuleStatusNotApplicable RuleStatus = "not_applicable"
)

// Agreement classifies one field across two extraction passes.
type Agreement string

const (
	AgreementAgree    Agreement = "agree"
	AgreementDisagree Agreement = "disagree"
	AgreementOneSided Agreement = "one_sided"
)

// Role is the API role carried in access tokens.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleOfficer Role = "officer"
	RoleViewer  Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOfficer, RoleViewer:
		return true
	}
	return false
}
