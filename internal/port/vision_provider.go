package port

import (
	"context"
	"encoding/json"

	"housingreview/internal/domain"
)

// Attachment is one page image or PDF handed to a vision provider.
type Attachment struct {
	Content     []byte
	ContentType string
	PageNumber  int
}

// AnalyzeInput carries one provider call.
type AnalyzeInput struct {
	Attachments   []Attachment
	Prompt        string
	DocumentTypes []domain.DocumentType
	Priority      domain.TaskPriority
}

// AnalyzeOutput is the structured result of one provider call. Fields are
// flattened to "<document type>.<dotted path>".
type AnalyzeOutput struct {
	Fields      map[string]string
	Confidences map[string]float64
	Model       string
	Raw         json.RawMessage
}

// VisionProvider abstracts the external vision-analysis capability.
// Implementations report throttling and permanent failures with the typed
// errors of the provider package; anything else is treated as transient.
type VisionProvider interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error)
}
