package port

import "context"

// ExtractionCache stores provider outputs keyed by a digest of the pages and
// prompt, so identical requests are answered without a provider call.
type ExtractionCache interface {
	Get(ctx context.Context, key string) (*AnalyzeOutput, bool, error)
	Put(ctx context.Context, key string, out *AnalyzeOutput) error
}
