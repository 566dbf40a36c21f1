// Package extract turns a loaded document bundle into one DocumentRecord
// while keeping the number of vision-provider calls small.
package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"housingreview/internal/domain"
	"housingreview/internal/governor"
	"housingreview/internal/port"
	"housingreview/internal/provider"
)

// Config bounds how many provider calls one document may cost.
type Config struct {
	MaxUnclassifiedRetries int
	TypeBatchSize          int
	MaxAttempts            int
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithCache answers repeated identical calls from c.
func WithCache(c port.ExtractionCache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithName labels the orchestrator in logs and field sources. Dual
// validation runs two orchestrators under different names.
func WithName(name string) Option {
	return func(o *Orchestrator) { o.name = name }
}

// Orchestrator plans, issues and merges the provider calls for a document.
// It is safe for concurrent use; all per-document state lives in Extract.
type Orchestrator struct {
	provider port.VisionProvider
	governor *governor.Governor
	cache    port.ExtractionCache
	cfg      Config
	name     string
}

// New creates an Orchestrator. Every provider call it makes goes through gov.
func New(p port.VisionProvider, gov *governor.Governor, cfg Config, opts ...Option) *Orchestrator {
	if cfg.TypeBatchSize <= 0 {
		cfg.TypeBatchSize = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxUnclassifiedRetries < 0 {
		cfg.MaxUnclassifiedRetries = 0
	}
	o := &Orchestrator{provider: p, governor: gov, cfg: cfg, name: "primary"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Name returns the orchestrator's label.
func (o *Orchestrator) Name() string { return o.name }

// Extract produces the record for doc restricted to the requested types. An
// empty request extracts every type found in the bundle. Field-level
// failures leave unresolved markers; only a record without a single usable
// field is returned as domain.ErrExtractionFailed. The caller's document is
// not modified.
func (o *Orchestrator) Extract(ctx context.Context, doc *domain.Document, requested []domain.DocumentType) (*domain.DocumentRecord, error) {
	work := &domain.Document{ID: doc.ID, Pages: append([]domain.Page(nil), doc.Pages...)}
	logger := zap.L().With(zap.String("document_id", doc.ID), zap.String("pass", o.name))

	if err := o.classify(ctx, work); err != nil {
		return nil, err
	}

	record := domain.NewDocumentRecord(doc.ID)
	for _, p := range work.Pages {
		record.MarkPresent(p.Type)
	}

	batches := planBatches(work, requested, o.cfg.TypeBatchSize)
	logger.Debug("extract: planned batches", zap.Int("batches", len(batches)))

	results := make([]domain.ExtractionResult, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, types := range batches {
		task := domain.ExtractionTask{
			ID:         fmt.Sprintf("%s/batch-%d", o.name, i+1),
			DocumentID: doc.ID,
			Pages:      pageNumbers(work, types),
			Types:      types,
			Priority:   domain.PriorityPrimary,
		}
		g.Go(func() error {
			results[i] = o.run(gctx, task, attachments(work, types), provider.BuildExtractionPrompt(types))
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrapf(err, "extract: document %s", doc.ID)
	}

	// Merge sequentially in batch order.
	for i, types := range batches {
		mergeBatch(record, types, &results[i])
	}

	if err := o.ownerFallback(ctx, work, record, batches); err != nil {
		return nil, err
	}

	if !record.HasUsableFields() {
		logger.Warn("extract: no usable field", zap.Int("unresolved", len(record.UnresolvedFields())))
		failure := domain.ErrExtractionFailed
		if te := throttled(results); te != nil {
			failure = errors.Join(domain.ErrExtractionFailed, te)
		}
		return nil, eris.Wrapf(failure, "extract: document %s", doc.ID)
	}
	logger.Info("extract: document extracted",
		zap.Int("fields", len(record.Fields)),
		zap.Int("unresolved", len(record.UnresolvedFields())),
	)
	return record, nil
}

// classify issues at most MaxUnclassifiedRetries classification calls, one
// per unknown page, in page order. Pages past the ceiling stay unknown.
func (o *Orchestrator) classify(ctx context.Context, work *domain.Document) error {
	var idx []int
	for i, p := range work.Pages {
		if p.Type == domain.DocUnknown {
			idx = append(idx, i)
		}
	}
	if len(idx) > o.cfg.MaxUnclassifiedRetries {
		zap.L().Info("extract: classification ceiling reached",
			zap.String("document_id", work.ID),
			zap.Int("unclassified", len(idx)),
			zap.Int("ceiling", o.cfg.MaxUnclassifiedRetries),
		)
		idx = idx[:o.cfg.MaxUnclassifiedRetries]
	}

	g, gctx := errgroup.WithContext(ctx)
	prompt := provider.BuildClassificationPrompt()
	for _, i := range idx {
		page := work.Pages[i]
		task := domain.ExtractionTask{
			ID:         fmt.Sprintf("%s/classify-p%d", o.name, page.Number),
			DocumentID: work.ID,
			Pages:      []int{page.Number},
			Priority:   domain.PriorityClassification,
		}
		g.Go(func() error {
			res := o.run(gctx, task, []port.Attachment{toAttachment(page)}, prompt)
			if res.Success {
				// Each goroutine owns a distinct page index.
				work.Pages[i].Type = domain.ParseDocumentType(res.Fields[provider.ClassificationField])
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrapf(err, "extract: classify document %s", work.ID)
	}
	return nil
}

// ownerFallback runs the dedicated owner call only when the batched
// extraction left the owner name missing or malformed. It fills empty
// fields and never replaces values the batches produced.
func (o *Orchestrator) ownerFallback(ctx context.Context, work *domain.Document, record *domain.DocumentRecord, batches [][]domain.DocumentType) error {
	if !batched(batches, domain.DocSaleApplication) {
		return nil
	}
	if WellFormedName(record.Text(domain.DocSaleApplication, "owner.name")) {
		return nil
	}
	// A malformed extracted name is not a value Fill should preserve.
	if f, ok := record.Get(ownerNamePath); ok && f.State == domain.FieldExtracted {
		record.Supersede(ownerNamePath, domain.Field{State: domain.FieldUnresolved, Source: f.Source})
	}

	task := domain.ExtractionTask{
		ID:         o.name + "/owner",
		DocumentID: work.ID,
		Pages:      pageNumbers(work, []domain.DocumentType{domain.DocSaleApplication}),
		Types:      []domain.DocumentType{domain.DocSaleApplication},
		Priority:   domain.PriorityFallbackOwner,
	}
	res := o.run(ctx, task, attachments(work, task.Types), provider.BuildOwnerPrompt())
	if err := ctx.Err(); err != nil {
		return eris.Wrapf(err, "extract: owner fallback for document %s", work.ID)
	}

	if !res.Success {
		for _, p := range provider.OwnerPaths() {
			record.MarkUnresolved(p, task.ID)
		}
		return nil
	}
	for _, p := range provider.OwnerPaths() {
		v, ok := res.Fields[p]
		if !ok || (p == ownerNamePath && !WellFormedName(v)) {
			continue
		}
		record.Fill(p, v, res.Confidences[p], task.ID)
	}
	return nil
}

// throttled returns the first throttle error among failed results so callers
// can honour its retry-after.
func throttled(results []domain.ExtractionResult) *provider.ThrottleError {
	for _, r := range results {
		var te *provider.ThrottleError
		if !r.Success && errors.As(r.Err, &te) {
			return te
		}
	}
	return nil
}

func batched(batches [][]domain.DocumentType, t domain.DocumentType) bool {
	for _, b := range batches {
		for _, bt := range b {
			if bt == t {
				return true
			}
		}
	}
	return false
}

// run executes one task with bounded retries. Each attempt acquires its own
// permit. Permanent errors stop at once; transient and throttled errors are
// retried until MaxAttempts.
func (o *Orchestrator) run(ctx context.Context, task domain.ExtractionTask, atts []port.Attachment, prompt string) domain.ExtractionResult {
	res := domain.ExtractionResult{TaskID: task.ID}
	in := port.AnalyzeInput{Attachments: atts, Prompt: prompt, DocumentTypes: task.Types, Priority: task.Priority}

	key := cacheKey(prompt, atts)
	if out := o.cacheGet(ctx, key); out != nil {
		return succeeded(res, out)
	}

	logger := zap.L().With(zap.String("document_id", task.DocumentID), zap.String("task_id", task.ID))
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		res.Attempts = attempt
		out, err := o.attempt(ctx, task.Priority, in)
		if err == nil {
			o.cachePut(ctx, key, out)
			return succeeded(res, out)
		}
		res.Err = err
		if ctx.Err() != nil {
			return res
		}
		kind := provider.Classify(err)
		logger.Warn("extract: provider call failed",
			zap.Int("attempt", attempt),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		if kind == provider.KindPermanent {
			break
		}
	}
	return res
}

// attempt holds a governor permit for exactly the duration of one provider call.
func (o *Orchestrator) attempt(ctx context.Context, priority domain.TaskPriority, in port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	permit, err := o.governor.Acquire(ctx, priority)
	if err != nil {
		return nil, err
	}
	outcome := governor.OutcomeError
	defer func() { o.governor.Release(permit, outcome) }()

	out, err := o.provider.Analyze(ctx, in)
	switch provider.Classify(err) {
	case provider.KindNone:
		outcome = governor.OutcomeSuccess
	case provider.KindThrottled:
		outcome = governor.OutcomeThrottled
	}
	return out, err
}

func (o *Orchestrator) cacheGet(ctx context.Context, key string) *port.AnalyzeOutput {
	if o.cache == nil {
		return nil
	}
	out, ok, err := o.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("extract: cache read failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return out
}

func (o *Orchestrator) cachePut(ctx context.Context, key string, out *port.AnalyzeOutput) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Put(ctx, key, out); err != nil {
		zap.L().Warn("extract: cache write failed", zap.Error(err))
	}
}

func succeeded(res domain.ExtractionResult, out *port.AnalyzeOutput) domain.ExtractionResult {
	res.Success = true
	res.Err = nil
	res.Fields = out.Fields
	res.Confidences = out.Confidences
	res.Model = out.Model
	return res
}

// mergeBatch folds one batch result into the record. Fields outside the
// batch's types are ignored. A failed batch marks its schema unresolved.
func mergeBatch(record *domain.DocumentRecord, types []domain.DocumentType, res *domain.ExtractionResult) {
	if !res.Success {
		for _, p := range provider.SchemaPaths(types) {
			record.MarkUnresolved(p, res.TaskID)
		}
		return
	}
	allowed := make(map[domain.DocumentType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	paths := make([]string, 0, len(res.Fields))
	for p := range res.Fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if t, _ := domain.SplitFieldPath(p); allowed[t] {
			record.Set(p, res.Fields[p], res.Confidences[p], res.TaskID)
		}
	}
}

// planBatches returns the requested types that have pages, in canonical
// order, chunked by size.
func planBatches(doc *domain.Document, requested []domain.DocumentType, size int) [][]domain.DocumentType {
	withPages := make(map[domain.DocumentType]bool)
	for _, p := range doc.Pages {
		if p.Type.Valid() {
			withPages[p.Type] = true
		}
	}

	var types []domain.DocumentType
	if len(requested) == 0 {
		for t := range withPages {
			types = append(types, t)
		}
	} else {
		seen := make(map[domain.DocumentType]bool, len(requested))
		for _, t := range requested {
			if withPages[t] && !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Order() < types[j].Order() })

	var batches [][]domain.DocumentType
	for start := 0; start < len(types); start += size {
		end := start + size
		if end > len(types) {
			end = len(types)
		}
		batches = append(batches, types[start:end])
	}
	return batches
}

func pagesFor(doc *domain.Document, types []domain.DocumentType) []domain.Page {
	want := make(map[domain.DocumentType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []domain.Page
	for _, p := range doc.Pages {
		if want[p.Type] {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func pageNumbers(doc *domain.Document, types []domain.DocumentType) []int {
	pages := pagesFor(doc, types)
	out := make([]int, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Number)
	}
	return out
}

func attachments(doc *domain.Document, types []domain.DocumentType) []port.Attachment {
	pages := pagesFor(doc, types)
	out := make([]port.Attachment, 0, len(pages))
	for _, p := range pages {
		out = append(out, toAttachment(p))
	}
	return out
}

func toAttachment(p domain.Page) port.Attachment {
	return port.Attachment{Content: p.Content, ContentType: p.ContentType, PageNumber: p.Number}
}
