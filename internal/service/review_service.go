package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"housingreview/internal/config"
	"housingreview/internal/domain"
	"housingreview/internal/loader"
	"housingreview/internal/port"
	"housingreview/internal/provider"
	s3store "housingreview/internal/storage/s3"
)

// SubmitFile is one uploaded file of a review submission.
type SubmitFile struct {
	Name         string
	Size         int64
	Body         io.ReadSeeker
	DeclaredType domain.DocumentType
}

// SubmitReviewInput is the DTO for review submissions.
type SubmitReviewInput struct {
	ApplicationNo  string
	NotifyEmail    string
	SubmittedBy    string
	DualValidation *bool
	Files          []SubmitFile
}

// ReviewService defines the review lifecycle contract.
type ReviewService interface {
	Submit(ctx context.Context, input *SubmitReviewInput) (*domain.Review, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	List(ctx context.Context, status domain.ReviewStatus, offset, limit int) ([]domain.Review, int, error)
	GetVerdict(ctx context.Context, id uuid.UUID) (*domain.Verdict, error)
	GetFileURL(ctx context.Context, id uuid.UUID, index int) (string, error)
	Process(ctx context.Context, review *domain.Review, maxAttempts int)
}

// ReviewServiceConfig holds the settings the service needs from config.
type ReviewServiceConfig struct {
	Bucket        string
	MaxFileSizeMB int64
	PresignExpiry int64
	DualDefault   bool
}

// ReviewServiceConfigFrom builds a ReviewServiceConfig from application config.
func ReviewServiceConfigFrom(cfg *config.Config) ReviewServiceConfig {
	return ReviewServiceConfig{
		Bucket:        cfg.S3.Bucket,
		MaxFileSizeMB: cfg.S3.MaxFileSizeMB,
		PresignExpiry: cfg.S3.PresignExpiry,
		DualDefault:   cfg.Extraction.DualValidationEnabled,
	}
}

type reviewService struct {
	repo     port.ReviewRepository
	storage  port.ObjectStorage
	runner   Runner
	notifier port.VerdictNotifier
	cfg      ReviewServiceConfig
	now      func() time.Time
}

// NewReviewService creates a ReviewService. notifier may be nil.
func NewReviewService(
	repo port.ReviewRepository,
	storage port.ObjectStorage,
	runner Runner,
	notifier port.VerdictNotifier,
	cfg ReviewServiceConfig,
) ReviewService {
	return &reviewService{
		repo:     repo,
		storage:  storage,
		runner:   runner,
		notifier: notifier,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *reviewService) Submit(ctx context.Context, input *SubmitReviewInput) (*domain.Review, error) {
	input.ApplicationNo = strings.TrimSpace(input.ApplicationNo)
	if input.ApplicationNo == "" || len(input.Files) == 0 {
		return nil, domain.ErrInvalidReviewRequest
	}

	contentTypes := make([]string, len(input.Files))
	for i, f := range input.Files {
		ct, err := s.checkFile(f)
		if err != nil {
			return nil, err
		}
		contentTypes[i] = ct
	}

	dual := s.cfg.DualDefault
	if input.DualValidation != nil {
		dual = *input.DualValidation
	}

	review := &domain.Review{
		ID:             uuid.New(),
		ApplicationNo:  input.ApplicationNo,
		Status:         domain.ReviewStatusQueued,
		DualValidation: dual,
		NotifyEmail:    strings.TrimSpace(input.NotifyEmail),
		SubmittedBy:    input.SubmittedBy,
	}

	files := make([]domain.ReviewFile, 0, len(input.Files))
	for i, f := range input.Files {
		key := s3store.ReviewFileKey(review.ID, i, f.Name)
		_, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.cfg.Bucket,
			Key:         key,
			Body:        f.Body,
			ContentType: contentTypes[i],
			Size:        f.Size,
		})
		if err != nil {
			zap.L().Error("reviewService.Submit: upload failed",
				zap.String("review_id", review.ID.String()),
				zap.String("file", f.Name),
				zap.Error(err),
			)
			s.cleanup(ctx, files)
			return nil, domain.ErrUploadFailed
		}
		files = append(files, domain.ReviewFile{
			Key:          key,
			Bucket:       s.cfg.Bucket,
			OriginalName: f.Name,
			ContentType:  contentTypes[i],
			Size:         f.Size,
			DeclaredType: f.DeclaredType,
		})
	}

	raw, err := json.Marshal(files)
	if err != nil {
		return nil, eris.Wrap(err, "reviewService.Submit: marshal files")
	}
	review.Files = raw

	if err := s.repo.Create(ctx, review); err != nil {
		s.cleanup(ctx, files)
		return nil, eris.Wrap(err, "reviewService.Submit: create review")
	}

	zap.L().Info("reviewService.Submit: review queued",
		zap.String("review_id", review.ID.String()),
		zap.String("application_no", review.ApplicationNo),
		zap.Int("files", len(files)),
		zap.Bool("dual", dual),
	)
	return review, nil
}

// checkFile validates extension, size and magic bytes, and returns the
// canonical content type.
func (s *reviewService) checkFile(f SubmitFile) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return "", eris.Wrapf(domain.ErrUnsupportedFileType, "file %s", f.Name)
	}
	if s.cfg.MaxFileSizeMB > 0 && f.Size > s.cfg.MaxFileSizeMB*1024*1024 {
		return "", eris.Wrapf(domain.ErrFileTooLarge, "file %s", f.Name)
	}

	buf := make([]byte, 512)
	n, err := f.Body.Read(buf)
	if err != nil && err != io.EOF {
		return "", eris.Wrapf(err, "reading header of %s", f.Name)
	}
	if _, ok := domain.AllowedContentTypes[http.DetectContentType(buf[:n])]; !ok {
		return "", eris.Wrapf(domain.ErrUnsupportedFileType, "file %s content", f.Name)
	}
	if _, err := f.Body.Seek(0, io.SeekStart); err != nil {
		return "", eris.Wrapf(err, "seeking %s", f.Name)
	}
	return domain.AllowedFileTypes[fileType], nil
}

func (s *reviewService) cleanup(ctx context.Context, files []domain.ReviewFile) {
	for _, f := range files {
		if err := s.storage.Delete(ctx, f.Bucket, f.Key); err != nil {
			zap.L().Warn("reviewService: cleanup failed", zap.String("key", f.Key), zap.Error(err))
		}
	}
}

func (s *reviewService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *reviewService) List(ctx context.Context, status domain.ReviewStatus, offset, limit int) ([]domain.Review, int, error) {
	return s.repo.List(ctx, status, offset, limit)
}

func (s *reviewService) GetVerdict(ctx context.Context, id uuid.UUID) (*domain.Verdict, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.Status != domain.ReviewStatusCompleted || len(review.Verdict) == 0 {
		return nil, domain.ErrReviewNotCompleted
	}
	var v domain.Verdict
	if err := json.Unmarshal(review.Verdict, &v); err != nil {
		return nil, eris.Wrap(err, "reviewService.GetVerdict: decode verdict")
	}
	return &v, nil
}

func (s *reviewService) GetFileURL(ctx context.Context, id uuid.UUID, index int) (string, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	files, err := decodeFiles(review)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(files) {
		return "", domain.ErrNotFound
	}
	return s.storage.GetPresignedURL(ctx, files[index].Bucket, files[index].Key, s.cfg.PresignExpiry)
}

func decodeFiles(review *domain.Review) ([]domain.ReviewFile, error) {
	var files []domain.ReviewFile
	if err := json.Unmarshal(review.Files, &files); err != nil {
		return nil, eris.Wrapf(err, "decode files of review %s", review.ID)
	}
	return files, nil
}

// Process runs the pipeline for a claimed review and persists the outcome.
// Throttled runs are requeued until maxAttempts; every other failure marks
// the review failed.
func (s *reviewService) Process(ctx context.Context, review *domain.Review, maxAttempts int) {
	logger := zap.L().With(zap.String("review_id", review.ID.String()), zap.Int("attempt", review.Attempts))

	files, err := s.download(ctx, review)
	if err != nil {
		s.fail(ctx, review, fmt.Sprintf("downloading files: %v", err))
		return
	}

	result, err := s.runner.Run(ctx, review.ID.String(), files, review.DualValidation)
	if err != nil {
		s.handleRunError(ctx, review, err, maxAttempts)
		return
	}

	record, err := json.Marshal(result.Record)
	if err != nil {
		s.fail(ctx, review, fmt.Sprintf("encoding record: %v", err))
		return
	}
	verdict, err := json.Marshal(result.Verdict)
	if err != nil {
		s.fail(ctx, review, fmt.Sprintf("encoding verdict: %v", err))
		return
	}

	now := s.now()
	status := result.Verdict.Status
	review.Status = domain.ReviewStatusCompleted
	review.Record = record
	review.Verdict = verdict
	review.VerdictStatus = &status
	review.Error = ""
	review.RetryAfter = nil
	review.CompletedAt = &now

	if err := s.repo.UpdateResult(ctx, review); err != nil {
		logger.Error("reviewService.Process: failed to save result", zap.Error(err))
		return
	}
	logger.Info("reviewService.Process: review completed", zap.String("verdict", string(status)))

	if s.notifier != nil {
		if err := s.notifier.NotifyVerdict(ctx, review, result.Verdict); err != nil {
			logger.Warn("reviewService.Process: notification failed", zap.Error(err))
		}
	}
}

func (s *reviewService) download(ctx context.Context, review *domain.Review) ([]loader.File, error) {
	stored, err := decodeFiles(review)
	if err != nil {
		return nil, err
	}
	files := make([]loader.File, 0, len(stored))
	for _, f := range stored {
		content, err := s.storage.Download(ctx, f.Bucket, f.Key)
		if err != nil {
			return nil, err
		}
		files = append(files, loader.File{
			Name:         f.OriginalName,
			ContentType:  f.ContentType,
			Content:      content,
			DeclaredType: f.DeclaredType,
		})
	}
	return files, nil
}

func (s *reviewService) handleRunError(ctx context.Context, review *domain.Review, runErr error, maxAttempts int) {
	var te *provider.ThrottleError
	if errors.As(runErr, &te) && review.Attempts < maxAttempts {
		retryAt := s.now().Add(te.RetryAfter)
		reason := fmt.Sprintf("throttled by %s, queued for retry", te.Provider)
		if err := s.repo.Requeue(ctx, review.ID, retryAt, reason); err != nil {
			zap.L().Error("reviewService.handleRunError: failed to requeue",
				zap.String("review_id", review.ID.String()), zap.Error(err))
			return
		}
		review.Status = domain.ReviewStatusQueued
		review.RetryAfter = &retryAt
		review.Error = reason
		zap.L().Info("reviewService.handleRunError: review requeued",
			zap.String("review_id", review.ID.String()),
			zap.Time("retry_after", retryAt),
			zap.Int("attempt", review.Attempts),
		)
		return
	}
	s.fail(ctx, review, runErr.Error())
}

func (s *reviewService) fail(ctx context.Context, review *domain.Review, reason string) {
	review.Status = domain.ReviewStatusFailed
	review.Error = reason
	if err := s.repo.MarkFailed(ctx, review.ID, reason); err != nil {
		zap.L().Error("reviewService: failed to mark review failed",
			zap.String("review_id", review.ID.String()), zap.Error(err))
		return
	}
	zap.L().Warn("reviewService: review failed",
		zap.String("review_id", review.ID.String()), zap.String("reason", reason))
}
