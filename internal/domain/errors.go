package domain

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed         = errors.New("file upload to storage failed")
	ErrReviewNotFound       = errors.New("review not found")
	ErrInvalidReviewRequest = errors.New("invalid review request")
	ErrReviewNotCompleted   = errors.New("review has not completed yet")
	ErrExtractionFailed     = errors.New("no field could be extracted from the document")
	ErrUnknownPass          = errors.New("unknown extraction pass")
)
