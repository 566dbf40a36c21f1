package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"housingreview/internal/domain"
	"housingreview/internal/export"
	"housingreview/internal/middleware"
	"housingreview/internal/service"
)

const (
	maxExportReviews = 1000
	exportPageSize   = 100

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	reviewService service.ReviewService
	now           func() time.Time
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, now: time.Now}
}

// Submit handles POST /api/v1/reviews
// @Summary Submit a review
// @Description Upload the application files (PDF, JPG, PNG) and queue a review. declared_types is aligned with files; an empty entry means detect.
// @Tags reviews
// @Accept multipart/form-data
// @Produce json
// @Param application_no formData string true "Application number"
// @Param notify_email formData string false "Address notified when the verdict is ready"
// @Param dual_validation formData bool false "Run both extraction passes"
// @Param files formData file true "Application files"
// @Param declared_types formData []string false "Document type per file"
// @Success 202 {object} Response{data=domain.Review} "Review queued"
// @Failure 400 {object} ErrorResponseBody "Missing file, unsupported type or invalid field"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Insufficient role"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 500 {object} ErrorResponseBody "Upload failed"
// @Security BearerAuth
// @Router /reviews [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "multipart form is required")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "at least one file is required")
		return
	}

	input := &service.SubmitReviewInput{
		ApplicationNo: c.PostForm("application_no"),
		NotifyEmail:   c.PostForm("notify_email"),
		SubmittedBy:   middleware.GetSubject(c),
	}
	if raw := c.PostForm("dual_validation"); raw != "" {
		dual, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "dual_validation must be a boolean")
			return
		}
		input.DualValidation = &dual
	}

	declared := form.Value["declared_types"]
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for i, fh := range headers {
		file, openErr := fh.Open()
		if openErr != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read "+fh.Filename)
			return
		}
		opened = append(opened, file)

		sf := service.SubmitFile{Name: fh.Filename, Size: fh.Size, Body: file}
		if i < len(declared) && declared[i] != "" {
			dt := domain.ParseDocumentType(declared[i])
			if !dt.Valid() {
				RespondError(c, http.StatusBadRequest, "INVALID_DOCUMENT_TYPE", "unknown document type: "+declared[i])
				return
			}
			sf.DeclaredType = dt
		}
		input.Files = append(input.Files, sf)
	}

	review, err := h.reviewService.Submit(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, review)
}

// List handles GET /api/v1/reviews
// @Summary List reviews
// @Tags reviews
// @Produce json
// @Param status query string false "queued, processing, completed or failed"
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} Response{data=[]domain.Review,meta=PagMeta}
// @Failure 400 {object} ErrorResponseBody "Invalid status"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	status, ok := parseStatus(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	reviews, total, err := h.reviewService.List(c.Request.Context(), status, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, reviews, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/reviews/:id
// @Summary Get review by ID
// @Tags reviews
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} Response{data=domain.Review}
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Review not found"
// @Security BearerAuth
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	review, err := h.reviewService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, review)
}

// GetVerdict handles GET /api/v1/reviews/:id/verdict
// @Summary Get review verdict
// @Tags reviews
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} Response{data=domain.Verdict}
// @Failure 404 {object} ErrorResponseBody "Review not found"
// @Failure 409 {object} ErrorResponseBody "Review has not completed yet"
// @Security BearerAuth
// @Router /reviews/{id}/verdict [get]
func (h *ReviewHandler) GetVerdict(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	verdict, err := h.reviewService.GetVerdict(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, verdict)
}

// GetFileURL handles GET /api/v1/reviews/:id/files/:index
// @Summary Get a presigned download URL for a review file
// @Tags reviews
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Param index path int true "Zero-based file index"
// @Success 200 {object} Response{data=FileURLResponse}
// @Failure 404 {object} ErrorResponseBody "Review or file not found"
// @Security BearerAuth
// @Router /reviews/{id}/files/{index} [get]
func (h *ReviewHandler) GetFileURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_INDEX", "file index must be a non-negative integer")
		return
	}
	u, err := h.reviewService.GetFileURL(c.Request.Context(), id, index)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, FileURLResponse{URL: u})
}

// Export handles GET /api/v1/reviews/:id/export?format=csv|xlsx
// @Summary Export one review
// @Tags reviews
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Review ID (UUID)"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponseBody "Review not found"
// @Security BearerAuth
// @Router /reviews/{id}/export [get]
func (h *ReviewHandler) Export(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	format, ok := parseFormat(c)
	if !ok {
		return
	}
	review, err := h.reviewService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	h.writeExport(c, format, review.ApplicationNo, []domain.Review{*review})
}

// ExportAll handles GET /api/v1/reviews/export?format=csv|xlsx&status=
// It exports at most maxExportReviews reviews, newest first.
// @Summary Export reviews
// @Tags reviews
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "queued, processing, completed or failed"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file
// @Security BearerAuth
// @Router /reviews/export [get]
func (h *ReviewHandler) ExportAll(c *gin.Context) {
	status, ok := parseStatus(c)
	if !ok {
		return
	}
	format, ok := parseFormat(c)
	if !ok {
		return
	}

	var all []domain.Review
	for offset := 0; offset < maxExportReviews; offset += exportPageSize {
		page, total, err := h.reviewService.List(c.Request.Context(), status, offset, exportPageSize)
		if err != nil {
			HandleError(c, err)
			return
		}
		all = append(all, page...)
		if len(page) < exportPageSize || offset+len(page) >= total {
			break
		}
	}
	name := "reviews"
	if status != "" {
		name += "_" + string(status)
	}
	h.writeExport(c, format, name, all)
}

func (h *ReviewHandler) writeExport(c *gin.Context, format, name string, reviews []domain.Review) {
	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "xlsx":
		err = export.WriteXLSX(&buf, reviews)
		contentType = contentTypeXLSX
	default:
		err = export.WriteCSV(&buf, reviews)
		contentType = contentTypeCSV
	}
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename(name, format, h.now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename)))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid review ID")
		return uuid.Nil, false
	}
	return id, true
}

func parseStatus(c *gin.Context) (domain.ReviewStatus, bool) {
	status := domain.ReviewStatus(c.Query("status"))
	switch status {
	case "", domain.ReviewStatusQueued, domain.ReviewStatusProcessing,
		domain.ReviewStatusCompleted, domain.ReviewStatusFailed:
		return status, true
	}
	RespondError(c, http.StatusBadRequest, "INVALID_STATUS", "status must be one of queued, processing, completed, failed")
	return "", false
}

func parseFormat(c *gin.Context) (string, bool) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return "", false
	}
	return format, true
}
