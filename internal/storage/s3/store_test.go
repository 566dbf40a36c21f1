package s3_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"housingreview/internal/storage/s3"
)

func TestReviewFileKey(t *testing.T) {
	id := uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-001122334455")

	assert.Equal(t, "reviews/6f1c2d3e-4a5b-4c6d-8e7f-001122334455/01-토지대장.pdf", s3.ReviewFileKey(id, 0, "토지대장.pdf"))
	assert.Equal(t, "reviews/6f1c2d3e-4a5b-4c6d-8e7f-001122334455/12-scan.png", s3.ReviewFileKey(id, 11, "../../scan.png"))
	assert.Equal(t, "reviews/6f1c2d3e-4a5b-4c6d-8e7f-001122334455/03-file", s3.ReviewFileKey(id, 2, "  "))
}
