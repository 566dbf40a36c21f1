package handler

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// Response wraps a successful response.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// FileURLResponse carries a presigned download URL for a review file.
type FileURLResponse struct {
	URL string `json:"url" example:"https://bucket.s3.ap-northeast-2.amazonaws.com/reviews/...&X-Amz-Signature=..."`
}
