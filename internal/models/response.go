package models

// Коды ошибок в ответах API.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_failed"
	ErrCodeNotFound         = "not_found"
	ErrCodeCapacityExceeded = "capacity_exceeded"
	ErrCodeInvalidState     = "invalid_state"
	ErrCodeSubmission       = "submission_failed"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeTokenExpired     = "token_expired"
	ErrCodeForbidden        = "forbidden"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
)

// ErrorResponse - тело ответа об ошибке.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// PaginatedResponse оборачивает страницу результатов.
type PaginatedResponse struct {
	Data   interface{} `json:"data"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
