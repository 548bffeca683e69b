package response

type StandardApiResponse struct {
	Status     string      `json:"status"`           // "success" or "error"
	StatusCode int         `json:"status_code"`      // HTTP status code
	Message    string      `json:"message"`          // Human-readable message
	Code       string      `json:"error,omitempty"`  // Stable machine-readable error code
	Data       interface{} `json:"data,omitempty"`   // Payload for success
	Errors     interface{} `json:"errors,omitempty"` // Validation or error details
}

// Machine-readable error codes surfaced to the frontend. The booking widget
// switches on these, so they are part of the API contract.
const (
	CodePeriodNotFound     = "PERIOD_NOT_FOUND"
	CodeCourseNotFound     = "COURSE_NOT_FOUND"
	CodeSpotsNotAvailable  = "SPOTS_NOT_AVAILABLE"
	CodeMissingPaymentID   = "MISSING_PAYMENT_ID"
	CodePaymentNotPaid     = "PAYMENT_NOT_PAID"
	CodePaymentConfigError = "PAYMENT_CONFIG_ERROR"
	CodeProviderError      = "PAYMENT_PROVIDER_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeUnknownError       = "UNKNOWN_ERROR"
)
