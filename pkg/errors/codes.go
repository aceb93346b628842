package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeBadRequest     ErrorCode = "COMMON_002"
	ErrCodeUnauthorized   ErrorCode = "COMMON_003"
	ErrCodeForbidden      ErrorCode = "COMMON_004"
	ErrCodeNotFound       ErrorCode = "COMMON_005"
	ErrCodeConflict       ErrorCode = "COMMON_006"
	ErrCodeTimeout        ErrorCode = "COMMON_007"
	ErrCodeValidation     ErrorCode = "COMMON_008"
	ErrCodeSerialization  ErrorCode = "COMMON_009"
	ErrCodeCacheError     ErrorCode = "COMMON_010"
	ErrCodeUnknown        ErrorCode = "COMMON_011"
	ErrCodeNotImplemented ErrorCode = "COMMON_012"

	CodeOK ErrorCode = "OK"
)

// Match scoring module error codes.
const (
	ErrCodeProfileNotFound     ErrorCode = "MATCH_001"
	ErrCodeOpportunityNotFound ErrorCode = "MATCH_002"
	ErrCodeScoreNotFound       ErrorCode = "MATCH_003"
	ErrCodeInvalidWeights      ErrorCode = "MATCH_004"
	ErrCodeBatchTooLarge       ErrorCode = "MATCH_005"
	ErrCodeInvalidRating       ErrorCode = "MATCH_006"
	ErrCodeFeedbackNotFound    ErrorCode = "MATCH_007"
)

// Enrichment / LLM provider error codes.
const (
	ErrCodeProvider        ErrorCode = "LLM_001"
	ErrCodeProviderTimeout ErrorCode = "LLM_002"
	ErrCodeProviderParse   ErrorCode = "LLM_003"
	ErrCodeLimitExceeded   ErrorCode = "LLM_004"
)

// Record store error codes.
const (
	ErrCodePersistence ErrorCode = "STORE_001"
	ErrCodeStoreQuery  ErrorCode = "STORE_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeConflict:       http.StatusConflict,
	ErrCodeTimeout:        http.StatusGatewayTimeout,
	ErrCodeValidation:     http.StatusUnprocessableEntity,
	ErrCodeSerialization:  http.StatusInternalServerError,
	ErrCodeCacheError:     http.StatusInternalServerError,
	ErrCodeNotImplemented: http.StatusNotImplemented,

	ErrCodeProfileNotFound:     http.StatusNotFound,
	ErrCodeOpportunityNotFound: http.StatusNotFound,
	ErrCodeScoreNotFound:       http.StatusNotFound,
	ErrCodeInvalidWeights:      http.StatusUnprocessableEntity,
	ErrCodeBatchTooLarge:       http.StatusUnprocessableEntity,
	ErrCodeInvalidRating:       http.StatusUnprocessableEntity,
	ErrCodeFeedbackNotFound:    http.StatusNotFound,

	ErrCodeProvider:        http.StatusBadGateway,
	ErrCodeProviderTimeout: http.StatusGatewayTimeout,
	ErrCodeProviderParse:   http.StatusBadGateway,
	ErrCodeLimitExceeded:   http.StatusTooManyRequests,

	ErrCodePersistence: http.StatusInternalServerError,
	ErrCodeStoreQuery:  http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:       "internal server error",
	ErrCodeBadRequest:     "bad request",
	ErrCodeUnauthorized:   "unauthorized",
	ErrCodeForbidden:      "forbidden",
	ErrCodeNotFound:       "resource not found",
	ErrCodeConflict:       "resource conflict",
	ErrCodeTimeout:        "request timeout",
	ErrCodeValidation:     "validation failed",
	ErrCodeSerialization:  "serialization failed",
	ErrCodeCacheError:     "cache error",
	ErrCodeNotImplemented: "not implemented",

	ErrCodeProfileNotFound:     "capability profile not found",
	ErrCodeOpportunityNotFound: "opportunity not found",
	ErrCodeScoreNotFound:       "match score not found",
	ErrCodeInvalidWeights:      "category weights must sum to 100",
	ErrCodeBatchTooLarge:       "batch exceeds maximum size",
	ErrCodeInvalidRating:       "rating out of range",
	ErrCodeFeedbackNotFound:    "feedback record not found",

	ErrCodeProvider:        "enrichment provider error",
	ErrCodeProviderTimeout: "enrichment provider timed out",
	ErrCodeProviderParse:   "failed to parse enrichment response",
	ErrCodeLimitExceeded:   "usage quota exceeded",

	ErrCodePersistence: "failed to persist record",
	ErrCodeStoreQuery:  "record store query failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}
