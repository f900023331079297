package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal        ErrorCode = "COMMON_001"
	ErrCodeBadRequest      ErrorCode = "COMMON_002"
	ErrCodeNotFound        ErrorCode = "COMMON_005"
	ErrCodeConflict        ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests ErrorCode = "COMMON_007"
	ErrCodeUnavailable     ErrorCode = "COMMON_008"
	ErrCodeTimeout         ErrorCode = "COMMON_009"
	ErrCodeValidation      ErrorCode = "COMMON_010"
	ErrCodeSerialization   ErrorCode = "COMMON_011"
	ErrCodeDatabaseError   ErrorCode = "COMMON_012"
	ErrCodeCacheError      ErrorCode = "COMMON_013"
	ErrCodeExternalService ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled ErrorCode = "COMMON_015"
)

const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

// SHG record Error Codes
const (
	ErrCodeSHGNotFound      ErrorCode = "SHG_001"
	ErrCodeProductNotFound  ErrorCode = "SHG_002"
	ErrCodeDemandNotFound   ErrorCode = "SHG_003"
	ErrCodeInvalidRecord    ErrorCode = "SHG_004"
	ErrCodeDatasetMalformed ErrorCode = "SHG_005"
)

// Analytics Error Codes
const (
	ErrCodeSnapshotLoadFailed ErrorCode = "ANL_001"
	ErrCodeReferenceMissing   ErrorCode = "ANL_002"
)

// Advisory Error Codes
const (
	ErrCodeAdvisoryUnavailable   ErrorCode = "ADV_001"
	ErrCodeAdvisoryRateLimited   ErrorCode = "ADV_002"
	ErrCodeAdvisoryNotConfigured ErrorCode = "ADV_003"
)

// Migration Error Codes
const (
	ErrCodeMigrationFailed ErrorCode = "MIG_001"
	ErrCodeMigrationDirty  ErrorCode = "MIG_002"
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:        "internal error",
	ErrCodeBadRequest:      "bad request",
	ErrCodeNotFound:        "resource not found",
	ErrCodeConflict:        "resource conflict",
	ErrCodeTooManyRequests: "too many requests",
	ErrCodeUnavailable:     "service unavailable",
	ErrCodeTimeout:         "request timeout",
	ErrCodeValidation:      "validation failed",
	ErrCodeSerialization:   "serialization failed",
	ErrCodeDatabaseError:   "database error",
	ErrCodeCacheError:      "cache error",
	ErrCodeExternalService: "external service error",
	ErrCodeFeatureDisabled: "feature disabled",

	ErrCodeSHGNotFound:      "shg not found",
	ErrCodeProductNotFound:  "product not found",
	ErrCodeDemandNotFound:   "demand centre not found",
	ErrCodeInvalidRecord:    "invalid record",
	ErrCodeDatasetMalformed: "malformed dataset",

	ErrCodeSnapshotLoadFailed: "failed to load analytics snapshot",
	ErrCodeReferenceMissing:   "reference data missing",

	ErrCodeAdvisoryUnavailable:   "advisory service unavailable",
	ErrCodeAdvisoryRateLimited:   "advisory service rate limited",
	ErrCodeAdvisoryNotConfigured: "advisory service not configured",

	ErrCodeMigrationFailed: "schema migration failed",
	ErrCodeMigrationDirty:  "schema is in a dirty state",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

// IsRetryable reports whether a failure with this code may succeed when the
// same operation is attempted again.
func IsRetryable(code ErrorCode) bool {
	switch code {
	case ErrCodeTooManyRequests, ErrCodeUnavailable, ErrCodeTimeout, ErrCodeAdvisoryRateLimited:
		return true
	default:
		return false
	}
}
