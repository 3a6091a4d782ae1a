// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Input
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeInputParsingFailed    ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"

	// Search
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	// Catalog
	ErrCodeInvalidFilterFormat ErrorCode = "INVALID_FILTER_FORMAT"
	ErrCodeCatalogNotFound     ErrorCode = "CATALOG_NOT_FOUND"
	ErrCodeRequestGuardFailed  ErrorCode = "REQUEST_GUARD_FAILED"

	// Checkout
	ErrCodeSessionNotFound        ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionVersionConflict ErrorCode = "SESSION_VERSION_CONFLICT"
	ErrCodeSessionStoreFailed     ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeInvalidCheckoutStep    ErrorCode = "INVALID_CHECKOUT_STEP"
	ErrCodeInvalidSessionChange   ErrorCode = "INVALID_SESSION_CHANGE"

	// Trade-in
	ErrCodeTradeInDisqualified     ErrorCode = "TRADE_IN_DISQUALIFIED"
	ErrCodeInvalidWizardAction     ErrorCode = "INVALID_WIZARD_ACTION"
	ErrCodeInvalidDeviceKey        ErrorCode = "INVALID_DEVICE_KEY"
	ErrCodeValuationFailed         ErrorCode = "TRADE_IN_VALUATION_FAILED"
	ErrCodeValuationRejected       ErrorCode = "TRADE_IN_VALUATION_REJECTED"
	ErrCodeValuationTimeout        ErrorCode = "TRADE_IN_VALUATION_TIMEOUT"
	ErrCodeHierarchyQueryFailed    ErrorCode = "HIERARCHY_QUERY_FAILED"
	ErrCodeTradeInCategoryNotFound ErrorCode = "TRADE_IN_CATEGORY_NOT_FOUND"

	// Notifications
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNotFound        ErrorCode = "RESOURCE_NOT_FOUND"
)

// StandardError is the error every worker reports to the process engine.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// As finds the first StandardError in err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func NewInputValidationError(details string) *StandardError {
	return newError(ErrCodeInputValidationFailed, "Input validation failed", details, false, nil)
}

func NewInputParsingError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", errDetails(err), false, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errDetails(err), false, err)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, errDetails(err)), true, err)
}

func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("index: %s", index), true, nil)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false, nil)
}

func NewInvalidFilterFormatError(details string) *StandardError {
	return newError(ErrCodeInvalidFilterFormat, "Invalid filter format", details, false, nil)
}

func NewCatalogNotFoundError(categoryID, sectionID string) *StandardError {
	return newError(ErrCodeCatalogNotFound, "No filter configuration for category",
		fmt.Sprintf("categoryId: %s, sectionId: %s", categoryID, sectionID), false, nil)
}

func NewRequestGuardFailedError(err error) *StandardError {
	return newError(ErrCodeRequestGuardFailed, "Request token store unavailable", errDetails(err), true, err)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Checkout session not found", fmt.Sprintf("sessionId: %s", sessionID), false, nil)
}

func NewSessionVersionConflictError(sessionID string, expected, actual int64) *StandardError {
	return newError(ErrCodeSessionVersionConflict, "Checkout session was modified concurrently",
		fmt.Sprintf("sessionId: %s, expectedVersion: %d, actualVersion: %d", sessionID, expected, actual), false, nil).
		WithMetadata("expectedVersion", expected).
		WithMetadata("actualVersion", actual)
}

func NewSessionStoreFailedError(err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Checkout session store error", errDetails(err), true, err)
}

func NewInvalidCheckoutStepError(step string) *StandardError {
	return newError(ErrCodeInvalidCheckoutStep, "Unknown checkout step", fmt.Sprintf("step: %s", step), false, nil)
}

func NewInvalidSessionChangeError(details string) *StandardError {
	return newError(ErrCodeInvalidSessionChange, "Checkout session change rejected", details, false, nil)
}

func NewTradeInDisqualifiedError() *StandardError {
	return newError(ErrCodeTradeInDisqualified, "Device is not eligible for trade-in",
		"an eligibility question was answered no; reset the wizard to start over", false, nil)
}

func NewInvalidWizardActionError(details string) *StandardError {
	return newError(ErrCodeInvalidWizardAction, "Trade-in wizard action not allowed", details, false, nil)
}

func NewInvalidDeviceKeyError(details string) *StandardError {
	return newError(ErrCodeInvalidDeviceKey, "Invalid trade-in device key", details, false, nil)
}

func NewValuationFailedError(err error) *StandardError {
	return newError(ErrCodeValuationFailed, "Trade-in valuation service error", errDetails(err), true, err)
}

func NewValuationRejectedError(status int, details string) *StandardError {
	return newError(ErrCodeValuationRejected, "Trade-in valuation request rejected",
		fmt.Sprintf("status: %d, body: %s", status, details), false, nil).
		WithMetadata("statusCode", status)
}

func NewValuationTimeoutError() *StandardError {
	return newError(ErrCodeValuationTimeout, "Trade-in valuation timeout", "valuation call exceeded timeout", true, nil)
}

func NewHierarchyQueryFailedError(level string, err error) *StandardError {
	return newError(ErrCodeHierarchyQueryFailed, "Trade-in hierarchy query failed",
		fmt.Sprintf("level: %s, error: %s", level, errDetails(err)), true, err)
}

func NewTradeInCategoryNotFoundError(categoryID string) *StandardError {
	return newError(ErrCodeTradeInCategoryNotFound, "Trade-in category not found", fmt.Sprintf("categoryId: %s", categoryID), false, nil)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, errDetails(err)), true, err)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), errDetails(err), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), errDetails(err), true, err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeNotFound, fmt.Sprintf("Resource not found in %s", service), details, false, nil)
}

// BPMNErrorMapping maps internal codes to the error codes boundary events
// catch. Codes not listed are passed through unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputValidationFailed:   "INPUT_VALIDATION_FAILED",
	ErrCodeInputParsingFailed:      "INPUT_VALIDATION_FAILED",
	ErrCodeInvalidFilterFormat:     "INVALID_FILTER_FORMAT",
	ErrCodeCatalogNotFound:         "CATALOG_NOT_FOUND",
	ErrCodeIndexNotFound:           "INDEX_NOT_FOUND",
	ErrCodeSearchQueryFailed:       "SEARCH_FAILED",
	ErrCodeSearchTimeout:           "SEARCH_FAILED",
	ErrCodeSessionNotFound:         "SESSION_NOT_FOUND",
	ErrCodeSessionVersionConflict:  "SESSION_VERSION_CONFLICT",
	ErrCodeInvalidCheckoutStep:     "INVALID_CHECKOUT_STEP",
	ErrCodeInvalidSessionChange:    "INVALID_SESSION_CHANGE",
	ErrCodeTradeInDisqualified:     "TRADE_IN_DISQUALIFIED",
	ErrCodeInvalidWizardAction:     "INVALID_WIZARD_ACTION",
	ErrCodeInvalidDeviceKey:        "INVALID_DEVICE_KEY",
	ErrCodeValuationFailed:         "TRADE_IN_VALUATION_FAILED",
	ErrCodeValuationRejected:       "TRADE_IN_VALUATION_FAILED",
	ErrCodeValuationTimeout:        "TRADE_IN_VALUATION_FAILED",
	ErrCodeTradeInCategoryNotFound: "TRADE_IN_CATEGORY_NOT_FOUND",
	ErrCodeNotificationSendFailed:  "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns how many engine retries a code deserves: technical
// failures 3, timeouts 2, business errors none.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSearchQueryFailed,
		ErrCodeRequestGuardFailed,
		ErrCodeSessionStoreFailed,
		ErrCodeValuationFailed,
		ErrCodeHierarchyQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService:
		return 3
	case ErrCodeSearchTimeout,
		ErrCodeValuationTimeout,
		ErrCodeTimeout:
		return 2
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "SESSION") || strings.Contains(codeStr, "CHECKOUT"):
		return "CHECKOUT"
	case strings.Contains(codeStr, "TRADE_IN") || strings.Contains(codeStr, "WIZARD") ||
		strings.Contains(codeStr, "DEVICE") || strings.Contains(codeStr, "HIERARCHY"):
		return "TRADE_IN"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "FILTER") || strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "GUARD"):
		return "CATALOG"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
