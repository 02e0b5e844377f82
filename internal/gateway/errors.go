package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
)

// Kind identifies one of the fixed, caller-actionable failure classes.
// Callers can branch on the kind without knowing provider-specific error
// shapes.
type Kind string

const (
	// KindAuthRequired means no usable credential exists. Terminal until the
	// operator completes the out-of-band consent flow.
	KindAuthRequired Kind = "auth_required"

	// KindUnauthorized means the provider rejected the credential. The
	// dispatcher performs exactly one refresh-and-retry for this kind.
	KindUnauthorized Kind = "unauthorized"

	// KindUnknownTool means the tool name is not registered.
	KindUnknownTool Kind = "unknown_tool"

	// KindInvalidArgument means the tool arguments violated the schema or a
	// provider-side validation rule. Fields lists the offending arguments.
	KindInvalidArgument Kind = "invalid_argument"

	// KindNotFound means the target resource does not exist.
	KindNotFound Kind = "not_found"

	// KindRateLimited means provider backpressure. RetryAfter carries the
	// provider hint, or DefaultRetryAfter when the provider gave none.
	// The gateway never retries on its own.
	KindRateLimited Kind = "rate_limited"

	// KindTransient covers network faults and provider 5xx responses. Safe to
	// retry for idempotent capabilities only.
	KindTransient Kind = "transient"

	// KindAmbiguous means a non-idempotent capability failed after the request
	// may have reached the provider. Never retried, silently or otherwise.
	KindAmbiguous Kind = "ambiguous_failure"
)

// DefaultRetryAfter is the conservative backoff hint used when a rate-limited
// response carries no Retry-After header.
const DefaultRetryAfter = 30 * time.Second

// Error is the classified error surfaced across the gateway boundary.
type Error struct {
	Kind       Kind
	Message    string
	Fields     []string      // offending fields, for invalid_argument
	RetryAfter time.Duration // backoff hint, for rate_limited
	cause      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (fields: %s)", strings.Join(e.Fields, ", "))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// E constructs a classified error with a formatted message.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument constructs an invalid_argument error listing the offending
// fields.
func InvalidArgument(message string, fields ...string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message, Fields: fields}
}

// Ambiguous wraps a failure of a non-idempotent capability that may have
// reached the provider.
func Ambiguous(operation string, cause error) *Error {
	return &Error{
		Kind:    KindAmbiguous,
		Message: fmt.Sprintf("%s failed after the request may have reached the provider; not retried", operation),
		cause:   cause,
	}
}

// KindOf returns the classification of err, or KindTransient if err carries
// no classification.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindTransient
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == kind
}

// Classify maps a provider or transport error onto the fixed taxonomy.
// Already-classified errors pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr, err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransient, Message: err.Error(), cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindTransient, Message: "network error: " + err.Error(), cause: err}
	}

	return &Error{Kind: KindTransient, Message: err.Error(), cause: err}
}

// ClassifyOp is Classify with an operation prefix on the message.
func ClassifyOp(operation string, err error) *Error {
	ce := Classify(err)
	if ce == nil {
		return nil
	}
	classified := *ce
	classified.Message = operation + ": " + ce.Message
	return &classified
}

func classifyAPIError(apiErr *googleapi.Error, cause error) *Error {
	switch {
	case apiErr.Code == http.StatusBadRequest:
		return &Error{Kind: KindInvalidArgument, Message: apiErr.Message, cause: cause}
	case apiErr.Code == http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, Message: "provider rejected credential", cause: cause}
	case apiErr.Code == http.StatusForbidden:
		// 403 is overloaded: quota exhaustion is backpressure, anything else
		// is a permission problem that refreshing cannot fix.
		if isQuotaError(apiErr) {
			return rateLimited(apiErr, cause)
		}
		return &Error{Kind: KindUnauthorized, Message: apiErr.Message, cause: cause}
	case apiErr.Code == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Message: apiErr.Message, cause: cause}
	case apiErr.Code == http.StatusTooManyRequests:
		return rateLimited(apiErr, cause)
	case apiErr.Code >= 500:
		return &Error{Kind: KindTransient, Message: fmt.Sprintf("provider error %d: %s", apiErr.Code, apiErr.Message), cause: cause}
	default:
		return &Error{Kind: KindTransient, Message: apiErr.Message, cause: cause}
	}
}

func rateLimited(apiErr *googleapi.Error, cause error) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Message:    apiErr.Message,
		RetryAfter: retryAfterHint(apiErr.Header),
		cause:      cause,
	}
}

// retryAfterHint extracts the Retry-After header in its delta-seconds form.
// HTTP-date values and missing headers fall back to DefaultRetryAfter.
func retryAfterHint(header http.Header) time.Duration {
	if header != nil {
		if v := header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return DefaultRetryAfter
}

var quotaReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
}

func isQuotaError(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if quotaReasons[item.Reason] {
			return true
		}
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit")
}
