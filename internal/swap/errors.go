// Package swap builds and prices token purchases through the Jupiter
// aggregator API.
package swap

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed swap for retry decisions.
type ErrorKind string

const (
	// KindInsufficientFunds means the account cannot cover the spend.
	// Retrying cannot help.
	KindInsufficientFunds ErrorKind = "insufficient_funds"

	// KindSlippageExceeded means the price moved past the tolerance
	// between quote and execution. Terminal: the tolerance was the
	// operator's price bound, and resubmitting into a moving price
	// would buy past it.
	KindSlippageExceeded ErrorKind = "slippage_exceeded"

	// KindRateLimited means the API or RPC throttled the request.
	KindRateLimited ErrorKind = "rate_limited"

	// KindNetwork covers transport failures and upstream 5xx responses.
	KindNetwork ErrorKind = "network_error"

	// KindNoRoute means the aggregator found no path for the pair.
	KindNoRoute ErrorKind = "no_route"

	// KindUnknown is every failure the classifier cannot place. Treated
	// as terminal so an unrecognized on-chain failure is never retried
	// blindly.
	KindUnknown ErrorKind = "unknown"
)

// Error is a classified swap failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("swap %s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("swap %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("swap %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether a retry could plausibly succeed.
func (e *Error) Transient() bool {
	switch e.Kind {
	case KindRateLimited, KindNetwork:
		return true
	}
	return false
}

// NewError builds a classified error wrapping cause.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// IsTransient reports whether err is a swap error worth retrying.
// Unclassified errors are terminal.
func IsTransient(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Transient()
	}
	return false
}

// KindOf extracts the classification from err, KindUnknown otherwise.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// Jupiter program error code for exceeded slippage tolerance, in the
// hex form simulation logs use and the decimal form decoded
// transaction errors use.
const (
	slippageCustomCode    = "0x1771"
	slippageCustomDecimal = "custom:6001"
)

// Classify maps a raw failure message onto an ErrorKind. The message
// may come from an HTTP body, a JSON-RPC error, or simulation logs.
func Classify(message string, cause error) *Error {
	lower := strings.ToLower(message)

	switch {
	// 0x1771 must be tested before the token program's bare 0x1.
	case strings.Contains(lower, "slippage"),
		strings.Contains(lower, slippageCustomCode),
		strings.Contains(lower, slippageCustomDecimal):
		return NewError(KindSlippageExceeded, message, cause)
	case strings.Contains(lower, "insufficient lamports"),
		strings.Contains(lower, "insufficient funds"),
		strings.Contains(lower, "custom program error: 0x1"):
		return NewError(KindInsufficientFunds, message, cause)
	case strings.Contains(lower, "429"),
		strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "too many requests"):
		return NewError(KindRateLimited, message, cause)
	case strings.Contains(lower, "no route"),
		strings.Contains(lower, "could not find any route"):
		return NewError(KindNoRoute, message, cause)
	case strings.Contains(lower, "timeout"),
		strings.Contains(lower, "connection"),
		strings.Contains(lower, "eof"),
		strings.Contains(lower, "blockhash not found"):
		return NewError(KindNetwork, message, cause)
	}
	return NewError(KindUnknown, message, cause)
}
