package client

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// ErrorType categorizes an exchange failure.
type ErrorType int

const (
	// ErrTypeConnection indicates the TCP connection could not be opened
	// or was lost (refused, unreachable, DNS failure, reset).
	ErrTypeConnection ErrorType = iota
	// ErrTypeWrite indicates the socket closed while the request frame
	// was being written.
	ErrTypeWrite
	// ErrTypeTimeout indicates no matching frame arrived within the
	// configured window.
	ErrTypeTimeout
	// ErrTypeBusy indicates another exchange was already in flight and
	// the client is configured to reject rather than queue.
	ErrTypeBusy
	// ErrTypeDecode indicates the matching frame's payload could not be
	// decoded; this points at a registry/device mismatch.
	ErrTypeDecode
	// ErrTypeRegistry indicates a command or field lookup failed; this is
	// a caller bug, fatal to the operation.
	ErrTypeRegistry
	// ErrTypeCanceled indicates the caller abandoned the exchange.
	ErrTypeCanceled
)

// String returns a human-readable name for the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConnection:
		return "connection error"
	case ErrTypeWrite:
		return "write error"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeBusy:
		return "busy"
	case ErrTypeDecode:
		return "decode error"
	case ErrTypeRegistry:
		return "registry error"
	case ErrTypeCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(et))
	}
}

// ExchangeError is the error returned by client operations.
type ExchangeError struct {
	Type      ErrorType
	Command   string // logical command name, when known
	Message   string
	Err       error // underlying error, if any
	Retryable bool  // whether the next poll cycle may reasonably retry
}

func (e *ExchangeError) Error() string {
	prefix := e.Type.String()
	if e.Command != "" {
		prefix = fmt.Sprintf("%s [%s]", prefix, e.Command)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

func newExchangeError(t ErrorType, command, message string, err error, retryable bool) *ExchangeError {
	return &ExchangeError{Type: t, Command: command, Message: message, Err: err, Retryable: retryable}
}

// classifyConnError maps a dial or read failure to an ExchangeError with a
// sensible retryability flag. DNS failures are permanent (a bad hostname
// will not fix itself next cycle); everything else is worth retrying.
func classifyConnError(command string, err error) *ExchangeError {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return newExchangeError(ErrTypeConnection, command,
			fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name), err, false)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return newExchangeError(ErrTypeConnection, command, "device refused connection", err, true)
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return newExchangeError(ErrTypeConnection, command, "host unreachable", err, true)
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return newExchangeError(ErrTypeConnection, command, "network unreachable", err, true)
		}
	}

	return newExchangeError(ErrTypeConnection, command, "connection failed", err, true)
}

func errorType(err error) (ErrorType, bool) {
	var ee *ExchangeError
	if errors.As(err, &ee) {
		return ee.Type, true
	}
	return 0, false
}

// IsTimeout reports whether err is an exchange timeout.
func IsTimeout(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeTimeout
}

// IsBusy reports whether err was caused by a concurrent exchange.
func IsBusy(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeBusy
}

// IsConnectionError reports whether err is a transport-level failure.
func IsConnectionError(err error) bool {
	t, ok := errorType(err)
	return ok && (t == ErrTypeConnection || t == ErrTypeWrite)
}

// IsCanceled reports whether err was caused by context cancellation.
func IsCanceled(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeCanceled
}

// IsRetryable reports whether the caller may reasonably retry on the next
// poll cycle. Unknown errors are not retryable.
func IsRetryable(err error) bool {
	var ee *ExchangeError
	if errors.As(err, &ee) {
		return ee.Retryable
	}
	return false
}

// timeoutErr reports whether err is a deadline expiry from the socket.
func timeoutErr(err error) bool {
	if os.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
