package drive

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Kind classifies the failure of a Client operation.
type Kind int

const (
	// KindRequest is a failed call to the Drive API (transport or HTTP status).
	KindRequest Kind = iota
	// KindNotInitialized is an operation invoked before Init bound a service.
	KindNotInitialized
	// KindInit is a failure while discovering credentials or building the service.
	KindInit
	// KindInvalidArgument is a call rejected before any request was sent.
	KindInvalidArgument
	// KindQuotaExhausted means the account has no storage left.
	KindQuotaExhausted
	// KindSource is a failure reading local upload bytes.
	KindSource
)

// Sentinel errors, one per Kind. Use errors.Is(err, drive.ErrQuotaExhausted).
var (
	ErrRequest         = errors.New("drive: request failed")
	ErrNotInitialized  = errors.New("drive: session not initialized")
	ErrInit            = errors.New("drive: session initialization failed")
	ErrInvalidArgument = errors.New("drive: invalid argument")
	ErrQuotaExhausted  = errors.New("drive: no storage quota available")
	ErrSource          = errors.New("drive: cannot read upload source")
)

// Sentinel errors for HTTP status classification of request failures.
var (
	ErrBadRequest   = errors.New("drive: bad request")
	ErrUnauthorized = errors.New("drive: unauthorized")
	ErrForbidden    = errors.New("drive: forbidden")
	ErrNotFound     = errors.New("drive: not found")
	ErrRateLimited  = errors.New("drive: rate limited")
	ErrServerError  = errors.New("drive: server error")
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request failed"
	case KindNotInitialized:
		return "session not initialized"
	case KindInit:
		return "initialization failed"
	case KindInvalidArgument:
		return "invalid argument"
	case KindQuotaExhausted:
		return "quota exhausted"
	case KindSource:
		return "upload source unreadable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotInitialized:
		return ErrNotInitialized
	case KindInit:
		return ErrInit
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindQuotaExhausted:
		return ErrQuotaExhausted
	case KindSource:
		return ErrSource
	default:
		return ErrRequest
	}
}

// Error is returned by every Client operation. It carries the operation
// name, the failure kind, the HTTP status when the API answered, and the
// underlying cause.
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := "drive: " + e.Op + ": " + e.Kind.String()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the kind sentinel, the status sentinel (if any) and the cause.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if s := classifyStatus(e.StatusCode); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the Kind of err, or KindRequest with false if err is not a *Error.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return KindRequest, false
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func invalidArgument(op, format string, args ...interface{}) *Error {
	return newError(op, KindInvalidArgument, fmt.Errorf(format, args...))
}

// requestError wraps an SDK error, lifting the HTTP status out of a
// *googleapi.Error when there is one.
func requestError(op string, err error) *Error {
	e := newError(op, KindRequest, err)
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		e.StatusCode = gerr.Code
	}
	return e
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for codes without a dedicated sentinel.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}
		return nil
	}
}
