package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Input errors
	ErrEmptyDomain        = errors.New("empty domain")
	ErrMalformedDomain    = errors.New("malformed domain")
	ErrInstanceNotAllowed = errors.New("instance not allowed")
	ErrMissingCode        = errors.New("missing authorization code")
	ErrApprovalDenied     = errors.New("authorization denied by instance")
	ErrMissingUserID      = errors.New("missing user id")

	// Carrier errors
	ErrMissingCredentials = errors.New("missing carrier credentials")

	// Remote instance errors
	ErrRegistration       = errors.New("application registration failed")
	ErrTokenExchange      = errors.New("token exchange failed")
	ErrRemoteUnauthorized = errors.New("instance rejected access token")
	ErrRemoteAPI          = errors.New("instance API request failed")

	// Provider errors
	ErrProviderNotFound  = errors.New("provider not found")
	ErrDuplicateProvider = errors.New("duplicate provider registration")

	// Config errors
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Kind classifies a failure at the route boundary.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindRegistration
	KindExchange
	KindUnauthenticated
	KindDownstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRegistration:
		return "registration"
	case KindExchange:
		return "exchange"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindDownstream:
		return "downstream"
	default:
		return "unknown"
	}
}

// Status returns the HTTP status code a failure of this kind is reported with.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

// Message is the user-facing text for a kind. Remote error bodies never reach the user.
func (k Kind) Message() string {
	switch k {
	case KindValidation:
		return "The request was invalid. Check the instance domain and try again."
	case KindRegistration:
		return "Could not register this application with the instance."
	case KindExchange:
		return "The instance did not grant an access token."
	case KindUnauthenticated:
		return "Your session is missing or has expired. Please sign in again."
	default:
		return "The instance API request failed."
	}
}

// Error is a failure tagged with its Kind and the broker operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of err. Errors without one are downstream failures.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrEmptyDomain), errors.Is(err, ErrMalformedDomain),
		errors.Is(err, ErrInstanceNotAllowed), errors.Is(err, ErrMissingCode),
		errors.Is(err, ErrApprovalDenied), errors.Is(err, ErrMissingUserID):
		return KindValidation
	case errors.Is(err, ErrMissingCredentials):
		return KindUnauthenticated
	case errors.Is(err, ErrRegistration):
		return KindRegistration
	case errors.Is(err, ErrTokenExchange):
		return KindExchange
	default:
		return KindDownstream
	}
}
