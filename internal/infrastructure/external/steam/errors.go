package steam

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies an upstream failure. The aggregation layer keys
// its absorb-or-propagate decisions on the kind, never on raw status
// codes.
type ErrorKind int

const (
	// KindTimeout is a request that exceeded its deadline.
	KindTimeout ErrorKind = iota
	// KindRateLimited is an HTTP 429 from Steam.
	KindRateLimited
	// KindDenied is a 401/403: bad key, private profile, or revoked
	// access to the requested data.
	KindDenied
	// KindServerError is any 5xx, or a transport-level failure.
	KindServerError
	// KindMalformed is a response body that could not be decoded.
	KindMalformed
)

// String returns the metric-label form of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate_limited"
	case KindDenied:
		return "denied"
	case KindServerError:
		return "server_error"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is a classified upstream failure from the Steam Web API or the
// storefront.
type Error struct {
	Kind     ErrorKind
	Endpoint string
	Status   int // HTTP status, 0 for transport/decode failures
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("steam %s: %s: %v", e.Endpoint, e.Kind, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("steam %s: %s: status %d", e.Endpoint, e.Kind, e.Status)
	}
	return fmt.Sprintf("steam %s: %s", e.Endpoint, e.Kind)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a steam error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// classifyStatus maps a non-success HTTP status to an Error.
func classifyStatus(endpoint string, status int) *Error {
	kind := KindServerError
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindDenied
	case status >= 500:
		kind = KindServerError
	default:
		// Unexpected 4xx: Steam answers 400 for malformed queries.
		kind = KindMalformed
	}
	return &Error{Kind: kind, Endpoint: endpoint, Status: status}
}

// classifyTransport maps a transport-level error to an Error.
func classifyTransport(endpoint string, err error) *Error {
	kind := KindServerError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	}
	return &Error{Kind: kind, Endpoint: endpoint, Err: err}
}
