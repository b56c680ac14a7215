package models

import "github.com/go-faster/errors"

// FailureKind classifies why a retailer operation produced no usable result.
type FailureKind int

const (
	KindUnknown FailureKind = iota
	KindNotFound
	KindUpstreamShape
	KindTransport
)

func (k FailureKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUpstreamShape:
		return "upstream_shape_mismatch"
	case KindTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUpstreamShape   = errors.New("unexpected upstream response shape")
	ErrTransport       = errors.New("upstream request failed")
)

func (k FailureKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrProductNotFound
	case KindUpstreamShape:
		return ErrUpstreamShape
	case KindTransport:
		return ErrTransport
	default:
		return nil
	}
}

// RetailerError is returned by every retailer operation that fails. It
// matches the sentinel of its Kind with errors.Is and unwraps to the cause.
type RetailerError struct {
	Kind  FailureKind
	Store string
	Op    string
	Err   error
}

func (e *RetailerError) Error() string {
	if e.Err == nil {
		return e.Store + " " + e.Op + ": " + e.Kind.String()
	}
	return e.Store + " " + e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *RetailerError) Unwrap() error { return e.Err }

func (e *RetailerError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Fail builds a RetailerError. A nil cause is replaced by the kind's sentinel.
func Fail(kind FailureKind, store, op string, cause error) error {
	if cause == nil {
		cause = kind.sentinel()
	}
	return &RetailerError{Kind: kind, Store: store, Op: op, Err: cause}
}

// KindOf reports the failure kind carried by err, or KindUnknown.
func KindOf(err error) FailureKind {
	var re *RetailerError
	if errors.As(err, &re) {
		return re.Kind
	}
	switch {
	case errors.Is(err, ErrProductNotFound):
		return KindNotFound
	case errors.Is(err, ErrUpstreamShape):
		return KindUpstreamShape
	case errors.Is(err, ErrTransport):
		return KindTransport
	}
	return KindUnknown
}
