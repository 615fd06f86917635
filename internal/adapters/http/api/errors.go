package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrForbidden     = errors.New("forbidden")
	ErrUnavailable   = errors.New("model unavailable")
	ErrInternal      = errors.New("internal error")
	ErrNoInternalKey = errors.New("internal api key not configured")
)

// KindError ties an underlying error to the operation that failed and a
// sentinel kind, so errors.Is matches both the kind and the cause.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes the kind and the cause.
func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// NewKind reports kind at op without a further cause.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}
