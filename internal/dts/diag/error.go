package diag

import "errors"

// Sentinels for the I/O class of failure from spec.md §7. Pipeline code
// never returns these as a plain error to a query caller; they're either
// rendered into a Diagnostic (missing include, missing binding) or surfaced
// as a transport-level fault (everything else), per §7's propagation rule.
var (
	ErrMissingInclude = errors.New("include target could not be resolved against the configured include paths")
	ErrMissingBinding = errors.New("no binding file matches the requested compatible/schema id")
	ErrReadFailure    = errors.New("reading the file failed")
)

// Error is a typed error carrying one or more causes, compatible with
// errors.Is, grounded on server/serr.Error: calling errors.Is(err, E) where E
// is any of this Error's causes returns true without a type assertion.
type Error struct {
	msg   string
	cause []error
}

// NewError creates an Error with the given message and causes.
func NewError(msg string, causes ...error) Error {
	e := Error{msg: msg}
	if len(causes) > 0 {
		e.cause = append([]error{}, causes...)
	}
	return e
}

func (e Error) Error() string {
	if e.msg == "" && len(e.cause) > 0 {
		return e.cause[0].Error()
	}
	if len(e.cause) > 0 {
		return e.msg + ": " + e.cause[0].Error()
	}
	return e.msg
}

func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

func (e Error) Is(target error) bool {
	if errTarget, ok := target.(Error); ok {
		return e.msg == errTarget.msg
	}
	for _, c := range e.cause {
		if c == target {
			return true
		}
		if errors.Is(c, target) {
			return true
		}
	}
	return false
}
