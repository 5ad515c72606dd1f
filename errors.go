package magidict

import "fmt"

// Error codes. Callers compare the Code field of a *DictError against
// these constants; the message text is informational only.
const (
	// ErrMissingKey: exact lookup or a dot-path map segment named a key
	// that is not present, or a segment was applied to a value that
	// cannot be traversed.
	ErrMissingKey = "ERR_MISSING_KEY"

	// ErrInvalidIndex: a dot-path segment addressed a sequence but did
	// not parse as an integer.
	ErrInvalidIndex = "ERR_INVALID_INDEX"

	// ErrOutOfRange: a dot-path segment addressed a sequence position
	// outside its bounds.
	ErrOutOfRange = "ERR_OUT_OF_RANGE"

	// ErrProtected: a mutating operation was attempted on a placeholder
	// produced by a missing-key or nil-valued attribute resolution.
	ErrProtected = "ERR_PROTECTED"

	// ErrType: a value of the wrong shape was supplied (non-map input to
	// Enchant, malformed pair in FromPairs, non-object JSON root, ...).
	ErrType = "ERR_TYPE"
)

// DictError is the error type for all failures surfaced by this package.
// Tests and callers compare the Code field against the ERR_* constants.
type DictError struct {
	Code string
	Msg  string
}

func (e *DictError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return e.Code
}

func newErr(code, msg string) *DictError {
	return &DictError{Code: code, Msg: msg}
}

// CodeOf extracts the error code from err, or "" if err is not a
// *DictError.
func CodeOf(err error) string {
	if de, ok := err.(*DictError); ok {
		return de.Code
	}
	return ""
}
