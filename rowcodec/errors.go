package rowcodec

import "fmt"

// CorruptRow is raised by Parse (and so by Row.Next and Build) whenever an envelope
// invariant from spec §3/§6.1 does not hold. Field names the specific
// invariant that failed so callers can report it without re-deriving
// the violation themselves.
type CorruptRow struct {
	Field  string
	Reason string
}

func (e *CorruptRow) Error() string {
	return fmt.Sprintf("rowcodec: corrupt row: %s: %s", e.Field, e.Reason)
}

// EncodingError is raised when a scalar value cannot be encoded into
// its field, including a variable-size value exceeding its field's
// declared MaxSize.
type EncodingError struct {
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("rowcodec: encoding error: %s", e.Reason)
	}
	return fmt.Sprintf("rowcodec: encoding error on field %q: %s", e.Field, e.Reason)
}

// BufferImmutableError is raised when growBuffer is requested on a row
// that is embedded inside a larger shared buffer (spec §4.1 Buffer
// growth).
type BufferImmutableError struct{}

func (e *BufferImmutableError) Error() string {
	return "rowcodec: cannot grow a buffer embedded in a shared region"
}
