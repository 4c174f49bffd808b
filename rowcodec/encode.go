package rowcodec

import (
	"encoding/binary"
	"math"

	"github.com/groveql/qengine/date"
)

// encodeFixed writes v, which must match fd.Type's expected Go
// representation, into buf at off using fd.Type's fixed width. It
// reports an EncodingError if v does not fit.
func encodeFixed(buf []byte, off int, fd FieldDef, v interface{}) error {
	switch fd.Type {
	case Int8, Int16, Int32, Int64:
		i, ok := asInt64(v)
		if !ok {
			return &EncodingError{Field: fd.Name, Reason: "value is not an integer"}
		}
		w := fd.Type.fixedWidth()
		if !fitsSigned(i, w) {
			return &EncodingError{Field: fd.Name, Reason: "integer does not fit declared width"}
		}
		putUintWidth(buf, off, w, uint64(i)&widthMask(w))
	case Uint8, Uint16, Uint32, Uint64:
		u, ok := asUint64(v)
		if !ok {
			return &EncodingError{Field: fd.Name, Reason: "value is not an unsigned integer"}
		}
		w := fd.Type.fixedWidth()
		if !fitsUnsigned(u, w) {
			return &EncodingError{Field: fd.Name, Reason: "integer does not fit declared width"}
		}
		putUintWidth(buf, off, w, u)
	case Float32:
		f, ok := asFloat64(v)
		if !ok {
			return &EncodingError{Field: fd.Name, Reason: "value is not a float"}
		}
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(f)))
	case Float64:
		f, ok := asFloat64(v)
		if !ok {
			return &EncodingError{Field: fd.Name, Reason: "value is not a float"}
		}
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(f))
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return &EncodingError{Field: fd.Name, Reason: "value is not a bool"}
		}
		if b {
			buf[off] = 1
		} else {
			buf[off] = 0
		}
	case DateField:
		t, ok := v.(date.Time)
		if !ok {
			return &EncodingError{Field: fd.Name, Reason: "value is not a date.Time"}
		}
		putDate(buf, off, t)
	default:
		return &EncodingError{Field: fd.Name, Reason: "not a fixed-size type"}
	}
	return nil
}

// encodeVarPayload returns the wire bytes for a variable-size field's
// value, failing if they exceed the field's declared MaxSize.
func encodeVarPayload(fd FieldDef, v interface{}) ([]byte, error) {
	var raw []byte
	switch fd.Type {
	case Varchar:
		s, ok := v.(string)
		if !ok {
			return nil, &EncodingError{Field: fd.Name, Reason: "value is not a string"}
		}
		raw = []byte(s)
	case Varbinary:
		b, ok := v.([]byte)
		if !ok {
			return nil, &EncodingError{Field: fd.Name, Reason: "value is not a []byte"}
		}
		raw = b
	default:
		return nil, &EncodingError{Field: fd.Name, Reason: "not a variable-size type"}
	}
	if len(raw) > fd.MaxSize {
		return nil, &EncodingError{Field: fd.Name, Reason: "value exceeds field's maximum storage size"}
	}
	return raw, nil
}

func widthMask(w int) uint64 {
	if w >= 8 {
		return math.MaxUint64
	}
	return 1<<(8*uint(w)) - 1
}

func fitsSigned(v int64, width int) bool {
	if width >= 8 {
		return true
	}
	bits := uint(8 * width)
	min := -(int64(1) << (bits - 1))
	max := int64(1)<<(bits-1) - 1
	return v >= min && v <= max
}

func fitsUnsigned(v uint64, width int) bool {
	if width >= 8 {
		return true
	}
	bits := uint(8 * width)
	return v <= (uint64(1)<<bits)-1
}

func asInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	default:
		return 0, false
	}
}

func asUint64(v interface{}) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case int:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
