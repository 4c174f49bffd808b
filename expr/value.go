package expr

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dchest/siphash"
	"github.com/groveql/qengine/date"
)

// Kind discriminates the scalar variant held by a Value (spec §9 "Dynamic
// value getters"): integer, decimal, double, string, binary, date, time,
// interval, bool, cursor, or null.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindDecimal
	KindDouble
	KindString
	KindBinary
	KindDate
	KindTime
	KindInterval
	KindBool
	KindCursor
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindInterval:
		return "interval"
	case KindBool:
		return "bool"
	case KindCursor:
		return "cursor"
	default:
		return "unknown"
	}
}

// Value is a single opaque scalar carried through expression evaluation
// and row projection: a tagged union over Kind, so operators can pass
// values around without knowing the concrete Go representation of every
// scalar kind a schema can declare.
type Value struct {
	kind Kind

	i      int64    // KindInt, KindInterval (microseconds), KindDecimal unscaled
	scale  int32    // KindDecimal: number of fractional digits
	f      float64  // KindDouble
	b      bool     // KindBool
	s      string   // KindString
	bin    []byte   // KindBinary
	t      date.Time // KindDate, KindTime
	cursor Cursor   // KindCursor
}

// Cursor is the capability a KindCursor value exposes: a nested,
// row-producing stream embedded as a scalar (spec §9).
type Cursor interface {
	Next() (Value, bool, error)
}

func Null() Value                { return Value{kind: KindNull} }
func Int(i int64) Value          { return Value{kind: KindInt, i: i} }
func Decimal(unscaled int64, scale int32) Value {
	return Value{kind: KindDecimal, i: unscaled, scale: scale}
}
func Double(f float64) Value       { return Value{kind: KindDouble, f: f} }
func Bool(b bool) Value            { return Value{kind: KindBool, b: b} }
func String(s string) Value        { return Value{kind: KindString, s: s} }
func Binary(b []byte) Value        { return Value{kind: KindBinary, bin: b} }
func Date(t date.Time) Value       { return Value{kind: KindDate, t: t} }
func TimeOfDay(t date.Time) Value  { return Value{kind: KindTime, t: t} }
func Interval(micros int64) Value  { return Value{kind: KindInterval, i: micros} }
func FromCursor(c Cursor) Value    { return Value{kind: KindCursor, cursor: c} }

// StringFromEscaped builds a KindString Value from a raw source token
// that may still carry \t/\n/\uXXXX escape sequences, as a query parser
// would hand to a string Literal before evaluation.
func StringFromEscaped(raw []byte) (Value, error) {
	s, err := Unescape(raw)
	if err != nil {
		return Value{}, err
	}
	return String(s), nil
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) Decimal() (unscaled int64, scale int32, ok bool) {
	if v.kind != KindDecimal {
		return 0, 0, false
	}
	return v.i, v.scale, true
}

func (v Value) Double() (float64, bool) {
	if v.kind != KindDouble {
		return 0, false
	}
	return v.f, true
}

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) Binary() ([]byte, bool) {
	if v.kind != KindBinary {
		return nil, false
	}
	return v.bin, true
}

func (v Value) Date() (date.Time, bool) {
	if v.kind != KindDate {
		return date.Time{}, false
	}
	return v.t, true
}

func (v Value) Time() (date.Time, bool) {
	if v.kind != KindTime {
		return date.Time{}, false
	}
	return v.t, true
}

func (v Value) Interval() (int64, bool) {
	if v.kind != KindInterval {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsCursor() (Cursor, bool) {
	if v.kind != KindCursor {
		return nil, false
	}
	return v.cursor, true
}

// Hash is a capability of string-like variants only (string and binary);
// every other kind hashes to 0, per spec §9. seed0/seed1 key the
// underlying siphash so callers (e.g. a hash-join or partitioner) can
// vary the hash family without changing this package.
func (v Value) Hash(seed0, seed1 uint64) uint64 {
	switch v.kind {
	case KindString:
		return siphash.Hash(seed0, seed1, []byte(v.s))
	case KindBinary:
		return siphash.Hash(seed0, seed1, v.bin)
	default:
		return 0
	}
}

func (v Value) GoString() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindDecimal:
		return fmt.Sprintf("%d/10^%d", v.i, v.scale)
	case KindDouble:
		return fmt.Sprintf("%g", v.f)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindString:
		return Quote(v.s)
	case KindBinary:
		return fmt.Sprintf("%x", v.bin)
	case KindDate, KindTime:
		return v.t.String()
	case KindInterval:
		return fmt.Sprintf("%dus", v.i)
	case KindCursor:
		return "<cursor>"
	default:
		return "<invalid>"
	}
}

// encodeTag/decodeTag give Value a minimal, self-describing wire form
// for the cases an operator needs to move a scalar across an Adapter
// boundary without dragging in the full row codec. Cursor values cannot
// be encoded.
func (v Value) encodeTag() byte { return byte(v.kind) }

func appendValue(buf []byte, v Value) ([]byte, error) {
	buf = append(buf, v.encodeTag())
	switch v.kind {
	case KindNull:
	case KindInt, KindInterval:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(v.i))
		buf = append(buf, tmp[:]...)
	case KindDecimal:
		var tmp [12]byte
		binary.LittleEndian.PutUint64(tmp[:8], uint64(v.i))
		binary.LittleEndian.PutUint32(tmp[8:], uint32(v.scale))
		buf = append(buf, tmp[:]...)
	case KindDouble:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v.f))
		buf = append(buf, tmp[:]...)
	case KindBool:
		if v.b {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindString:
		buf = appendLenPrefixed(buf, []byte(v.s))
	case KindBinary:
		buf = appendLenPrefixed(buf, v.bin)
	case KindDate, KindTime:
		var tmp [12]byte
		binary.LittleEndian.PutUint64(tmp[:8], uint64(v.t.Unix()))
		binary.LittleEndian.PutUint32(tmp[8:], uint32(v.t.Nanosecond()))
		buf = append(buf, tmp[:]...)
	default:
		return nil, fmt.Errorf("expr: value kind %s cannot be encoded", v.kind)
	}
	return buf, nil
}

func appendLenPrefixed(buf, data []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(data)))
	buf = append(buf, tmp[:]...)
	return append(buf, data...)
}
