package rowcodec

import (
	"encoding/binary"
	"math"

	"github.com/groveql/qengine/date"
	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/ints"
)

// Row is a single self-delimiting record inside a (possibly shared)
// byte buffer, per spec §3/§6.1. A Row instance is mutable only while
// it is being constructed by Build; once returned from Build or Parse
// it should be treated as read-only by downstream consumers until the
// producing cursor's next pull, per the Row lifecycle note in spec §3.
type Row struct {
	Def *RowDef

	// RowType and HKey are set by operators, not by the codec itself;
	// the codec only guarantees they survive Copy.
	RowType hkey.RowType
	HKey    *hkey.HKey

	// DiffersFromPredecessorAtKeySegment is a transient annotation (not
	// part of the on-disk image) that hkey-ordered operators use to
	// cheaply tell how this row's hkey relates to the previous row's.
	// -1 means "not computed".
	DiffersFromPredecessorAtKeySegment int

	buf      []byte
	start    int
	end      int
	embedded bool

	// varLoc caches the byte range [offset, offset+width) of every
	// variable-size field as an ints.Interval, computed once on first
	// access since the variable-offset table only contains a slot per
	// non-null variable field (spec §6.1) and so cannot be addressed in
	// O(1) from the schema alone.
	varLoc []ints.Interval
}

// Bytes returns the exact on-disk bytes of this row, from its leading
// length to its trailing length inclusive.
func (r *Row) Bytes() []byte { return r.buf[r.start:r.end] }

// FieldCount returns F, the schema's field count.
func (r *Row) FieldCount() int { return r.Def.FieldCount() }

func (r *Row) nullBitmap() []byte {
	off := r.start + headerSize
	return r.buf[off : off+r.Def.nullBitmapSize]
}

// IsNull reports whether field i is null.
func (r *Row) IsNull(i int) bool {
	return bitSet(r.nullBitmap(), i)
}

// FieldLocation returns the (offset, width) of field i within the
// row's backing buffer; both are zero iff the field is null, per spec
// §4.1.
func (r *Row) FieldLocation(i int) (offset, width int) {
	if r.IsNull(i) {
		return 0, 0
	}
	fixedBase := r.start + headerSize + r.Def.nullBitmapSize
	if r.Def.fixedOffset[i] >= 0 {
		return fixedBase + r.Def.fixedOffset[i], r.Def.fixedWidth[i]
	}
	r.computeVarLocs()
	loc := r.varLoc[i]
	return loc.Start, loc.Len()
}

// computeVarLocs walks the variable-offset table once, in schema order,
// skipping the fields the null bitmap marks absent (they own no slot),
// and records every present field's (offset, width) into r.varLoc.
func (r *Row) computeVarLocs() {
	if r.varLoc != nil {
		return
	}
	def := r.Def
	locs := make([]ints.Interval, len(def.Fields))
	nb := r.nullBitmap()

	tableBase := r.start + headerSize + def.nullBitmapSize + def.fixedRegion
	tableWidth := 0
	for i := range def.Fields {
		if def.varOrdinal[i] >= 0 && !bitSet(nb, i) {
			tableWidth += def.varSlotWidth[def.varOrdinal[i]]
		}
	}
	payloadBase := tableBase + tableWidth

	tableOff := 0
	prevCum := 0
	for i := range def.Fields {
		if def.varOrdinal[i] < 0 || bitSet(nb, i) {
			continue
		}
		ord := def.varOrdinal[i]
		w := def.varSlotWidth[ord]
		cum := int(getUintWidth(r.buf, tableBase+tableOff, w))
		locs[i] = ints.Interval{Start: payloadBase + prevCum, End: payloadBase + cum}
		tableOff += w
		prevCum = cum
	}
	r.varLoc = locs
}

// GetInt reads field i as a signed integer, sign-extending per its
// declared width. ok is false iff the field is null.
func (r *Row) GetInt(i int) (v int64, ok bool) {
	off, w := r.FieldLocation(i)
	if w == 0 {
		return 0, false
	}
	if r.Def.Fields[i].Type.signed() {
		return getIntWidth(r.buf, off, w), true
	}
	return int64(getUintWidth(r.buf, off, w)), true
}

// GetUint reads field i as an unsigned integer.
func (r *Row) GetUint(i int) (v uint64, ok bool) {
	off, w := r.FieldLocation(i)
	if w == 0 {
		return 0, false
	}
	return getUintWidth(r.buf, off, w), true
}

// GetFloat64 reads a Float64 or Float32 field, widening as needed.
func (r *Row) GetFloat64(i int) (v float64, ok bool) {
	off, w := r.FieldLocation(i)
	if w == 0 {
		return 0, false
	}
	switch r.Def.Fields[i].Type {
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(r.buf[off:]))), true
	default:
		return math.Float64frombits(binary.LittleEndian.Uint64(r.buf[off:])), true
	}
}

// GetBool reads a Bool field.
func (r *Row) GetBool(i int) (v bool, ok bool) {
	off, w := r.FieldLocation(i)
	if w == 0 {
		return false, false
	}
	return r.buf[off] != 0, true
}

// GetString reads a Varchar field, decoding it under the field's
// declared character set.
func (r *Row) GetString(i int) (string, bool, error) {
	off, w := r.FieldLocation(i)
	if w == 0 {
		return "", false, nil
	}
	s, err := r.Def.Fields[i].charset().Decode(r.buf[off : off+w])
	return s, true, err
}

// GetBytes reads a Varbinary field.
func (r *Row) GetBytes(i int) ([]byte, bool) {
	off, w := r.FieldLocation(i)
	if w == 0 {
		return nil, false
	}
	return r.buf[off : off+w], true
}

// GetDate reads a DateField.
func (r *Row) GetDate(i int) (date.Time, bool) {
	off, w := r.FieldLocation(i)
	if w == 0 {
		return date.Time{}, false
	}
	return getDate(r.buf, off), true
}

// Parse validates the row envelope at offset within buf against def and
// returns the parsed Row. ok is false iff offset == len(buf) (end of
// buffer, not an error). embedded marks buf as a shared region that
// Build must not attempt to grow.
func Parse(def *RowDef, buf []byte, offset int, embedded bool) (row *Row, ok bool, err error) {
	if offset == len(buf) {
		return nil, false, nil
	}
	if offset+4 > len(buf) {
		return nil, false, &CorruptRow{Field: "length", Reason: "buffer too short to hold leading length"}
	}
	l := int(int32(binary.LittleEndian.Uint32(buf[offset:])))
	if l < minRowLen {
		return nil, false, &CorruptRow{Field: "length", Reason: "row length below minimum"}
	}
	if l > maxRowLen {
		return nil, false, &CorruptRow{Field: "length", Reason: "row length exceeds 8 MiB maximum"}
	}
	end := offset + l
	if end > len(buf) {
		return nil, false, &CorruptRow{Field: "length", Reason: "row length extends past buffer end"}
	}
	if buf[offset+4] != leadSignature[0] || buf[offset+5] != leadSignature[1] {
		return nil, false, &CorruptRow{Field: "leading signature", Reason: "expected 'AB'"}
	}
	if buf[end-6] != trailSignature[0] || buf[end-5] != trailSignature[1] {
		return nil, false, &CorruptRow{Field: "trailing signature", Reason: "expected 'BA'"}
	}
	trailL := int(int32(binary.LittleEndian.Uint32(buf[end-4:])))
	if trailL != l {
		return nil, false, &CorruptRow{Field: "trailing length", Reason: "does not match leading length"}
	}
	f := int(binary.LittleEndian.Uint16(buf[offset+6:]))
	if f != def.FieldCount() {
		return nil, false, &CorruptRow{Field: "field count", Reason: "does not match backing schema"}
	}

	r := &Row{
		Def:      def,
		buf:      buf,
		start:    offset,
		end:      end,
		embedded: embedded,
		DiffersFromPredecessorAtKeySegment: -1,
	}

	// re-verify that fixed/variable body geometry is internally
	// consistent: every non-null variable field's cumulative offset
	// must be non-decreasing and the last one must land exactly on the
	// trailer.
	r.computeVarLocs()
	lastEnd := 0
	for i := range def.Fields {
		if def.varOrdinal[i] < 0 || bitSet(r.nullBitmap(), i) {
			continue
		}
		loc := r.varLoc[i]
		if loc.End < loc.Start {
			return nil, false, &CorruptRow{Field: def.Fields[i].Name, Reason: "variable offset table is not monotonic"}
		}
		lastEnd = loc.End
	}
	if lastEnd == 0 {
		// no variable fields present; payload region must be empty.
		fixedBase := r.start + headerSize + def.nullBitmapSize
		lastEnd = fixedBase + def.fixedRegion
	}
	if lastEnd != end-trailerSize {
		return nil, false, &CorruptRow{Field: "var payloads", Reason: "payload region size does not match offset table"}
	}
	return r, true, nil
}

// Next parses the row immediately following r in the same buffer.
func (r *Row) Next() (*Row, bool, error) {
	return Parse(r.Def, r.buf, r.end, r.embedded)
}

// Copy deep-copies r into a new, standalone (non-embedded) buffer sized
// exactly to the row's extent, preserving DiffersFromPredecessorAtKeySegment
// and a deep copy of HKey, per spec §4.1 copy semantics.
func (r *Row) Copy() *Row {
	buf := append([]byte(nil), r.buf[r.start:r.end]...)
	cp := &Row{
		Def:      r.Def,
		RowType:  r.RowType,
		buf:      buf,
		start:    0,
		end:      len(buf),
		embedded: false,
		DiffersFromPredecessorAtKeySegment: r.DiffersFromPredecessorAtKeySegment,
	}
	if r.HKey != nil {
		k := r.HKey.Clone()
		cp.HKey = &k
	}
	return cp
}
