package rowcodec

import (
	"encoding/binary"

	"github.com/groveql/qengine/ints"
)

// Build appends one row to buf at offset, encoding values against def.
// values may be shorter than def.FieldCount(); missing or nil entries
// are encoded as null, per spec §4.1 createRow.
//
// When growBuffer is true and the resulting row does not fit in buf,
// Build reallocates a larger standalone buffer (starting from the
// larger of cap(buf) and 500 bytes, doubling until the row fits, then
// rounding up to a multiple of 64 bytes) and retries, unless embedded
// is true, in which case growth is refused with BufferImmutableError
// (the row lives inside a buffer some other owner controls the size
// of). When growBuffer is false, an overflow is reported directly as
// an EncodingError.
//
// Build returns the (possibly reallocated) buffer and the parsed Row
// describing the newly appended record.
func Build(buf []byte, offset int, def *RowDef, values []interface{}, growBuffer, embedded bool) ([]byte, *Row, error) {
	if len(values) > def.FieldCount() {
		return nil, nil, &EncodingError{Reason: "more values than fields in schema"}
	}

	nullBitmap := make([]byte, def.nullBitmapSize)
	present := make([]bool, def.FieldCount())
	for i := range def.Fields {
		if i >= len(values) || values[i] == nil {
			setBit(nullBitmap, i)
		} else {
			present[i] = true
		}
	}

	// Encode variable payloads up front: this both validates them and
	// lets us compute the exact row length before writing any bytes.
	varPayload := make([][]byte, def.FieldCount())
	tableWidth := 0
	payloadTotal := 0
	for i, fd := range def.Fields {
		if def.varOrdinal[i] < 0 || !present[i] {
			continue
		}
		raw, err := encodeVarPayload(fd, values[i])
		if err != nil {
			return nil, nil, err
		}
		varPayload[i] = raw
		tableWidth += def.varSlotWidth[def.varOrdinal[i]]
		payloadTotal += len(raw)
	}

	bodyStart := headerSize + def.nullBitmapSize
	l := bodyStart + def.fixedRegion + tableWidth + payloadTotal + trailerSize
	if l > maxRowLen {
		return nil, nil, &EncodingError{Reason: "encoded row exceeds the 8 MiB maximum row length"}
	}

	neededEnd := offset + l
	limit := len(buf)
	if !embedded {
		limit = cap(buf)
	}
	if neededEnd > limit {
		if !growBuffer {
			return nil, nil, &EncodingError{Reason: "buffer would overflow and growBuffer was not requested"}
		}
		if embedded {
			return nil, nil, &BufferImmutableError{}
		}
		newCap := ints.Max(cap(buf), 500)
		for newCap < neededEnd {
			newCap *= 2
		}
		// round the allocation up to a 64-byte multiple so repeated
		// Build calls against the same growing buffer converge on a
		// small set of capacities instead of one per row length.
		newCap = int(ints.AlignUp(uint(newCap), 64))
		grown := make([]byte, newCap)
		copy(grown, buf[:offset])
		buf = grown[:neededEnd]
	} else if neededEnd > len(buf) {
		buf = buf[:neededEnd]
	}

	// header
	binary.LittleEndian.PutUint32(buf[offset:], uint32(int32(l)))
	buf[offset+4] = leadSignature[0]
	buf[offset+5] = leadSignature[1]
	binary.LittleEndian.PutUint16(buf[offset+6:], uint16(def.FieldCount()))
	binary.LittleEndian.PutUint32(buf[offset+8:], uint32(def.ID))
	copy(buf[offset+headerSize:offset+bodyStart], nullBitmap)

	fixedBase := offset + bodyStart
	for i, fd := range def.Fields {
		if !present[i] || def.fixedOffset[i] < 0 {
			continue
		}
		if err := encodeFixed(buf, fixedBase+def.fixedOffset[i], fd, values[i]); err != nil {
			return nil, nil, err
		}
	}

	tableBase := fixedBase + def.fixedRegion
	payloadBase := tableBase + tableWidth
	tableOff := 0
	payloadOff := 0
	for i := range def.Fields {
		if def.varOrdinal[i] < 0 || !present[i] {
			continue
		}
		ord := def.varOrdinal[i]
		w := def.varSlotWidth[ord]
		payloadOff += len(varPayload[i])
		putUintWidth(buf, tableBase+tableOff, w, uint64(payloadOff))
		copy(buf[payloadBase+payloadOff-len(varPayload[i]):], varPayload[i])
		tableOff += w
	}

	end := offset + l
	buf[end-6] = trailSignature[0]
	buf[end-5] = trailSignature[1]
	binary.LittleEndian.PutUint32(buf[end-4:], uint32(int32(l)))

	row, ok, err := Parse(def, buf, offset, embedded)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, &CorruptRow{Field: "length", Reason: "constructed row could not be re-parsed"}
	}
	return buf, row, nil
}

// NewRow builds a standalone row in a freshly allocated, growable
// buffer: the common case of constructing a single row with no
// surrounding shared state.
func NewRow(def *RowDef, values []interface{}) (*Row, error) {
	_, row, err := Build(nil, 0, def, values, true, false)
	return row, err
}
