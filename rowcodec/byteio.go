// Package rowcodec implements the binary row format: a self-describing,
// bounds-checked record with a fixed envelope, a null bitmap, fixed-width
// fields, and variable-width fields addressed through a small offset
// table. See Row and RowDef for the construction and parsing entry
// points.
package rowcodec

import (
	"encoding/binary"

	"github.com/groveql/qengine/ints"
)

// signature bytes, as laid out in the row envelope (offsets 4 and L-6).
var (
	leadSignature  = [2]byte{'A', 'B'}
	trailSignature = [2]byte{'B', 'A'}
)

const (
	// headerSize is the number of bytes occupied by L, the leading
	// signature, the field count, and the row-def id.
	headerSize = 4 + 2 + 2 + 4
	// trailerSize is the number of bytes occupied by the trailing
	// signature and the trailing length.
	trailerSize = 2 + 4

	minRowLen = 18
	maxRowLen = 8 << 20 // 8 MiB
)

// putUintWidth and getUintWidth write/read little-endian unsigned
// integers of width 1, 2, 3, 4, or 8 bytes at an arbitrary offset in buf. These are the fixed-width
// integer primitives every other encoding in this package is built on.

func putUintWidth(buf []byte, off, width int, v uint64) {
	switch width {
	case 1:
		buf[off] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(buf[off:], uint16(v))
	case 3:
		putUintWidth3(buf, off, v)
	case 4:
		binary.LittleEndian.PutUint32(buf[off:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(buf[off:], v)
	default:
		panic("rowcodec: unsupported integer width")
	}
}

// getUintWidth extracts an unsigned integer of the given byte width,
// little-endian, with no sign extension.
func getUintWidth(buf []byte, off, width int) uint64 {
	switch width {
	case 1:
		return uint64(buf[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf[off:]))
	case 3:
		return uint64(buf[off]) | uint64(buf[off+1])<<8 | uint64(buf[off+2])<<16
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf[off:]))
	case 8:
		return binary.LittleEndian.Uint64(buf[off:])
	default:
		panic("rowcodec: unsupported integer width")
	}
}

// putUintWidth3 writes the low 3 bytes of v at off, little-endian. It is
// split out from putUintWidth because var-offset slots are the only
// place a 3-byte width is used.
func putUintWidth3(buf []byte, off int, v uint64) {
	buf[off] = byte(v)
	buf[off+1] = byte(v >> 8)
	buf[off+2] = byte(v >> 16)
}

// getIntWidth sign-extends an integer of the given byte width read from
// buf at off. Used only for fields whose schema declares a signed type.
func getIntWidth(buf []byte, off, width int) int64 {
	u := getUintWidth(buf, off, width)
	shift := uint(64 - 8*width)
	return int64(u<<shift) >> shift
}

// varWidth returns the number of bytes (0, 1, 2, or 3) needed to
// represent x as an unsigned cumulative-length offset, per spec §6.1.
func varWidth(x int) int {
	switch {
	case x == 0:
		return 0
	case x <= 0xFF:
		return 1
	case x <= 0xFFFF:
		return 2
	default:
		return 3
	}
}

func bitmapSize(fieldCount int) int {
	return (fieldCount + 7) / 8
}

func bitSet(bitmap []byte, i int) bool {
	return ints.TestBit(bitmap, i)
}

func setBit(bitmap []byte, i int) {
	ints.SetBit(bitmap, i)
}
