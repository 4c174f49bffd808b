package rowcodec

import "github.com/groveql/qengine/date"

// dateFieldWidth is the on-disk size of a DateField: an 8-byte signed
// unix-seconds component followed by a 4-byte nanosecond-of-second
// component. date/time string formatting is explicitly out of scope
// (spec §1); only this fixed binary representation is handled here.
const dateFieldWidth = 8 + 4

func putDate(buf []byte, off int, t date.Time) {
	putUintWidth(buf, off, 8, uint64(t.Unix()))
	putUintWidth(buf, off+8, 4, uint64(uint32(t.Nanosecond())))
}

func getDate(buf []byte, off int) date.Time {
	sec := int64(getUintWidth(buf, off, 8))
	ns := int64(getUintWidth(buf, off+8, 4))
	return date.Unix(sec, ns)
}
