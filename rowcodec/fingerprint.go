package rowcodec

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint derives a stable 32-bit identifier for a RowDef from its
// field names, types, and declared sizes, for callers that want a
// RowDefID without maintaining an external schema registry. Two RowDefs
// built from equal field lists always fingerprint the same.
func Fingerprint(fields []FieldDef) int32 {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // only fails for an invalid key, and we pass none
	}
	var scratch [8]byte
	for _, f := range fields {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write([]byte{byte(f.Type)})
		binary.LittleEndian.PutUint64(scratch[:], uint64(f.MaxSize))
		h.Write(scratch[:])
	}
	sum := h.Sum(nil)
	return int32(binary.LittleEndian.Uint32(sum[:4]))
}
