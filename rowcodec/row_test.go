package rowcodec

import (
	"bytes"
	"testing"

	"github.com/groveql/qengine/ints"
)

func schemaAB() *RowDef {
	return NewRowDef([]FieldDef{
		{Name: "a", Type: Int32},
		{Name: "b", Type: Varchar, MaxSize: 16},
	})
}

// S1 — codec of two rows.
func TestTwoRowTraversal(t *testing.T) {
	def := schemaAB()
	buf := make([]byte, 0, 4096)

	buf, row1, err := Build(buf, 0, def, []interface{}{int32(1), "x"}, true, false)
	if err != nil {
		t.Fatalf("build row1: %v", err)
	}
	buf, row2, err := Build(buf, len(row1.Bytes()), def, []interface{}{int32(2), nil}, true, false)
	if err != nil {
		t.Fatalf("build row2: %v", err)
	}

	first, ok, err := Parse(def, buf, 0, false)
	if err != nil || !ok {
		t.Fatalf("parse row1: ok=%v err=%v", ok, err)
	}
	if first.IsNull(1) {
		t.Fatalf("row1 field 1 should not be null")
	}
	v, ok := first.GetInt(0)
	if !ok || v != 1 {
		t.Fatalf("row1 field 0 = %d, %v", v, ok)
	}
	s, ok, err := first.GetString(1)
	if err != nil || !ok || s != "x" {
		t.Fatalf("row1 field 1 = %q, %v, %v", s, ok, err)
	}

	second, ok, err := first.Next()
	if err != nil || !ok {
		t.Fatalf("next: ok=%v err=%v", ok, err)
	}
	if !second.IsNull(1) {
		t.Fatalf("row2 field 1 should be null")
	}
	v, ok = second.GetInt(0)
	if !ok || v != 2 {
		t.Fatalf("row2 field 0 = %d, %v", v, ok)
	}

	end, ok, err := second.Next()
	if err != nil {
		t.Fatalf("end: unexpected error %v", err)
	}
	if ok || end != nil {
		t.Fatalf("expected end of buffer, got ok=%v row=%v", ok, end)
	}

	if row2.Bytes() == nil || len(row2.Bytes()) == 0 {
		t.Fatalf("row2 bytes empty")
	}
}

// Property 1 — round-trip for a variety of schemas and value vectors.
func TestRoundTrip(t *testing.T) {
	def := NewRowDef([]FieldDef{
		{Name: "i", Type: Int64},
		{Name: "u", Type: Uint16},
		{Name: "f", Type: Float64},
		{Name: "b", Type: Bool},
		{Name: "s", Type: Varchar, MaxSize: 300},
		{Name: "bin", Type: Varbinary, MaxSize: 8},
	})

	cases := []struct {
		name   string
		values []interface{}
	}{
		{"all present", []interface{}{int64(-5), uint16(42), 3.5, true, "hello", []byte{1, 2, 3}}},
		{"trailing absent", []interface{}{int64(7), uint16(1)}},
		{"interior null", []interface{}{int64(7), nil, 1.5, nil, "y", nil}},
		{"empty string", []interface{}{int64(0), uint16(0), 0.0, false, "", []byte{}}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			row, err := NewRow(def, c.values)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			for i := range def.Fields {
				want := (interface{})(nil)
				if i < len(c.values) {
					want = c.values[i]
				}
				if want == nil {
					if !row.IsNull(i) {
						t.Errorf("field %d: expected null", i)
					}
					continue
				}
				if row.IsNull(i) {
					t.Errorf("field %d: unexpectedly null", i)
				}
			}
		})
	}
}

// Property 2 — envelope law: leading/trailing length and signatures agree.
func TestEnvelopeLaw(t *testing.T) {
	def := schemaAB()
	row, err := NewRow(def, []interface{}{int32(9), "zzz"})
	if err != nil {
		t.Fatal(err)
	}
	b := row.Bytes()
	l := len(b)
	leadL := int(b[0]) | int(b[1])<<8 | int(b[2])<<16 | int(b[3])<<24
	if leadL != l {
		t.Fatalf("leading length %d != actual %d", leadL, l)
	}
	if b[4] != 'A' || b[5] != 'B' {
		t.Fatalf("bad leading signature: %x %x", b[4], b[5])
	}
	if b[l-6] != 'B' || b[l-5] != 'A' {
		t.Fatalf("bad trailing signature: %x %x", b[l-6], b[l-5])
	}
	trailL := int(b[l-4]) | int(b[l-3])<<8 | int(b[l-2])<<16 | int(b[l-1])<<24
	if trailL != l {
		t.Fatalf("trailing length %d != actual %d", trailL, l)
	}
}

// Property 3 — null-map law: bit i set iff field i absent iff width is 0.
func TestNullMapLaw(t *testing.T) {
	def := schemaAB()
	row, err := NewRow(def, []interface{}{nil, "present"})
	if err != nil {
		t.Fatal(err)
	}
	if !row.IsNull(0) {
		t.Fatalf("field 0 should be null")
	}
	if _, w := row.FieldLocation(0); w != 0 {
		t.Fatalf("null field width = %d, want 0", w)
	}
	if row.IsNull(1) {
		t.Fatalf("field 1 should not be null")
	}
	if _, w := row.FieldLocation(1); w == 0 {
		t.Fatalf("present field width = 0")
	}
}

// Property 4 — copy fidelity.
func TestCopyFidelity(t *testing.T) {
	def := schemaAB()
	row, err := NewRow(def, []interface{}{int32(3), "abc"})
	if err != nil {
		t.Fatal(err)
	}
	row.DiffersFromPredecessorAtKeySegment = 2

	cp := row.Copy()
	if !bytes.Equal(cp.Bytes(), row.Bytes()) {
		t.Fatalf("copy bytes differ:\n got  % x\n want % x", cp.Bytes(), row.Bytes())
	}
	if cp.DiffersFromPredecessorAtKeySegment != row.DiffersFromPredecessorAtKeySegment {
		t.Fatalf("DiffersFromPredecessorAtKeySegment not preserved")
	}
}

// Property 5 — corruption detection: flipping envelope bytes raises CorruptRow.
func TestCorruptionDetection(t *testing.T) {
	def := schemaAB()
	row, err := NewRow(def, []interface{}{int32(3), "abc"})
	if err != nil {
		t.Fatal(err)
	}
	orig := append([]byte(nil), row.Bytes()...)

	flip := func(i int) []byte {
		b := append([]byte(nil), orig...)
		b[i] ^= 0xFF
		return b
	}

	positions := []int{4, 5, len(orig) - 6, len(orig) - 5, len(orig) - 1}
	for _, pos := range positions {
		buf := flip(pos)
		_, _, err := Parse(def, buf, 0, false)
		if _, ok := err.(*CorruptRow); !ok {
			t.Errorf("flipping byte %d: expected *CorruptRow, got %v", pos, err)
		}
	}
}

func TestBufferGrowthContract(t *testing.T) {
	def := schemaAB()

	t.Run("standalone grows", func(t *testing.T) {
		buf := make([]byte, 0)
		_, _, err := Build(buf, 0, def, []interface{}{int32(1), "x"}, true, false)
		if err != nil {
			t.Fatalf("expected growth to succeed, got %v", err)
		}
	})

	t.Run("no-grow overflow reports EncodingError", func(t *testing.T) {
		buf := make([]byte, 0, 4)
		_, _, err := Build(buf, 0, def, []interface{}{int32(1), "x"}, false, false)
		if _, ok := err.(*EncodingError); !ok {
			t.Fatalf("expected *EncodingError, got %v", err)
		}
	})

	t.Run("embedded overflow is immutable", func(t *testing.T) {
		buf := make([]byte, 4)
		_, _, err := Build(buf, 0, def, []interface{}{int32(1), "x"}, true, true)
		if _, ok := err.(*BufferImmutableError); !ok {
			t.Fatalf("expected *BufferImmutableError, got %v", err)
		}
	})
}

func TestFieldCountMismatchIsCorrupt(t *testing.T) {
	def := schemaAB()
	row, err := NewRow(def, []interface{}{int32(1), "x"})
	if err != nil {
		t.Fatal(err)
	}
	other := NewRowDef([]FieldDef{
		{Name: "a", Type: Int32},
		{Name: "b", Type: Varchar, MaxSize: 16},
		{Name: "c", Type: Bool},
	})
	_, _, err = Parse(other, row.Bytes(), 0, false)
	if _, ok := err.(*CorruptRow); !ok {
		t.Fatalf("expected *CorruptRow for field count mismatch, got %v", err)
	}
}

func TestVarWidth(t *testing.T) {
	cases := []struct {
		x    int
		want int
	}{
		{0, 0},
		{1, 1},
		{0xFF, 1},
		{0x100, 2},
		{0xFFFF, 2},
		{0x10000, 3},
	}
	for _, c := range cases {
		if got := varWidth(c.x); got != c.want {
			t.Errorf("varWidth(%d) = %d, want %d", c.x, got, c.want)
		}
	}
}

// A schema with enough variable-size fields to push the cumulative max
// size past 0xFFFF forces a 3-byte offset slot width; this exercises the
// putUintWidth/getUintWidth width-3 path end to end.
func TestThreeByteOffsetSlots(t *testing.T) {
	def := NewRowDef([]FieldDef{
		{Name: "big1", Type: Varchar, MaxSize: 40000},
		{Name: "big2", Type: Varchar, MaxSize: 40000},
	})
	row, err := NewRow(def, []interface{}{"first", "second"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s1, ok, err := row.GetString(0)
	if err != nil || !ok || s1 != "first" {
		t.Fatalf("field 0 = %q, %v, %v", s1, ok, err)
	}
	s2, ok, err := row.GetString(1)
	if err != nil || !ok || s2 != "second" {
		t.Fatalf("field 1 = %q, %v, %v", s2, ok, err)
	}
}

// Binary payloads round-trip byte for byte regardless of content, so the
// fixture uses cryptographically random bytes instead of a fixed pattern
// to avoid accidentally only ever exercising a single byte value.
func TestRandomVarbinaryRoundTrip(t *testing.T) {
	def := NewRowDef([]FieldDef{
		{Name: "bin", Type: Varbinary, MaxSize: 64},
	})
	for trial := 0; trial < 8; trial++ {
		payload := make([]byte, 1+trial*7)
		if err := ints.RandomFillSlice(payload); err != nil {
			t.Fatalf("RandomFillSlice: %v", err)
		}
		row, err := NewRow(def, []interface{}{payload})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		got, ok := row.GetBytes(0)
		if !ok {
			t.Fatalf("GetBytes: field reported absent")
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("trial %d: got %x, want %x", trial, got, payload)
		}
	}
}
