package rowcodec

// RowDef is the static schema of a row: an ordered list of field
// definitions plus the precomputed layout information needed to locate
// any field inside an encoded row without rescanning the schema.
//
// A RowDef is immutable once built by NewRowDef and safe for concurrent
// use by many Rows.
type RowDef struct {
	Fields []FieldDef
	// ID identifies this RowDef on the wire (the rowDefId header
	// field). NewRowDef sets it to Fingerprint(fields); overwrite it
	// if the caller maintains its own schema registry.
	ID int32

	nullBitmapSize int
	fixedOffset    []int // per-field offset within the fixed-fields region; -1 for variable fields
	fixedWidth     []int // per-field width within the fixed-fields region; 0 for variable fields
	fixedRegion    int   // total size of the fixed-fields region

	varOrdinal    []int // per-field ordinal among variable fields, -1 for fixed fields
	varSlotWidth  []int // varWidth(cumulative max sizes through this field), per variable field, indexed by varOrdinal
	varCumulative []int // cumulative max size through this field, indexed by varOrdinal
	varCount      int
}

// NewRowDef builds a RowDef from an ordered field list, precomputing the
// fixed/variable layout described in spec §3 and §6.1. ID defaults to
// Fingerprint(fields); callers that need a specific on-wire id can
// overwrite RowDef.ID after construction.
func NewRowDef(fields []FieldDef) *RowDef {
	rd := &RowDef{
		Fields:         append([]FieldDef(nil), fields...),
		ID:             Fingerprint(fields),
		nullBitmapSize: bitmapSize(len(fields)),
		fixedOffset:    make([]int, len(fields)),
		fixedWidth:     make([]int, len(fields)),
		varOrdinal:     make([]int, len(fields)),
	}

	fixedOff := 0
	cumulative := 0
	var varCumulative []int
	for i, f := range fields {
		if f.Type.Fixed() {
			rd.fixedOffset[i] = fixedOff
			rd.fixedWidth[i] = f.Type.fixedWidth()
			fixedOff += rd.fixedWidth[i]
			rd.varOrdinal[i] = -1
		} else {
			rd.fixedOffset[i] = -1
			rd.fixedWidth[i] = 0
			cumulative += f.MaxSize
			rd.varOrdinal[i] = rd.varCount
			rd.varCount++
			varCumulative = append(varCumulative, cumulative)
		}
	}
	rd.fixedRegion = fixedOff
	rd.varCumulative = varCumulative
	rd.varSlotWidth = make([]int, len(varCumulative))
	for i, c := range varCumulative {
		rd.varSlotWidth[i] = varWidth(c)
	}
	return rd
}

// FieldCount is the number of fields F described by this schema.
func (rd *RowDef) FieldCount() int { return len(rd.Fields) }
