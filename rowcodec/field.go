package rowcodec

// FieldType is the declared scalar type of a field in a RowDef.
type FieldType uint8

const (
	Int8 FieldType = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
	Varchar
	Varbinary
	DateField
)

// Fixed reports whether values of t occupy a statically known number of
// bytes in the row body (C2/C3 fixed-vs-variable classification).
func (t FieldType) Fixed() bool {
	switch t {
	case Varchar, Varbinary:
		return false
	default:
		return true
	}
}

func (t FieldType) signed() bool {
	switch t {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

// fixedWidth returns the on-disk width of a fixed-size field type. It
// panics for variable-size types; callers must check Fixed() first.
func (t FieldType) fixedWidth() int {
	switch t {
	case Int8, Uint8, Bool:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	case DateField:
		return dateFieldWidth
	default:
		panic("rowcodec: fixedWidth called on variable-size type")
	}
}

func (t FieldType) String() string {
	switch t {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case Varchar:
		return "varchar"
	case Varbinary:
		return "varbinary"
	case DateField:
		return "date"
	default:
		return "unknown"
	}
}

// FieldDef is the static description of one field in a RowDef.
type FieldDef struct {
	Name string
	Type FieldType
	// MaxSize is the maximum storage size in bytes for a variable-size
	// field; it is meaningless (and ignored) for fixed-size fields.
	MaxSize int
	// Charset decodes/validates string payloads for Varchar fields.
	// Nil means CharsetUTF8.
	Charset Charset
}

func (f *FieldDef) charset() Charset {
	if f.Charset != nil {
		return f.Charset
	}
	return CharsetUTF8
}
