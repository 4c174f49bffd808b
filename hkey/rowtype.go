package hkey

// RowType is an opaque typed identity distinguishing table rows, index
// rows, and flattened rows produced by joins. Operators compare
// RowTypes with Equal, never by asserting a concrete Go type, so that
// flattened/table/index identities stay interchangeable wherever an
// operator treats them uniformly.
type RowType interface {
	Equal(RowType) bool
	String() string
}

// TableType identifies the rows of a single stored table.
type TableType struct {
	Name string
}

func (t TableType) Equal(o RowType) bool {
	ot, ok := o.(TableType)
	return ok && ot.Name == t.Name
}

func (t TableType) String() string { return "table:" + t.Name }

// IndexType identifies the index rows produced by scanning a secondary
// index.
type IndexType struct {
	Name string
}

func (t IndexType) Equal(o RowType) bool {
	ot, ok := o.(IndexType)
	return ok && ot.Name == t.Name
}

func (t IndexType) String() string { return "index:" + t.Name }

// JoinVariant enumerates the ways flatten_HKeyOrdered can combine a
// parent/child pair (spec §4.2 flatten_HKeyOrdered).
type JoinVariant uint8

const (
	Inner JoinVariant = iota
	Left
	Right
	Full
)

func (v JoinVariant) String() string {
	switch v {
	case Inner:
		return "INNER"
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	case Full:
		return "FULL"
	default:
		return "?"
	}
}

// FlattenedType identifies the rows produced by flattening a parent and
// child type together under a given join variant. Two FlattenedTypes
// are equal iff their parent type, child type, and join variant are all
// equal (spec §3).
type FlattenedType struct {
	Parent RowType
	Child  RowType
	Join   JoinVariant
}

func (t FlattenedType) Equal(o RowType) bool {
	ot, ok := o.(FlattenedType)
	if !ok {
		return false
	}
	return t.Join == ot.Join && t.Parent.Equal(ot.Parent) && t.Child.Equal(ot.Child)
}

func (t FlattenedType) String() string {
	return t.Parent.String() + " " + t.Join.String() + " " + t.Child.String()
}
