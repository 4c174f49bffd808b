package plan

import (
	"context"
	"fmt"

	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/rowcodec"
)

// FlattenFlag bits control how Flatten augments its streaming join
// output (spec §4.2 flatten_HKeyOrdered flags).
type FlattenFlag uint8

const (
	KeepParentFlag FlattenFlag = 1 << iota
	KeepChildFlag
	LeftJoinShortensHKey
)

func (f FlattenFlag) has(bit FlattenFlag) bool { return f&bit != 0 }

// Flatten is flatten_HKeyOrdered: a streaming join over an hkey-ordered
// parent/child sequence. It requires its input hkey-ordered and
// preserves that property.
type Flatten struct {
	Nonterminal
	ParentType hkey.RowType
	ChildType  hkey.RowType
	Join       hkey.JoinVariant
	Flags      FlattenFlag

	// ParentDef/ChildDef are the schemas of rows flowing in tagged
	// ParentType/ChildType; needed up front because a parent-alone
	// (LEFT, no children) or orphan-child (RIGHT/FULL, no parent) row
	// must be synthesizable even when the other side was never seen.
	ParentDef *rowcodec.RowDef
	ChildDef  *rowcodec.RowDef

	outDef *rowcodec.RowDef
}

func (f *Flatten) String() string {
	return fmt.Sprintf("flatten_HKeyOrdered(%s, %s, %s)", f.ParentType, f.ChildType, f.Join)
}

func (f *Flatten) outputDef() *rowcodec.RowDef {
	if f.outDef == nil {
		f.outDef = concatRowDef(f.ParentDef, f.ChildDef)
	}
	return f.outDef
}

// concatRowDef builds a combined schema whose fields are a's fields
// (prefixed "p.") followed by b's (prefixed "c."), for the synthetic
// rows flatten_HKeyOrdered emits.
func concatRowDef(a, b *rowcodec.RowDef) *rowcodec.RowDef {
	fields := make([]rowcodec.FieldDef, 0, len(a.Fields)+len(b.Fields))
	for _, fd := range a.Fields {
		fd.Name = "p." + fd.Name
		fields = append(fields, fd)
	}
	for _, fd := range b.Fields {
		fd.Name = "c." + fd.Name
		fields = append(fields, fd)
	}
	return rowcodec.NewRowDef(fields)
}

func (f *Flatten) needsParentAlone() bool {
	return f.Join == hkey.Left || f.Join == hkey.Full
}

func (f *Flatten) allowsOrphanChild() bool {
	return f.Join == hkey.Right || f.Join == hkey.Full
}

func (f *Flatten) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	input, err := f.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &flattenCursor{f: f, input: input}, nil
}

type flattenCursor struct {
	closeGuard
	f     *Flatten
	input Cursor

	parent    *rowcodec.Row
	sawChild  bool
	outQueue  []*rowcodec.Row
}

func (c *flattenCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("flatten.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.input.Open(ctx)
}

func (c *flattenCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	if c.opened {
		return c.input.Close()
	}
	return nil
}

func (c *flattenCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("flatten.Next"); err != nil {
		return nil, err
	}
	for {
		if len(c.outQueue) > 0 {
			row := c.outQueue[0]
			c.outQueue = c.outQueue[1:]
			return row, nil
		}

		row, err := c.input.Next(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			if c.parent != nil && c.f.needsParentAlone() && !c.sawChild {
				alone, err := c.emitParentAlone(c.parent)
				if err != nil {
					return nil, err
				}
				c.parent = nil
				return alone, nil
			}
			c.parent = nil
			return nil, nil
		}

		switch {
		case row.RowType != nil && row.RowType.Equal(c.f.ParentType):
			if c.parent != nil && c.f.needsParentAlone() && !c.sawChild {
				alone, err := c.emitParentAlone(c.parent)
				if err != nil {
					return nil, err
				}
				c.outQueue = append(c.outQueue, alone)
			}
			c.parent = row
			c.sawChild = false
			if c.f.Flags.has(KeepParentFlag) {
				c.outQueue = append(c.outQueue, row)
			}
		case row.RowType != nil && row.RowType.Equal(c.f.ChildType):
			if c.parent != nil && row.HKey != nil && c.parent.HKey != nil && row.HKey.HasPrefix(*c.parent.HKey) {
				c.sawChild = true
				flat, err := c.joinRows(c.parent, row)
				if err != nil {
					return nil, err
				}
				c.outQueue = append(c.outQueue, flat)
				if c.f.Flags.has(KeepChildFlag) {
					c.outQueue = append(c.outQueue, row)
				}
			} else if c.f.allowsOrphanChild() {
				flat, err := c.joinRows(nil, row)
				if err != nil {
					return nil, err
				}
				c.outQueue = append(c.outQueue, flat)
				if c.f.Flags.has(KeepChildFlag) {
					c.outQueue = append(c.outQueue, row)
				}
			}
			// INNER/LEFT silently drop an orphan child: it belongs to no
			// parent in scope, and those joins never emit a childless pair.
		default:
			c.outQueue = append(c.outQueue, row)
		}
	}
}

func (c *flattenCursor) emitParentAlone(parent *rowcodec.Row) (*rowcodec.Row, error) {
	return c.joinRows(parent, nil)
}

// joinRows builds the flattened output row for (parent, child), either
// of which may be nil (never both).
func (c *flattenCursor) joinRows(parent, child *rowcodec.Row) (*rowcodec.Row, error) {
	outDef := c.f.outputDef()

	values := make([]interface{}, len(outDef.Fields))
	split := len(c.f.ParentDef.Fields)
	if parent != nil {
		fillValues(values[:split], parent)
	}
	if child != nil {
		fillValues(values[split:], child)
	}

	_, row, err := rowcodec.Build(nil, 0, outDef, values, true, false)
	if err != nil {
		return nil, err
	}
	row.RowType = hkey.FlattenedType{Parent: c.f.ParentType, Child: c.f.ChildType, Join: c.f.Join}

	switch {
	case child != nil:
		row.HKey = child.HKey
	case parent != nil:
		k := *parent.HKey
		if c.f.Flags.has(LeftJoinShortensHKey) {
			k = k.Truncate(k.Len())
		}
		row.HKey = &k
	}
	return row, nil
}

func fillValues(dst []interface{}, row *rowcodec.Row) {
	for i := range dst {
		if row.IsNull(i) {
			dst[i] = nil
			continue
		}
		get := fieldGetter(row)
		v, err := get(i)
		if err != nil || v.IsNull() {
			dst[i] = nil
			continue
		}
		native, err := valueToNative(v, row.Def.Fields[i].Type)
		if err != nil {
			dst[i] = nil
			continue
		}
		dst[i] = native
	}
}

