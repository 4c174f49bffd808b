// Package memadapter is a minimal in-memory plan.Adapter: everything is
// a slice the test builds ahead of time. It exists so plan's operator
// tests can drive real cursor trees end to end without a real storage
// engine.
package memadapter

import (
	"context"
	"sort"

	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/plan"
	"github.com/groveql/qengine/rowcodec"
)

// Adapter is a single hierarchical group's worth of rows, held sorted
// by hkey, plus a named set of secondary indexes.
type Adapter struct {
	Group   []*rowcodec.Row
	Indexes map[string][]*rowcodec.Row

	bindings *plan.Bindings
}

func New() *Adapter {
	return &Adapter{Indexes: make(map[string][]*rowcodec.Row), bindings: plan.NewBindings(8)}
}

func (a *Adapter) Bindings() *plan.Bindings { return a.bindings }

// Seed appends rows to the group, then keeps it hkey-sorted; call it
// once with a fixture's full row set before opening any plan.
func (a *Adapter) Seed(rows ...*rowcodec.Row) {
	a.Group = append(a.Group, rows...)
	sort.SliceStable(a.Group, func(i, j int) bool {
		return hkeyLess(a.Group[i].HKey, a.Group[j].HKey)
	})
}

func (a *Adapter) SeedIndex(name string, rows ...*rowcodec.Row) {
	a.Indexes[name] = append(a.Indexes[name], rows...)
	sort.SliceStable(a.Indexes[name], func(i, j int) bool {
		return hkeyLess(a.Indexes[name][i].HKey, a.Indexes[name][j].HKey)
	})
}

func hkeyLess(a, b *hkey.HKey) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil:
		return true
	case b == nil:
		return false
	default:
		return a.Compare(*b) < 0
	}
}

type sliceCursor struct {
	rows   []*rowcodec.Row
	pos    int
	limit  plan.Limit
	opened bool
	closed bool
}

func (c *sliceCursor) Open(context.Context) error {
	if c.closed {
		return &plan.CursorClosed{Op: "memadapter.Open"}
	}
	c.opened = true
	return nil
}

func (c *sliceCursor) Next(context.Context) (*rowcodec.Row, error) {
	if c.closed {
		return nil, &plan.CursorClosed{Op: "memadapter.Next"}
	}
	if c.pos >= len(c.rows) {
		return nil, nil
	}
	row := c.rows[c.pos]
	if c.limit != nil && c.limit(row) {
		return nil, nil
	}
	c.pos++
	return row, nil
}

func (c *sliceCursor) Close() error {
	c.closed = true
	return nil
}

// GroupCursor scans the group from start (inclusive) in hkey order, or
// from the beginning when start is nil. deep is accepted for interface
// compatibility; this adapter's group is always a flat hkey-ordered
// sequence already containing every descendant row, so deep vs shallow
// is a distinction storage engines make, not this in-memory stand-in.
func (a *Adapter) GroupCursor(ctx context.Context, group string, start *hkey.HKey, deep bool, limit plan.Limit) (plan.Cursor, error) {
	rows := a.Group
	if start != nil {
		idx := sort.Search(len(rows), func(i int) bool {
			return !hkeyLess(rows[i].HKey, start)
		})
		rows = rows[idx:]
	}
	return &sliceCursor{rows: rows, limit: limit}, nil
}

// IndexCursor scans the named index over the half-open range [lo, hi),
// optionally reversed.
func (a *Adapter) IndexCursor(ctx context.Context, index string, lo, hi hkey.HKey, reverse bool) (plan.Cursor, error) {
	src := a.Indexes[index]
	var rows []*rowcodec.Row
	for _, row := range src {
		if row.HKey == nil {
			continue
		}
		if row.HKey.Compare(lo) < 0 || row.HKey.Compare(hi) >= 0 {
			continue
		}
		rows = append(rows, row)
	}
	if reverse {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	return &sliceCursor{rows: rows}, nil
}

// Lookup returns, for each requested ancestor type, the nearest group
// row of that type whose hkey is a prefix of key.
func (a *Adapter) Lookup(ctx context.Context, group string, key hkey.HKey, ancestorTypes []hkey.RowType) ([]*rowcodec.Row, error) {
	var out []*rowcodec.Row
	for _, t := range ancestorTypes {
		var best *rowcodec.Row
		for _, row := range a.Group {
			if row.HKey == nil || row.RowType == nil || !row.RowType.Equal(t) {
				continue
			}
			if !key.HasPrefix(*row.HKey) {
				continue
			}
			if best == nil || row.HKey.Len() > best.HKey.Len() {
				best = row
			}
		}
		if best != nil {
			out = append(out, best)
		}
	}
	return out, nil
}

// Branch returns every row whose hkey has key as a prefix, in hkey
// order, including the row at key itself if present.
func (a *Adapter) Branch(ctx context.Context, group string, key hkey.HKey) (plan.Cursor, error) {
	var rows []*rowcodec.Row
	for _, row := range a.Group {
		if row.HKey != nil && row.HKey.HasPrefix(key) {
			rows = append(rows, row)
		}
	}
	return &sliceCursor{rows: rows}, nil
}

func (a *Adapter) WriteRow(ctx context.Context, row *rowcodec.Row) error {
	a.Seed(row)
	return nil
}

func (a *Adapter) UpdateRow(ctx context.Context, old, newRow *rowcodec.Row) error {
	for i, row := range a.Group {
		if row == old {
			a.Group[i] = newRow
			return nil
		}
	}
	return nil
}

func (a *Adapter) DeleteRow(ctx context.Context, row *rowcodec.Row) error {
	for i, r := range a.Group {
		if r == row {
			a.Group = append(a.Group[:i], a.Group[i+1:]...)
			return nil
		}
	}
	return nil
}
