package plan

import (
	"context"
	"fmt"

	"github.com/groveql/qengine/expr"
	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/rowcodec"
)

// ProductNestedLoops is product_NestedLoops: for each outer row, writes
// it into BindingPos, opens Inner fresh, and emits the flattened cross
// of the outer row with each row the inner cursor produces. The inner
// is closed before the outer advances.
//
// product_ByRun is omitted: spec §9 marks it deprecated in favor of this
// operator and explicitly permits an implementer to leave it out.
type ProductNestedLoops struct {
	Nonterminal
	Inner      Op
	LeftType   hkey.RowType
	RightType  hkey.RowType
	BindingPos int

	outDef *rowcodec.RowDef
}

func (p *ProductNestedLoops) String() string {
	return fmt.Sprintf("product_NestedLoops(%s, %s)", p.LeftType, p.RightType)
}

func (p *ProductNestedLoops) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	outer, err := p.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &productCursor{p: p, ec: ec, outer: outer}, nil
}

type productCursor struct {
	closeGuard
	p     *ProductNestedLoops
	ec    *ExecContext
	outer Cursor

	outerRow *rowcodec.Row
	inner    Cursor
}

func (c *productCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("product.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.outer.Open(ctx)
}

func (c *productCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("product.Next"); err != nil {
		return nil, err
	}
	for {
		if c.inner == nil {
			row, err := c.outer.Next(ctx)
			if err != nil {
				return nil, err
			}
			if row == nil {
				return nil, nil
			}
			c.outerRow = row
			c.ec.Bindings().Set(c.p.BindingPos, row)
			inner, err := c.p.Inner.Open(ctx, c.ec)
			if err != nil {
				return nil, err
			}
			if err := inner.Open(ctx); err != nil {
				return nil, err
			}
			c.inner = inner
		}

		innerRow, err := c.inner.Next(ctx)
		if err != nil {
			return nil, err
		}
		if innerRow == nil {
			if err := c.inner.Close(); err != nil {
				return nil, err
			}
			c.inner = nil
			c.ec.Bindings().Clear(c.p.BindingPos)
			continue
		}
		return c.crossRow(innerRow)
	}
}

func (c *productCursor) crossRow(innerRow *rowcodec.Row) (*rowcodec.Row, error) {
	if c.p.outDef == nil {
		c.p.outDef = concatRowDef(c.outerRow.Def, innerRow.Def)
	}
	values := make([]interface{}, len(c.p.outDef.Fields))
	split := len(c.outerRow.Def.Fields)
	fillValues(values[:split], c.outerRow)
	fillValues(values[split:], innerRow)
	_, row, err := rowcodec.Build(nil, 0, c.p.outDef, values, true, false)
	if err != nil {
		return nil, err
	}
	row.RowType = hkey.FlattenedType{Parent: c.p.LeftType, Child: c.p.RightType, Join: hkey.Inner}
	row.HKey = innerRow.HKey
	return row, nil
}

func (c *productCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	var err error
	if c.inner != nil {
		err = c.inner.Close()
		c.ec.Bindings().Clear(c.p.BindingPos)
	}
	if c.opened {
		if oerr := c.outer.Close(); oerr != nil && err == nil {
			err = oerr
		}
	}
	return err
}

// MapNestedLoops is map_NestedLoops: pipes outer rows through a binding
// to re-open Inner per outer row, like ProductNestedLoops, but emits the
// inner rows directly (no cross-row synthesis) and, when OuterJoinType
// is set, synthesizes exactly one row of that type per outer row that
// produced zero inner rows, with fields computed from OuterJoinExprs
// evaluated against the outer row.
type MapNestedLoops struct {
	Nonterminal
	Inner          Op
	BindingPos     int
	OuterJoinType  hkey.RowType // nil disables the synthesize-on-empty behavior
	OuterJoinDef   *rowcodec.RowDef
	OuterJoinExprs []expr.Node
}

func (m *MapNestedLoops) String() string { return "map_NestedLoops" }

func (m *MapNestedLoops) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	outer, err := m.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &mapCursor{m: m, ec: ec, outer: outer}, nil
}

type mapCursor struct {
	closeGuard
	m     *MapNestedLoops
	ec    *ExecContext
	outer Cursor

	outerRow    *rowcodec.Row
	inner       Cursor
	innerEmpty  bool
}

func (c *mapCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("map.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.outer.Open(ctx)
}

func (c *mapCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("map.Next"); err != nil {
		return nil, err
	}
	for {
		if c.inner == nil {
			row, err := c.outer.Next(ctx)
			if err != nil {
				return nil, err
			}
			if row == nil {
				return nil, nil
			}
			c.outerRow = row
			c.innerEmpty = true
			c.ec.Bindings().Set(c.m.BindingPos, row)
			inner, err := c.m.Inner.Open(ctx, c.ec)
			if err != nil {
				return nil, err
			}
			if err := inner.Open(ctx); err != nil {
				return nil, err
			}
			c.inner = inner
		}

		innerRow, err := c.inner.Next(ctx)
		if err != nil {
			return nil, err
		}
		if innerRow == nil {
			if err := c.inner.Close(); err != nil {
				return nil, err
			}
			c.inner = nil
			c.ec.Bindings().Clear(c.m.BindingPos)
			if c.innerEmpty && c.m.OuterJoinType != nil {
				return c.synthesize(c.outerRow)
			}
			continue
		}
		c.innerEmpty = false
		return innerRow, nil
	}
}

func (c *mapCursor) synthesize(outer *rowcodec.Row) (*rowcodec.Row, error) {
	get := fieldGetter(outer)
	values, err := evalValues(c.m.OuterJoinExprs, get, c.m.OuterJoinDef)
	if err != nil {
		return nil, err
	}
	_, row, err := rowcodec.Build(nil, 0, c.m.OuterJoinDef, values, true, false)
	if err != nil {
		return nil, err
	}
	row.RowType = c.m.OuterJoinType
	row.HKey = outer.HKey
	return row, nil
}

func (c *mapCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	var err error
	if c.inner != nil {
		err = c.inner.Close()
		c.ec.Bindings().Clear(c.m.BindingPos)
	}
	if c.opened {
		if oerr := c.outer.Close(); oerr != nil && err == nil {
			err = oerr
		}
	}
	return err
}
