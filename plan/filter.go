package plan

import (
	"context"
	"fmt"

	"github.com/groveql/qengine/expr"
	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/rowcodec"
)

// FilterDefault is filter_Default: retains only rows whose type is in
// KeepTypes, ignoring hkey relationships entirely.
type FilterDefault struct {
	Nonterminal
	KeepTypes []hkey.RowType
}

func (f *FilterDefault) String() string { return "filter_Default" }

func (f *FilterDefault) keeps(t hkey.RowType) bool {
	if t == nil {
		return false
	}
	for _, kt := range f.KeepTypes {
		if t.Equal(kt) {
			return true
		}
	}
	return false
}

func (f *FilterDefault) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	input, err := f.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &filterCursor{f: f, input: input}, nil
}

type filterCursor struct {
	closeGuard
	f     *FilterDefault
	input Cursor
}

func (c *filterCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("filter.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.input.Open(ctx)
}

func (c *filterCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("filter.Next"); err != nil {
		return nil, err
	}
	for {
		row, err := c.input.Next(ctx)
		if err != nil || row == nil {
			return row, err
		}
		if c.f.keeps(row.RowType) {
			return row, nil
		}
	}
}

func (c *filterCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	if c.opened {
		return c.input.Close()
	}
	return nil
}

// SelectHKeyOrdered is select_HKeyOrdered: evaluates Predicate against
// rows of PredicateType, passing every other type through unchanged.
// Because its input is hkey-ordered, dropping a parent row also drops
// every descendant (identified by hkey prefix) until a non-descendant
// hkey is seen.
type SelectHKeyOrdered struct {
	Nonterminal
	PredicateType hkey.RowType
	Predicate     expr.Node
}

func (s *SelectHKeyOrdered) String() string {
	return fmt.Sprintf("select_HKeyOrdered(%s, %s)", s.PredicateType, s.Predicate)
}

func (s *SelectHKeyOrdered) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	input, err := s.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &selectCursor{s: s, input: input}, nil
}

type selectCursor struct {
	closeGuard
	s     *SelectHKeyOrdered
	input Cursor

	droppedPrefix *hkey.HKey
}

func (c *selectCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("select.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.input.Open(ctx)
}

func (c *selectCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("select.Next"); err != nil {
		return nil, err
	}
	for {
		row, err := c.input.Next(ctx)
		if err != nil || row == nil {
			return row, err
		}

		if c.droppedPrefix != nil {
			if row.HKey != nil && row.HKey.HasPrefix(*c.droppedPrefix) {
				continue // descendant of a dropped parent: drop too
			}
			c.droppedPrefix = nil
		}

		if row.RowType == nil || !row.RowType.Equal(c.s.PredicateType) {
			return row, nil
		}

		v, err := c.s.Predicate.Eval(fieldGetter(row))
		if err != nil {
			return nil, err
		}
		keep, _ := v.Bool()
		if keep {
			return row, nil
		}
		if row.HKey != nil {
			k := *row.HKey
			c.droppedPrefix = &k
		}
	}
}

func (c *selectCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	if c.opened {
		return c.input.Close()
	}
	return nil
}
