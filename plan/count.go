package plan

import (
	"context"
	"fmt"

	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/rowcodec"
)

// CountDefault is count_Default: emits a singleton row carrying the
// run length for each maximal run of consecutive CountType rows. Rows
// of other types pass through unchanged; a run is closed (and its
// count row emitted) on a type change or end of stream.
type CountDefault struct {
	Nonterminal
	CountType hkey.RowType
	OutputDef *rowcodec.RowDef // single int64 field
	OutputType hkey.RowType
}

func (c *CountDefault) String() string { return fmt.Sprintf("count_Default(%s)", c.CountType) }

func (c *CountDefault) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	input, err := c.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &countCursor{c: c, input: input}, nil
}

type countCursor struct {
	closeGuard
	c     *CountDefault
	input Cursor

	run     int64
	pending *rowcodec.Row // a non-matching row held back until the run count is flushed
}

func (c *countCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("count.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.input.Open(ctx)
}

func (c *countCursor) countRow() (*rowcodec.Row, error) {
	_, row, err := rowcodec.Build(nil, 0, c.c.OutputDef, []interface{}{c.run}, true, false)
	if err != nil {
		return nil, err
	}
	row.RowType = c.c.OutputType
	c.run = 0
	return row, nil
}

func (c *countCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("count.Next"); err != nil {
		return nil, err
	}
	if c.pending != nil {
		row := c.pending
		c.pending = nil
		return row, nil
	}
	for {
		row, err := c.input.Next(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			if c.run > 0 {
				return c.countRow()
			}
			return nil, nil
		}
		matches := row.RowType != nil && row.RowType.Equal(c.c.CountType)
		if matches {
			c.run++
			continue
		}
		if c.run > 0 {
			c.pending = row
			return c.countRow()
		}
		return row, nil
	}
}

func (c *countCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	if c.opened {
		return c.input.Close()
	}
	return nil
}
