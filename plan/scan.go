package plan

import (
	"context"
	"fmt"

	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/rowcodec"
)

// GroupScan is groupScan_Default: scans group in hkey order, full or
// positional depending on Start, stopping when Limit reports true.
type GroupScan struct {
	Group string
	Start *hkey.HKey // nil for the full-scan variant
	Deep  bool
	Limit Limit
}

func (s *GroupScan) String() string { return fmt.Sprintf("groupScan_Default(%s)", s.Group) }
func (s *GroupScan) Input() Op      { return nil }
func (s *GroupScan) SetInput(Op)    {}

func (s *GroupScan) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	inner, err := ec.Adapter.GroupCursor(ctx, s.Group, s.Start, s.Deep, s.Limit)
	if err != nil {
		return nil, &AdapterError{Op: "groupScan_Default", Cause: err}
	}
	return inner, nil
}

// IndexScan is indexScan_Default: scans an index over [Lo, Hi), in
// index order (or reverse).
type IndexScan struct {
	Index                string
	Lo, Hi               hkey.HKey
	Reverse              bool
	InnerJoinUntilType   hkey.RowType // kept for bookkeeping only; Open does not pass it to the adapter and the operator never reads it
}

func (s *IndexScan) String() string { return fmt.Sprintf("indexScan_Default(%s)", s.Index) }
func (s *IndexScan) Input() Op      { return nil }
func (s *IndexScan) SetInput(Op)    {}

func (s *IndexScan) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	inner, err := ec.Adapter.IndexCursor(ctx, s.Index, s.Lo, s.Hi, s.Reverse)
	if err != nil {
		return nil, &AdapterError{Op: "indexScan_Default", Cause: err}
	}
	return inner, nil
}

// ValuesScan is valuesScan_Default: replays a fixed, in-memory
// collection of rows once, in order.
type ValuesScan struct {
	Rows    []*rowcodec.Row
	RowType hkey.RowType
}

func (s *ValuesScan) String() string { return "valuesScan_Default" }
func (s *ValuesScan) Input() Op      { return nil }
func (s *ValuesScan) SetInput(Op)    {}

func (s *ValuesScan) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	return &valuesCursor{rows: s.Rows}, nil
}

type valuesCursor struct {
	closeGuard
	rows []*rowcodec.Row
	pos  int
}

func (c *valuesCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("valuesScan.Open"); err != nil {
		return err
	}
	c.opened = true
	return nil
}

func (c *valuesCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("valuesScan.Next"); err != nil {
		return nil, err
	}
	if c.pos >= len(c.rows) {
		return nil, nil
	}
	row := c.rows[c.pos]
	c.pos++
	return row, nil
}

func (c *valuesCursor) Close() error {
	c.markClosed()
	return nil
}
