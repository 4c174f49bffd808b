package plan

import (
	"context"

	"github.com/groveql/qengine/rowcodec"
)

// UpdateFunc computes a row's replacement for update_Default.
type UpdateFunc func(old *rowcodec.Row) (*rowcodec.Row, error)

// UpdateResult summarizes an update plan's execution.
type UpdateResult struct {
	RowsProcessed int64
	RowsModified  int64
}

// runUpdatePlan drives input to completion, invoking mutate for every
// row it produces. It is shared by InsertDefault, UpdateDefault, and
// DeleteDefault, which differ only in what mutate does and in how
// "modified" is counted.
func runUpdatePlan(ctx context.Context, ec *ExecContext, input Op, op string, mutate func(row *rowcodec.Row) (modified bool, err error)) (*UpdateResult, error) {
	cur, err := input.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	if err := cur.Open(ctx); err != nil {
		return nil, err
	}
	result := &UpdateResult{}
	for {
		row, err := cur.Next(ctx)
		if err != nil {
			cur.Close()
			return result, &AdapterError{Op: op, RowsProcessed: result.RowsProcessed, Cause: err}
		}
		if row == nil {
			break
		}
		result.RowsProcessed++
		modified, err := mutate(row)
		if err != nil {
			cur.Close()
			return result, &AdapterError{Op: op, RowsProcessed: result.RowsProcessed, Cause: err}
		}
		if modified {
			result.RowsModified++
		}
	}
	if err := cur.Close(); err != nil {
		return result, err
	}
	return result, nil
}

// InsertDefault is insert_Default: writes every input row via the
// adapter.
type InsertDefault struct {
	Input Op
}

func (p *InsertDefault) Execute(ctx context.Context, ec *ExecContext) (*UpdateResult, error) {
	return runUpdatePlan(ctx, ec, p.Input, "insert_Default", func(row *rowcodec.Row) (bool, error) {
		if err := ec.Adapter.WriteRow(ctx, row); err != nil {
			return false, err
		}
		return true, nil
	})
}

// UpdateDefault is update_Default(fn): for each input row, computes
// fn(oldRow) and writes the replacement via the adapter.
type UpdateDefault struct {
	Input Op
	Fn    UpdateFunc
}

func (p *UpdateDefault) Execute(ctx context.Context, ec *ExecContext) (*UpdateResult, error) {
	return runUpdatePlan(ctx, ec, p.Input, "update_Default", func(row *rowcodec.Row) (bool, error) {
		newRow, err := p.Fn(row)
		if err != nil {
			return false, err
		}
		if err := ec.Adapter.UpdateRow(ctx, row, newRow); err != nil {
			return false, err
		}
		return true, nil
	})
}

// DeleteDefault is delete_Default: deletes every input row via the
// adapter.
type DeleteDefault struct {
	Input Op
}

func (p *DeleteDefault) Execute(ctx context.Context, ec *ExecContext) (*UpdateResult, error) {
	return runUpdatePlan(ctx, ec, p.Input, "delete_Default", func(row *rowcodec.Row) (bool, error) {
		if err := ec.Adapter.DeleteRow(ctx, row); err != nil {
			return false, err
		}
		return true, nil
	})
}
