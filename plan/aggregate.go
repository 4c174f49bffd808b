package plan

import (
	"context"
	"fmt"

	"github.com/groveql/qengine/expr"
	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/rowcodec"
)

// Aggregator accumulates state for one aggregate column across a run of
// grouped rows and finalizes it into a single output Value.
type Aggregator interface {
	Accumulate(get expr.FieldGetter) error
	Finalize() (expr.Value, error)
}

// AggregatorFactory builds a fresh Aggregator for the named aggregator
// at the start of each run; aggregate_Partial calls it once per name
// per run so running state never leaks across group boundaries.
type AggregatorFactory func(name string) Aggregator

// AggregatePartial is aggregate_Partial: assumes input sorted on its
// first GroupingFields columns and emits one row per maximal run of
// rows sharing those columns, composed of the grouping fields followed
// by each finalized aggregator output in AggregatorNames order.
type AggregatePartial struct {
	Nonterminal
	GroupingFields  int
	Factory         AggregatorFactory
	AggregatorNames []string
	OutputDef       *rowcodec.RowDef
	OutputType      hkey.RowType
}

func (a *AggregatePartial) String() string {
	return fmt.Sprintf("aggregate_Partial(%d, %v)", a.GroupingFields, a.AggregatorNames)
}

func (a *AggregatePartial) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	input, err := a.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &aggregateCursor{a: a, input: input}, nil
}

type aggregateCursor struct {
	closeGuard
	a     *AggregatePartial
	input Cursor

	haveRun bool
	key     []expr.Value
	aggs    []Aggregator
	pending *rowcodec.Row // current row, not yet folded into the run
}

func (c *aggregateCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("aggregate.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.input.Open(ctx)
}

func (c *aggregateCursor) sameGroup(row *rowcodec.Row) (bool, []expr.Value, error) {
	get := fieldGetter(row)
	key := make([]expr.Value, c.a.GroupingFields)
	for i := range key {
		v, err := get(i)
		if err != nil {
			return false, nil, err
		}
		key[i] = v
	}
	if !c.haveRun {
		return false, key, nil
	}
	for i := range key {
		if key[i].IsNull() != c.key[i].IsNull() {
			return false, key, nil
		}
		if !key[i].IsNull() && expr.Compare(key[i], c.key[i]) != 0 {
			return false, key, nil
		}
	}
	return true, key, nil
}

func (c *aggregateCursor) startRun(key []expr.Value) {
	c.haveRun = true
	c.key = key
	c.aggs = make([]Aggregator, len(c.a.AggregatorNames))
	for i, name := range c.a.AggregatorNames {
		c.aggs[i] = c.a.Factory(name)
	}
}

func (c *aggregateCursor) finalizeRun() (*rowcodec.Row, error) {
	values := make([]interface{}, len(c.a.OutputDef.Fields))
	for i, kv := range c.key {
		native, err := valueToNative(kv, c.a.OutputDef.Fields[i].Type)
		if err != nil {
			return nil, err
		}
		values[i] = native
	}
	for i, agg := range c.aggs {
		v, err := agg.Finalize()
		if err != nil {
			return nil, err
		}
		native, err := valueToNative(v, c.a.OutputDef.Fields[c.a.GroupingFields+i].Type)
		if err != nil {
			return nil, err
		}
		values[c.a.GroupingFields+i] = native
	}
	_, row, err := rowcodec.Build(nil, 0, c.a.OutputDef, values, true, false)
	if err != nil {
		return nil, err
	}
	row.RowType = c.a.OutputType
	c.haveRun = false
	return row, nil
}

func (c *aggregateCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("aggregate.Next"); err != nil {
		return nil, err
	}
	for {
		row, err := c.input.Next(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			if c.haveRun {
				return c.finalizeRun()
			}
			return nil, nil
		}

		same, key, err := c.sameGroup(row)
		if err != nil {
			return nil, err
		}
		if !same {
			var out *rowcodec.Row
			if c.haveRun {
				out, err = c.finalizeRun()
				if err != nil {
					return nil, err
				}
			}
			c.startRun(key)
			if err := c.fold(row); err != nil {
				return nil, err
			}
			if out != nil {
				return out, nil
			}
			continue
		}
		if err := c.fold(row); err != nil {
			return nil, err
		}
	}
}

func (c *aggregateCursor) fold(row *rowcodec.Row) error {
	get := fieldGetter(row)
	for _, agg := range c.aggs {
		if err := agg.Accumulate(get); err != nil {
			return err
		}
	}
	return nil
}

func (c *aggregateCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	if c.opened {
		return c.input.Close()
	}
	return nil
}
