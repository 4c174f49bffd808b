package plan

import (
	"fmt"

	"github.com/groveql/qengine/expr"
)

// sumAggregator sums expr evaluated against each accumulated
// row. A small, deliberately minimal builtin set; callers with richer
// aggregate needs supply their own AggregatorFactory.
type sumAggregator struct {
	expr  expr.Node
	sum   float64
	any   bool
}

func (a *sumAggregator) Accumulate(get expr.FieldGetter) error {
	v, err := a.expr.Eval(get)
	if err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}
	f, ok := v.Double()
	if !ok {
		if i, ok := v.Int(); ok {
			f = float64(i)
		} else {
			return fmt.Errorf("plan: sum aggregator requires a numeric value")
		}
	}
	a.sum += f
	a.any = true
	return nil
}

func (a *sumAggregator) Finalize() (expr.Value, error) {
	if !a.any {
		return expr.Null(), nil
	}
	return expr.Double(a.sum), nil
}

type countAggregator struct {
	n int64
}

func (a *countAggregator) Accumulate(expr.FieldGetter) error {
	a.n++
	return nil
}

func (a *countAggregator) Finalize() (expr.Value, error) { return expr.Int(a.n), nil }

type minMaxAggregator struct {
	expr expr.Node
	max  bool
	have bool
	best expr.Value
}

func (a *minMaxAggregator) Accumulate(get expr.FieldGetter) error {
	v, err := a.expr.Eval(get)
	if err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}
	if !a.have {
		a.best, a.have = v, true
		return nil
	}
	c := expr.Compare(v, a.best)
	if (a.max && c > 0) || (!a.max && c < 0) {
		a.best = v
	}
	return nil
}

func (a *minMaxAggregator) Finalize() (expr.Value, error) {
	if !a.have {
		return expr.Null(), nil
	}
	return a.best, nil
}

// ColumnAggregatorFactory builds an AggregatorFactory for the common
// "sum"/"count"/"min"/"max" names, each operating on the single
// expression registered for that name via cols ("count" needs none).
// Any other name builds a sum aggregator over cols[name]. Names are not
// checked against cols; a name with no registered expression gets a nil
// expression, which is first used when a row is accumulated.
func ColumnAggregatorFactory(cols map[string]expr.Node) AggregatorFactory {
	return func(name string) Aggregator {
		switch name {
		case "count":
			return &countAggregator{}
		case "sum":
			return &sumAggregator{expr: cols[name]}
		case "min":
			return &minMaxAggregator{expr: cols[name], max: false}
		case "max":
			return &minMaxAggregator{expr: cols[name], max: true}
		default:
			return &sumAggregator{expr: cols[name]}
		}
	}
}
