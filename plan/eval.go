package plan

import (
	"fmt"

	"github.com/groveql/qengine/expr"
	"github.com/groveql/qengine/rowcodec"
)

// fieldGetter adapts a rowcodec.Row into the expr.FieldGetter contract
// operators need to evaluate expr.Node predicates and projections
// against it, so the expression package never needs to know about
// rowcodec.Row directly.
func fieldGetter(row *rowcodec.Row) expr.FieldGetter {
	return func(i int) (expr.Value, error) {
		if row.IsNull(i) {
			return expr.Null(), nil
		}
		ft := row.Def.Fields[i].Type
		switch ft {
		case rowcodec.Int8, rowcodec.Int16, rowcodec.Int32, rowcodec.Int64:
			v, _ := row.GetInt(i)
			return expr.Int(v), nil
		case rowcodec.Uint8, rowcodec.Uint16, rowcodec.Uint32, rowcodec.Uint64:
			v, _ := row.GetUint(i)
			return expr.Int(int64(v)), nil
		case rowcodec.Float32, rowcodec.Float64:
			v, _ := row.GetFloat64(i)
			return expr.Double(v), nil
		case rowcodec.Bool:
			v, _ := row.GetBool(i)
			return expr.Bool(v), nil
		case rowcodec.Varchar:
			s, _, err := row.GetString(i)
			if err != nil {
				return expr.Value{}, err
			}
			return expr.String(s), nil
		case rowcodec.Varbinary:
			b, _ := row.GetBytes(i)
			return expr.Binary(b), nil
		case rowcodec.DateField:
			d, _ := row.GetDate(i)
			return expr.Date(d), nil
		default:
			return expr.Value{}, fmt.Errorf("plan: unsupported field type %s", ft)
		}
	}
}

// valueToNative converts an evaluated expr.Value into the interface{}
// representation rowcodec.Build expects for a field of type ft.
func valueToNative(v expr.Value, ft rowcodec.FieldType) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch ft {
	case rowcodec.Int8, rowcodec.Int16, rowcodec.Int32, rowcodec.Int64,
		rowcodec.Uint8, rowcodec.Uint16, rowcodec.Uint32, rowcodec.Uint64:
		if i, ok := v.Int(); ok {
			return i, nil
		}
		if f, ok := v.Double(); ok {
			return int64(f), nil
		}
		return nil, fmt.Errorf("plan: value %s is not an integer", v.GoString())
	case rowcodec.Float32, rowcodec.Float64:
		if f, ok := v.Double(); ok {
			return f, nil
		}
		if i, ok := v.Int(); ok {
			return float64(i), nil
		}
		return nil, fmt.Errorf("plan: value %s is not a float", v.GoString())
	case rowcodec.Bool:
		b, ok := v.Bool()
		if !ok {
			return nil, fmt.Errorf("plan: value %s is not a bool", v.GoString())
		}
		return b, nil
	case rowcodec.Varchar:
		s, ok := v.String()
		if !ok {
			return nil, fmt.Errorf("plan: value %s is not a string", v.GoString())
		}
		return s, nil
	case rowcodec.Varbinary:
		b, ok := v.Binary()
		if !ok {
			return nil, fmt.Errorf("plan: value %s is not binary", v.GoString())
		}
		return b, nil
	case rowcodec.DateField:
		d, ok := v.Date()
		if !ok {
			return nil, fmt.Errorf("plan: value %s is not a date", v.GoString())
		}
		return d, nil
	default:
		return nil, fmt.Errorf("plan: unsupported field type %s", ft)
	}
}

// evalValues evaluates each expression in exprs against get and
// converts the results into the interface{} vector rowcodec.Build
// expects for a row built under outDef.
func evalValues(exprs []expr.Node, get expr.FieldGetter, outDef *rowcodec.RowDef) ([]interface{}, error) {
	values := make([]interface{}, len(exprs))
	for i, e := range exprs {
		v, err := e.Eval(get)
		if err != nil {
			return nil, err
		}
		native, err := valueToNative(v, outDef.Fields[i].Type)
		if err != nil {
			return nil, err
		}
		values[i] = native
	}
	return values, nil
}
