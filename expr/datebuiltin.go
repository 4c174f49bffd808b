package expr

import (
	"fmt"

	"github.com/groveql/qengine/date"
	"github.com/groveql/qengine/fastdate"
)

// Date/time builtins dispatch through fastdate.Timestamp (microseconds
// since the epoch) rather than date.Time's calendar struct, the same
// split vm/interpdatetime.go makes between the general date.Time
// representation and a fast integer timestamp for calendar arithmetic.

func init() {
	builtins["date_extract_year"] = dateExtractFunc(func(ts fastdate.Timestamp) int64 { return int64(ts.ExtractYear()) })
	builtins["date_extract_quarter"] = dateExtractFunc(func(ts fastdate.Timestamp) int64 { return int64(ts.ExtractQuarter()) })
	builtins["date_extract_month"] = dateExtractFunc(func(ts fastdate.Timestamp) int64 { return int64(ts.ExtractMonth()) })
	builtins["date_extract_day"] = dateExtractFunc(func(ts fastdate.Timestamp) int64 { return int64(ts.ExtractDay()) })
	builtins["date_extract_dow"] = dateExtractFunc(func(ts fastdate.Timestamp) int64 { return int64(ts.ExtractDOW()) })
	builtins["date_extract_doy"] = dateExtractFunc(func(ts fastdate.Timestamp) int64 { return int64(ts.ExtractDOY()) })
	builtins["date_extract_hour"] = dateExtractFunc(func(ts fastdate.Timestamp) int64 { return int64(ts.ExtractHour()) })
	builtins["date_extract_minute"] = dateExtractFunc(func(ts fastdate.Timestamp) int64 { return int64(ts.ExtractMinute()) })
	builtins["date_extract_second"] = dateExtractFunc(func(ts fastdate.Timestamp) int64 { return int64(ts.ExtractSecond()) })

	builtins["date_trunc_year"] = dateTruncFunc(fastdate.Timestamp.TruncYear)
	builtins["date_trunc_quarter"] = dateTruncFunc(fastdate.Timestamp.TruncQuarter)
	builtins["date_trunc_month"] = dateTruncFunc(fastdate.Timestamp.TruncMonth)
	builtins["date_trunc_day"] = dateTruncFunc(fastdate.Timestamp.TruncDay)
	builtins["date_trunc_hour"] = dateTruncFunc(fastdate.Timestamp.TruncHour)
	builtins["date_trunc_minute"] = dateTruncFunc(fastdate.Timestamp.TruncMinute)

	builtins["date_add_day"] = dateAddFunc(fastdate.Timestamp.AddDay)
	builtins["date_add_month"] = dateAddFunc(fastdate.Timestamp.AddMonth)
	builtins["date_add_year"] = dateAddFunc(fastdate.Timestamp.AddYear)
}

// timestampArg converts a single Date or Time Value argument to a
// fastdate.Timestamp (microseconds since the epoch).
func timestampArg(args []Value, name string) (fastdate.Timestamp, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expr: %s takes exactly one argument", name)
	}
	var t date.Time
	switch args[0].Kind() {
	case KindDate:
		t, _ = args[0].Date()
	case KindTime:
		t, _ = args[0].Time()
	default:
		return 0, fmt.Errorf("expr: %s requires a date or time argument", name)
	}
	return fastdate.Timestamp(t.UnixMicro()), nil
}

func dateExtractFunc(extract func(fastdate.Timestamp) int64) builtinFunc {
	return func(args []Value) (Value, error) {
		ts, err := timestampArg(args, "date_extract")
		if err != nil {
			return Value{}, err
		}
		return Int(extract(ts)), nil
	}
}

func dateTruncFunc(trunc func(fastdate.Timestamp) fastdate.Timestamp) builtinFunc {
	return func(args []Value) (Value, error) {
		ts, err := timestampArg(args, "date_trunc")
		if err != nil {
			return Value{}, err
		}
		return Date(date.UnixMicro(int64(trunc(ts)))), nil
	}
}

func dateAddFunc(add func(fastdate.Timestamp, int64) (fastdate.Timestamp, bool)) builtinFunc {
	return func(args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("expr: date_add requires a date and an interval count")
		}
		ts, err := timestampArg(args[:1], "date_add")
		if err != nil {
			return Value{}, err
		}
		n, ok := args[1].Int()
		if !ok {
			return Value{}, fmt.Errorf("expr: date_add requires an integer interval count")
		}
		result, ok := add(ts, n)
		if !ok {
			return Value{}, fmt.Errorf("expr: date_add overflowed")
		}
		return Date(date.UnixMicro(int64(result))), nil
	}
}
