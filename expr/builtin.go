package expr

import (
	"fmt"
	"math"
	"strings"
)

// builtinFunc evaluates a Call's already-evaluated arguments. Builtins
// are deliberately few: the operator framework only needs enough scalar
// functions to exercise aggregate_Partial and project_Default in the
// scenarios spec §8 describes; a real deployment would register many
// more through RegisterBuiltin.
type builtinFunc func(args []Value) (Value, error)

var builtins = map[string]builtinFunc{
	"upper":    builtinUpper,
	"lower":    builtinLower,
	"abs":      builtinAbs,
	"coalesce": builtinCoalesce,
}

// RegisterBuiltin adds or replaces a named scalar function available to
// Call nodes. It is not safe to call concurrently with evaluation.
func RegisterBuiltin(name string, fn func(args []Value) (Value, error)) {
	builtins[name] = fn
}

func builtinUpper(args []Value) (Value, error) {
	s, err := argString(args, "upper")
	if err != nil {
		return Value{}, err
	}
	return String(strings.ToUpper(s)), nil
}

func builtinLower(args []Value) (Value, error) {
	s, err := argString(args, "lower")
	if err != nil {
		return Value{}, err
	}
	return String(strings.ToLower(s)), nil
}

func builtinAbs(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("expr: abs takes exactly one argument")
	}
	if i, ok := args[0].Int(); ok {
		if i < 0 {
			i = -i
		}
		return Int(i), nil
	}
	if f, ok := args[0].Double(); ok {
		return Double(math.Abs(f)), nil
	}
	return Value{}, fmt.Errorf("expr: abs requires a numeric argument")
}

func builtinCoalesce(args []Value) (Value, error) {
	for _, a := range args {
		if !a.IsNull() {
			return a, nil
		}
	}
	return Null(), nil
}

func argString(args []Value, name string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expr: %s takes exactly one argument", name)
	}
	s, ok := args[0].String()
	if !ok {
		return "", fmt.Errorf("expr: %s requires a string argument", name)
	}
	return s, nil
}
