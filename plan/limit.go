package plan

import "github.com/groveql/qengine/rowcodec"

// Limit is a polymorphic predicate over a row, used by groupScan_Default
// to decide when to stop (spec §9 "Limit as a strategy object"). Encoded
// as a function interface rather than a fixed enum so callers can
// compose arbitrary stopping conditions (row count, byte budget, a
// field threshold, ...).
type Limit func(row *rowcodec.Row) bool

// NoLimit never stops a scan.
func NoLimit(*rowcodec.Row) bool { return false }

// RowCountLimit stops a scan once n rows have been seen.
func RowCountLimit(n int) Limit {
	seen := 0
	return func(*rowcodec.Row) bool {
		seen++
		return seen > n
	}
}
