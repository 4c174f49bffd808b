package plan

import (
	"context"
	"fmt"
)

// Op is a single node in a physical query plan tree (C7). The root of
// the tree is the final output operator; leaves are scans. Open builds
// this operator's Cursor against adapter, recursively opening its
// input(s) first.
//
// This follows an Op/Nonterminal shape (an input() accessor plus a
// per-node Open) adapted from a push-based exec(dst, src) tree into
// this package's pull-based Cursor protocol.
type Op interface {
	fmt.Stringer

	// Input returns this Op's primary input, or nil for a leaf.
	Input() Op
	// SetInput replaces this Op's primary input.
	SetInput(o Op)

	// Open builds a Cursor for this operator against adapter. It must
	// not itself perform I/O beyond what's needed to construct the
	// Cursor; actual data access happens on the Cursor's Open/Next.
	Open(ctx context.Context, ec *ExecContext) (Cursor, error)
}

// Nonterminal is embedded in every Op with a single input, giving it
// Input/SetInput for free.
type Nonterminal struct {
	From Op
}

func (n *Nonterminal) Input() Op      { return n.From }
func (n *Nonterminal) SetInput(o Op)  { n.From = o }

// ExecContext carries the per-execution state a cursor tree shares: the
// adapter, its bindings, and an id correlating log lines and errors
// back to one execution.
type ExecContext struct {
	Adapter Adapter
	ID      string
}

func (ec *ExecContext) Bindings() *Bindings { return ec.Adapter.Bindings() }
