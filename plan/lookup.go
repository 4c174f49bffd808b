package plan

import (
	"context"
	"fmt"

	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/rowcodec"
)

// LookupFlag controls whether a lookup operator retains the row (or, for
// the nested variant, the key) that drove the lookup alongside the rows
// the lookup produced.
type LookupFlag uint8

const (
	KeepInput LookupFlag = iota
	DiscardInput
)

// AncestorLookup is ancestorLookup_Default / ancestorLookup_Nested: for
// each driving row (or, in the Nested form, each binding value), emits
// that row's ancestors at AncestorTypes in root-to-leaf order.
//
// Design decision (spec §9 open question on KEEP_INPUT for the Nested
// form, where there is no row object to keep — only an hkey): KEEP_INPUT
// is honored only by the Default form, which has an actual input row to
// re-emit after its ancestors; the Nested form always behaves as
// DISCARD_INPUT since a bare hkey binding carries no row to surface.
type AncestorLookup struct {
	Nonterminal
	Group               string
	AncestorTypes       []hkey.RowType
	Flag                LookupFlag
	Nested              bool
	HKeyBindingPosition int
}

func (a *AncestorLookup) String() string {
	if a.Nested {
		return fmt.Sprintf("ancestorLookup_Nested(%s)", a.Group)
	}
	return fmt.Sprintf("ancestorLookup_Default(%s)", a.Group)
}

func (a *AncestorLookup) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	if a.Nested {
		v, err := ec.Bindings().Get(a.HKeyBindingPosition)
		if err != nil {
			return nil, err
		}
		key, ok := v.(hkey.HKey)
		if !ok {
			return nil, fmt.Errorf("plan: binding %d is not an hkey", a.HKeyBindingPosition)
		}
		rows, err := ec.Adapter.Lookup(ctx, a.Group, key, a.AncestorTypes)
		if err != nil {
			return nil, &AdapterError{Op: "ancestorLookup_Nested", Cause: err}
		}
		return &valuesCursor{rows: rows}, nil
	}

	input, err := a.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &ancestorLookupCursor{a: a, ec: ec, input: input}, nil
}

type ancestorLookupCursor struct {
	closeGuard
	a     *AncestorLookup
	ec    *ExecContext
	input Cursor

	queue []*rowcodec.Row
}

func (c *ancestorLookupCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("ancestorLookup.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.input.Open(ctx)
}

func (c *ancestorLookupCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("ancestorLookup.Next"); err != nil {
		return nil, err
	}
	for len(c.queue) == 0 {
		row, err := c.input.Next(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, nil
		}
		if row.HKey == nil {
			return nil, fmt.Errorf("plan: ancestorLookup_Default input row has no hkey")
		}
		ancestors, err := c.ec.Adapter.Lookup(ctx, c.a.Group, *row.HKey, c.a.AncestorTypes)
		if err != nil {
			return nil, &AdapterError{Op: "ancestorLookup_Default", Cause: err}
		}
		c.queue = ancestors
		if c.a.Flag == KeepInput {
			c.queue = append(c.queue, row)
		}
	}
	row := c.queue[0]
	c.queue = c.queue[1:]
	return row, nil
}

func (c *ancestorLookupCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	if c.opened {
		return c.input.Close()
	}
	return nil
}

// BranchLookup is branchLookup_Default / branchLookup_Nested: like
// AncestorLookup, but emits the entire subtree rooted at the driving
// row's (or binding's) hkey, in hkey order.
type BranchLookup struct {
	Nonterminal
	Group               string
	Flag                LookupFlag
	Nested              bool
	HKeyBindingPosition int
}

func (b *BranchLookup) String() string {
	if b.Nested {
		return fmt.Sprintf("branchLookup_Nested(%s)", b.Group)
	}
	return fmt.Sprintf("branchLookup_Default(%s)", b.Group)
}

func (b *BranchLookup) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	if b.Nested {
		v, err := ec.Bindings().Get(b.HKeyBindingPosition)
		if err != nil {
			return nil, err
		}
		key, ok := v.(hkey.HKey)
		if !ok {
			return nil, fmt.Errorf("plan: binding %d is not an hkey", b.HKeyBindingPosition)
		}
		branch, err := ec.Adapter.Branch(ctx, b.Group, key)
		if err != nil {
			return nil, &AdapterError{Op: "branchLookup_Nested", Cause: err}
		}
		return branch, nil
	}

	input, err := b.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &branchLookupCursor{b: b, ec: ec, input: input}, nil
}

type branchLookupCursor struct {
	closeGuard
	b     *BranchLookup
	ec    *ExecContext
	input Cursor

	branch  Cursor
	pending *rowcodec.Row
}

func (c *branchLookupCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("branchLookup.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.input.Open(ctx)
}

func (c *branchLookupCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("branchLookup.Next"); err != nil {
		return nil, err
	}
	for {
		if c.pending != nil {
			row := c.pending
			c.pending = nil
			if c.b.Flag == KeepInput {
				return row, nil
			}
			// fall through: DiscardInput surfaces the branch rows themselves
		}
		if c.branch != nil {
			row, err := c.branch.Next(ctx)
			if err != nil {
				return nil, err
			}
			if row != nil {
				return row, nil
			}
			if err := c.branch.Close(); err != nil {
				return nil, err
			}
			c.branch = nil
			continue
		}
		row, err := c.input.Next(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, nil
		}
		if row.HKey == nil {
			return nil, fmt.Errorf("plan: branchLookup_Default input row has no hkey")
		}
		c.branch, err = c.ec.Adapter.Branch(ctx, c.b.Group, *row.HKey)
		if err != nil {
			return nil, &AdapterError{Op: "branchLookup_Default", Cause: err}
		}
		if c.b.Flag == KeepInput {
			c.pending = row
		}
	}
}

func (c *branchLookupCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	var err error
	if c.branch != nil {
		err = c.branch.Close()
	}
	if c.opened {
		if cerr := c.input.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
