package plan

import (
	"context"
	"fmt"

	"github.com/groveql/qengine/expr"
	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/rowcodec"
)

// projectBase is the shared implementation of project_Default and
// project_Table: for each input row matching InputType (or, if InputType
// is nil, every row), emit a fresh row of OutputType/OutputDef computed
// by evaluating Exprs against the input row. Rows of other types pass
// through unchanged only when InputType is non-nil (the "three-arg
// form"); when InputType is nil ("two-arg form") every row is projected,
// so there is nothing left to pass through.
type projectBase struct {
	Nonterminal
	InputType  hkey.RowType // nil: project every row
	OutputType hkey.RowType
	OutputDef  *rowcodec.RowDef
	Exprs      []expr.Node
	// keepHKey carries the input row's hkey onto the projected row;
	// project_Table drops it, since table rows are not positioned in a
	// group tree the way the operator tree's hkey-ordered rows are.
	keepHKey bool
}

func (p *projectBase) applies(t hkey.RowType) bool {
	return p.InputType == nil || (t != nil && t.Equal(p.InputType))
}

func (p *projectBase) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	input, err := p.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &projectCursor{p: p, input: input}, nil
}

type projectCursor struct {
	closeGuard
	p     *projectBase
	input Cursor
}

func (c *projectCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("project.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.input.Open(ctx)
}

func (c *projectCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("project.Next"); err != nil {
		return nil, err
	}
	for {
		row, err := c.input.Next(ctx)
		if err != nil || row == nil {
			return row, err
		}
		if !c.p.applies(row.RowType) {
			return row, nil
		}
		values, err := evalValues(c.p.Exprs, fieldGetter(row), c.p.OutputDef)
		if err != nil {
			return nil, err
		}
		_, out, err := rowcodec.Build(nil, 0, c.p.OutputDef, values, true, false)
		if err != nil {
			return nil, err
		}
		out.RowType = c.p.OutputType
		if c.p.keepHKey {
			out.HKey = row.HKey
		}
		return out, nil
	}
}

func (c *projectCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	if c.opened {
		return c.input.Close()
	}
	return nil
}

// ProjectDefault is project_Default: projects matching rows while
// preserving their hkey, for use inside hkey-ordered pipelines.
type ProjectDefault struct{ projectBase }

func NewProjectDefault(inputType hkey.RowType, outputType hkey.RowType, outDef *rowcodec.RowDef, exprs []expr.Node) *ProjectDefault {
	return &ProjectDefault{projectBase{InputType: inputType, OutputType: outputType, OutputDef: outDef, Exprs: exprs, keepHKey: true}}
}

func (p *ProjectDefault) String() string { return fmt.Sprintf("project_Default(%s)", p.OutputType) }

// ProjectTable is project_Table: projects matching rows into plain table
// rows with no hkey, for use at the boundary where a result is handed
// back to a caller rather than fed to another hkey-ordered operator.
type ProjectTable struct{ projectBase }

func NewProjectTable(inputType hkey.RowType, outputType hkey.RowType, outDef *rowcodec.RowDef, exprs []expr.Node) *ProjectTable {
	return &ProjectTable{projectBase{InputType: inputType, OutputType: outputType, OutputDef: outDef, Exprs: exprs, keepHKey: false}}
}

func (p *ProjectTable) String() string { return fmt.Sprintf("project_Table(%s)", p.OutputType) }
