package plan_test

import (
	"context"
	"testing"

	"github.com/groveql/qengine/expr"
	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/plan"
	"github.com/groveql/qengine/plan/memadapter"
	"github.com/groveql/qengine/rowcodec"
	"github.com/groveql/qengine/sorting"
)

var (
	regionType = hkey.TableType{Name: "region"}
	orderType  = hkey.TableType{Name: "order"}
)

func regionDef() *rowcodec.RowDef {
	return rowcodec.NewRowDef([]rowcodec.FieldDef{
		{Name: "name", Type: rowcodec.Varchar, MaxSize: 32},
	})
}

func orderDef() *rowcodec.RowDef {
	return rowcodec.NewRowDef([]rowcodec.FieldDef{
		{Name: "amount", Type: rowcodec.Int64},
	})
}

func mustRow(t *testing.T, def *rowcodec.RowDef, values []interface{}, rt hkey.RowType, key hkey.HKey) *rowcodec.Row {
	t.Helper()
	_, row, err := rowcodec.Build(nil, 0, def, values, true, false)
	if err != nil {
		t.Fatalf("building row: %v", err)
	}
	row.RowType = rt
	row.HKey = &key
	return row
}

func drain(t *testing.T, ctx context.Context, cur plan.Cursor) []*rowcodec.Row {
	t.Helper()
	if err := cur.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	var rows []*rowcodec.Row
	for {
		row, err := cur.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	if err := cur.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return rows
}

// S2 — group scan + flatten inner join.
func TestGroupScanFlattenInner(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()

	eRegion := mustRow(t, regionDef(), []interface{}{"E"}, regionType, hkey.New(hkey.StrSegment("E")))
	wRegion := mustRow(t, regionDef(), []interface{}{"W"}, regionType, hkey.New(hkey.StrSegment("W")))
	eOrder1 := mustRow(t, orderDef(), []interface{}{int64(10)}, orderType, hkey.New(hkey.StrSegment("E"), hkey.IntSegment(1)))
	eOrder2 := mustRow(t, orderDef(), []interface{}{int64(20)}, orderType, hkey.New(hkey.StrSegment("E"), hkey.IntSegment(2)))
	a.Seed(eRegion, eOrder1, eOrder2, wRegion)

	root := &plan.Flatten{
		ParentType: regionType,
		ChildType:  orderType,
		Join:       hkey.Inner,
		ParentDef:  regionDef(),
		ChildDef:   orderDef(),
	}
	root.SetInput(&plan.GroupScan{Group: "region"})

	ec := plan.NewExecContext(a)
	cur, err := plan.Execute(ctx, root, ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rows := drain(t, ctx, cur)
	if len(rows) != 2 {
		t.Fatalf("expected 2 flattened rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.IsNull(0) || row.IsNull(1) {
			t.Fatalf("INNER join must never emit a null-side row, got nulls in %v", row.Bytes())
		}
	}
}

// S4 — aggregate with grouping: (E,10),(E,20),(W,5) sorted on region ->
// sum(amount) per region -> (E,30),(W,5).
func TestAggregatePartialSum(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()

	in := rowcodec.NewRowDef([]rowcodec.FieldDef{
		{Name: "region", Type: rowcodec.Varchar, MaxSize: 8},
		{Name: "amount", Type: rowcodec.Int64},
	})
	inType := hkey.TableType{Name: "in"}
	rows := []*rowcodec.Row{
		mustRow(t, in, []interface{}{"E", int64(10)}, inType, hkey.New(hkey.IntSegment(1))),
		mustRow(t, in, []interface{}{"E", int64(20)}, inType, hkey.New(hkey.IntSegment(2))),
		mustRow(t, in, []interface{}{"W", int64(5)}, inType, hkey.New(hkey.IntSegment(3))),
	}

	out := rowcodec.NewRowDef([]rowcodec.FieldDef{
		{Name: "region", Type: rowcodec.Varchar, MaxSize: 8},
		{Name: "s", Type: rowcodec.Float64},
	})

	agg := &plan.AggregatePartial{
		GroupingFields:  1,
		Factory:         plan.ColumnAggregatorFactory(map[string]expr.Node{"s": expr.Column{Index: 1}}),
		AggregatorNames: []string{"s"},
		OutputDef:       out,
	}
	agg.SetInput(&plan.ValuesScan{Rows: rows})

	ec := plan.NewExecContext(a)
	cur, err := plan.Execute(ctx, agg, ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	result := drain(t, ctx, cur)
	if len(result) != 2 {
		t.Fatalf("expected 2 grouped rows, got %d", len(result))
	}
	r0, _, _ := result[0].GetString(0)
	s0, _ := result[0].GetFloat64(1)
	r1, _, _ := result[1].GetString(0)
	s1, _ := result[1].GetFloat64(1)
	if r0 != "E" || s0 != 30 || r1 != "W" || s1 != 5 {
		t.Fatalf("unexpected aggregate output: (%s,%v) (%s,%v)", r0, s0, r1, s1)
	}
}

// S5 — sort_InsertionLimited bounded top-2, descending by amount.
func TestSortInsertionLimitedTopK(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()

	def := orderDef()
	rt := orderType
	rows := []*rowcodec.Row{
		mustRow(t, def, []interface{}{int64(10)}, rt, hkey.New(hkey.IntSegment(1))),
		mustRow(t, def, []interface{}{int64(50)}, rt, hkey.New(hkey.IntSegment(2))),
		mustRow(t, def, []interface{}{int64(30)}, rt, hkey.New(hkey.IntSegment(3))),
		mustRow(t, def, []interface{}{int64(5)}, rt, hkey.New(hkey.IntSegment(4))),
	}

	sort := &plan.SortInsertionLimited{
		SortType: rt,
		Ordering: plan.Ordering{{Expr: expr.Column{Index: 0}, Dir: sorting.Descending}},
		Limit:    2,
	}
	sort.SetInput(&plan.ValuesScan{Rows: rows})

	ec := plan.NewExecContext(a)
	cur, err := plan.Execute(ctx, sort, ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := drain(t, ctx, cur)
	if len(out) != 2 {
		t.Fatalf("expected top-2, got %d rows", len(out))
	}
	first, _ := out[0].GetInt(0)
	second, _ := out[1].GetInt(0)
	if first != 50 || second != 30 {
		t.Fatalf("expected (50,30), got (%d,%d)", first, second)
	}
}

// closeSpyOp wraps an operator and records when the cursor it opened is
// closed.
type closeSpyOp struct {
	plan.Op
	closed *bool
}

func (s *closeSpyOp) Open(ctx context.Context, ec *plan.ExecContext) (plan.Cursor, error) {
	cur, err := s.Op.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &closeSpyCursor{Cursor: cur, closed: s.closed}, nil
}

type closeSpyCursor struct {
	plan.Cursor
	closed *bool
}

func (c *closeSpyCursor) Close() error {
	*c.closed = true
	return c.Cursor.Close()
}

// S6 — limit_Default closes its input no later than the n-th row.
func TestLimitClosesInput(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()

	def := orderDef()
	var rows []*rowcodec.Row
	for i := 1; i <= 10; i++ {
		rows = append(rows, mustRow(t, def, []interface{}{int64(i)}, orderType, hkey.New(hkey.IntSegment(int64(i)))))
	}

	inputClosed := false
	limit := &plan.LimitDefault{N: 3}
	limit.SetInput(&closeSpyOp{Op: &plan.ValuesScan{Rows: rows}, closed: &inputClosed})

	ec := plan.NewExecContext(a)
	cur, err := plan.Execute(ctx, limit, ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := cur.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	var out []*rowcodec.Row
	for {
		row, err := cur.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if row == nil {
			break
		}
		out = append(out, row)
		if len(out) == 3 && !inputClosed {
			t.Fatalf("input still open after the 3rd row")
		}
	}
	if err := cur.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected exactly 3 rows, got %d", len(out))
	}
}

// Operator law: count_Default emits exactly one count row per maximal
// run of its countType.
func TestCountDefaultOnePerRun(t *testing.T) {
	ctx := context.Background()
	a := memadapter.New()

	def := orderDef()
	other := hkey.TableType{Name: "other"}
	rows := []*rowcodec.Row{
		mustRow(t, def, []interface{}{int64(1)}, orderType, hkey.New(hkey.IntSegment(1))),
		mustRow(t, def, []interface{}{int64(2)}, orderType, hkey.New(hkey.IntSegment(2))),
		mustRow(t, regionDef(), []interface{}{"x"}, other, hkey.New(hkey.IntSegment(3))),
		mustRow(t, def, []interface{}{int64(3)}, orderType, hkey.New(hkey.IntSegment(4))),
	}

	countOut := rowcodec.NewRowDef([]rowcodec.FieldDef{{Name: "n", Type: rowcodec.Int64}})
	count := &plan.CountDefault{CountType: orderType, OutputDef: countOut}
	count.SetInput(&plan.ValuesScan{Rows: rows})

	ec := plan.NewExecContext(a)
	cur, err := plan.Execute(ctx, count, ec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := drain(t, ctx, cur)
	if len(out) != 3 {
		t.Fatalf("expected [count=2, other, count=1], got %d rows", len(out))
	}
	n0, _ := out[0].GetInt(0)
	if n0 != 2 {
		t.Fatalf("expected first run count 2, got %d", n0)
	}
	n2, _ := out[2].GetInt(0)
	if n2 != 1 {
		t.Fatalf("expected trailing run count 1, got %d", n2)
	}
}
