package plan

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/groveql/qengine/compr"
	"github.com/groveql/qengine/expr"
	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/rowcodec"
	"github.com/groveql/qengine/sorting"
)

// OrderColumn is one column of a sort ordering: an expression to
// evaluate against each row, a direction, and a nulls placement.
type OrderColumn struct {
	Expr  expr.Node
	Dir   sorting.Direction
	Nulls sorting.NullsOrder
}

// Ordering is a lexicographic ordering over a vector of OrderColumns.
type Ordering []OrderColumn

// less reports whether a sorts strictly before b under o.
func (o Ordering) less(a, b *rowcodec.Row) bool {
	for _, col := range o {
		av, aerr := col.Expr.Eval(fieldGetter(a))
		bv, berr := col.Expr.Eval(fieldGetter(b))
		if aerr != nil || berr != nil {
			continue
		}
		if av.IsNull() || bv.IsNull() {
			if av.IsNull() == bv.IsNull() {
				continue
			}
			if col.Nulls == sorting.NullsFirst {
				return av.IsNull()
			}
			return bv.IsNull()
		}
		c := expr.Compare(av, bv)
		if c == 0 {
			continue
		}
		if col.Dir == sorting.Descending {
			return c > 0
		}
		return c < 0
	}
	return false
}

// SortInsertionLimited is sort_InsertionLimited: a bounded-memory top-N
// sort. Rows whose type isn't SortType bypass the sort and are emitted
// after the sorted batch, in arrival order (spec §4.2 implementation
// note).
type SortInsertionLimited struct {
	Nonterminal
	SortType hkey.RowType
	Ordering Ordering
	Limit    int
}

func (s *SortInsertionLimited) String() string {
	return fmt.Sprintf("sort_InsertionLimited(%s, %d)", s.SortType, s.Limit)
}

func (s *SortInsertionLimited) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	input, err := s.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &sortLimitedCursor{s: s, input: input}, nil
}

// ktop is an indirect binary heap over up to Limit rows, keyed by
// Ordering: it indirects through a []int so reordering the heap never
// copies a full record. It holds the max-under-ordering at the root so that a
// better-than-worst incoming row can evict it in O(log limit).
type ktop struct {
	ordering Ordering
	limit    int
	rows     []*rowcodec.Row
	indirect []int
}

func (k *ktop) Len() int { return len(k.indirect) }
func (k *ktop) Less(i, j int) bool {
	// heap root is the worst (largest under ordering) kept row, so
	// "less" here means "ranks worse", inverted from Ordering.less.
	return k.ordering.less(k.rows[k.indirect[j]], k.rows[k.indirect[i]])
}
func (k *ktop) Swap(i, j int) { k.indirect[i], k.indirect[j] = k.indirect[j], k.indirect[i] }
func (k *ktop) Push(x interface{}) { k.indirect = append(k.indirect, x.(int)) }
func (k *ktop) Pop() interface{} {
	n := len(k.indirect)
	v := k.indirect[n-1]
	k.indirect = k.indirect[:n-1]
	return v
}

func (k *ktop) add(row *rowcodec.Row) {
	if len(k.indirect) < k.limit {
		k.rows = append(k.rows, row)
		heap.Push(k, len(k.rows)-1)
		return
	}
	worst := k.rows[k.indirect[0]]
	if k.ordering.less(row, worst) {
		k.rows[k.indirect[0]] = row
		heap.Fix(k, 0)
	}
}

// sorted drains the heap into ascending-by-Ordering order (best first).
func (k *ktop) sorted() []*rowcodec.Row {
	out := make([]*rowcodec.Row, len(k.indirect))
	for i := len(out) - 1; i >= 0; i-- {
		idx := heap.Pop(k).(int)
		out[i] = k.rows[idx]
	}
	return out
}

type sortLimitedCursor struct {
	closeGuard
	s     *SortInsertionLimited
	input Cursor

	out    []*rowcodec.Row
	bypass []*rowcodec.Row
	pos    int
	drained bool
}

func (c *sortLimitedCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("sort.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.input.Open(ctx)
}

func (c *sortLimitedCursor) drain(ctx context.Context) error {
	if c.drained {
		return nil
	}
	k := &ktop{ordering: c.s.Ordering, limit: c.s.Limit}
	for {
		row, err := c.input.Next(ctx)
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		if row.RowType != nil && row.RowType.Equal(c.s.SortType) {
			k.add(row)
		} else {
			c.bypass = append(c.bypass, row)
		}
	}
	c.out = k.sorted()
	c.drained = true
	return nil
}

func (c *sortLimitedCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("sort.Next"); err != nil {
		return nil, err
	}
	if err := c.drain(ctx); err != nil {
		return nil, err
	}
	if c.pos < len(c.out) {
		row := c.out[c.pos]
		c.pos++
		return row, nil
	}
	bi := c.pos - len(c.out)
	if bi < len(c.bypass) {
		c.pos++
		return c.bypass[bi], nil
	}
	return nil, nil
}

func (c *sortLimitedCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	if c.opened {
		return c.input.Close()
	}
	return nil
}

// SortTree is the unbounded sort_Tree variant: it accumulates every
// matching row (spilling older batches through compr once the resident
// set crosses spillThreshold, rather than holding all rows
// uncompressed) and emits them fully ordered once input is drained.
type SortTree struct {
	Nonterminal
	SortType hkey.RowType
	Ordering Ordering

	// SpillThreshold overrides the default resident-row count at which
	// a batch is compressed and spilled; zero means defaultSpillThreshold.
	// A caller can set this from engine.Config's SortSpillThreshold.
	SpillThreshold int

	// SpillCodec names the compr codec used for spilled batches ("s2"
	// or "zstd"); empty means "s2". A caller can set this from
	// engine.Config's SpillCompression.
	SpillCodec string
}

func (s *SortTree) String() string { return fmt.Sprintf("sort_Tree(%s)", s.SortType) }

const defaultSpillThreshold = 4096 // resident rows before a batch is compressed

func (s *SortTree) spillThreshold() int {
	if s.SpillThreshold > 0 {
		return s.SpillThreshold
	}
	return defaultSpillThreshold
}

func (s *SortTree) spillCodec() string {
	if s.SpillCodec != "" {
		return s.SpillCodec
	}
	return "s2"
}

func (s *SortTree) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	input, err := s.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &sortTreeCursor{s: s, input: input}, nil
}

type spilledBatch struct {
	compressed []byte
	rawLen     int
	rowCount   int
	def        *rowcodec.RowDef
	codec      string
}

type sortTreeCursor struct {
	closeGuard
	s     *SortTree
	input Cursor

	resident []*rowcodec.Row
	spilled  []spilledBatch
	bypass   []*rowcodec.Row

	out     []*rowcodec.Row
	pos     int
	drained bool
}

func (c *sortTreeCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("sortTree.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.input.Open(ctx)
}

func (c *sortTreeCursor) spill() {
	if len(c.resident) == 0 {
		return
	}
	var raw []byte
	for _, row := range c.resident {
		raw = append(raw, row.Bytes()...)
	}
	codec := c.s.spillCodec()
	comp := compr.Compression(codec)
	compressed := comp.Compress(raw, nil)
	c.spilled = append(c.spilled, spilledBatch{
		compressed: compressed,
		rawLen:     len(raw),
		rowCount:   len(c.resident),
		def:        c.resident[0].Def,
		codec:      codec,
	})
	c.resident = nil
}

func (c *sortTreeCursor) unspill(b spilledBatch) ([]*rowcodec.Row, error) {
	decomp := compr.Decompression(b.codec)
	out := make([]byte, b.rawLen)
	if err := decomp.Decompress(b.compressed, out); err != nil {
		return nil, err
	}
	rows := make([]*rowcodec.Row, 0, b.rowCount)
	offset := 0
	for offset < len(out) {
		row, ok, err := rowcodec.Parse(b.def, out, offset, true)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rows = append(rows, row)
		offset = offset + len(row.Bytes())
	}
	return rows, nil
}

func (c *sortTreeCursor) drain(ctx context.Context) error {
	if c.drained {
		return nil
	}
	for {
		row, err := c.input.Next(ctx)
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		if row.RowType != nil && row.RowType.Equal(c.s.SortType) {
			c.resident = append(c.resident, row)
			if len(c.resident) >= c.s.spillThreshold() {
				c.spill()
			}
		} else {
			c.bypass = append(c.bypass, row)
		}
	}

	all := append([]*rowcodec.Row(nil), c.resident...)
	for _, b := range c.spilled {
		rows, err := c.unspill(b)
		if err != nil {
			return err
		}
		all = append(all, rows...)
	}
	sortRows(all, c.s.Ordering)
	c.out = all
	c.drained = true
	return nil
}

func (c *sortTreeCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("sortTree.Next"); err != nil {
		return nil, err
	}
	if err := c.drain(ctx); err != nil {
		return nil, err
	}
	if c.pos < len(c.out) {
		row := c.out[c.pos]
		c.pos++
		return row, nil
	}
	bi := c.pos - len(c.out)
	if bi < len(c.bypass) {
		c.pos++
		return c.bypass[bi], nil
	}
	return nil, nil
}

func (c *sortTreeCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	if c.opened {
		return c.input.Close()
	}
	return nil
}

// sortRows insertion-sorts rows by ordering; callers only ever sort a
// single drained batch, so simplicity wins over asymptotic complexity.
func sortRows(rows []*rowcodec.Row, ordering Ordering) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && ordering.less(rows[j], rows[j-1]); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}
