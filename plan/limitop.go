package plan

import (
	"context"
	"fmt"

	"github.com/groveql/qengine/rowcodec"
)

// LimitDefault is limit_Default: forwards the first N rows, closing
// its input no later than emitting the N-th row (scenario S6).
type LimitDefault struct {
	Nonterminal
	N int
}

func (l *LimitDefault) String() string { return fmt.Sprintf("limit_Default(%d)", l.N) }

func (l *LimitDefault) Open(ctx context.Context, ec *ExecContext) (Cursor, error) {
	input, err := l.From.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &limitCursor{l: l, input: input}, nil
}

type limitCursor struct {
	closeGuard
	l     *LimitDefault
	input Cursor

	emitted      int
	inputClosed  bool
}

func (c *limitCursor) Open(ctx context.Context) error {
	if err := c.checkOpen("limit.Open"); err != nil {
		return err
	}
	c.opened = true
	return c.input.Open(ctx)
}

func (c *limitCursor) closeInput() error {
	if c.inputClosed {
		return nil
	}
	c.inputClosed = true
	return c.input.Close()
}

func (c *limitCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if err := c.checkOpen("limit.Next"); err != nil {
		return nil, err
	}
	if c.emitted >= c.l.N || c.inputClosed {
		return nil, nil
	}
	row, err := c.input.Next(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, c.closeInput()
	}
	c.emitted++
	if c.emitted == c.l.N {
		if err := c.closeInput(); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func (c *limitCursor) Close() error {
	if c.markClosed() {
		return nil
	}
	if c.opened {
		return c.closeInput()
	}
	return nil
}
