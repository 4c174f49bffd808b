package plan

import (
	"context"

	"github.com/groveql/qengine/rowcodec"
)

// Cursor is the uniform pull interface every operator's execution
// produces (C6, spec §6.3): single-threaded cooperative, one method in
// flight at a time. Next returns (nil, nil) at end of stream, which is
// sticky — a Cursor must keep returning (nil, nil) on every subsequent
// Next. Close is idempotent; calling any method after Close returns
// *CursorClosed.
type Cursor interface {
	Open(ctx context.Context) error
	Next(ctx context.Context) (*rowcodec.Row, error)
	Close() error
}

// closeGuard gives an operator's cursor idempotent Close and the
// CursorClosed check for free; embed it and call guard.checkOpen
// from Open/Next and guard.markClosed from Close.
type closeGuard struct {
	opened bool
	ended  bool
	closed bool
}

func (g *closeGuard) checkOpen(op string) error {
	if g.closed {
		return &CursorClosed{Op: op}
	}
	return nil
}

func (g *closeGuard) markClosed() bool {
	was := g.closed
	g.closed = true
	return was
}
