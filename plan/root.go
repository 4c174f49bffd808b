package plan

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/groveql/qengine/rowcodec"
)

// NewExecContext builds an ExecContext for one execution of an operator
// tree, stamping it with a fresh correlation ID in ID. The ID is not
// passed to the Adapter's methods and is not recorded in AdapterError.
func NewExecContext(adapter Adapter) *ExecContext {
	return &ExecContext{Adapter: adapter, ID: uuid.NewString()}
}

// Execute opens root under ec and returns the root cursor wrapped in a
// guard that (spec §4.2 "Root cursor"):
//   - forwards Open/Next/Close to the underlying cursor,
//   - ensures Close runs exactly once even if the caller calls it
//     more than once or never calls it after an error,
//   - converts any error propagating out of Next into a Close
//     followed by rethrowing the original error.
func Execute(ctx context.Context, root Op, ec *ExecContext) (Cursor, error) {
	cur, err := root.Open(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &rootCursor{inner: cur}, nil
}

type rootCursor struct {
	inner  Cursor
	closed bool
}

func (r *rootCursor) Open(ctx context.Context) error {
	if r.closed {
		return &CursorClosed{Op: "root.Open"}
	}
	return r.inner.Open(ctx)
}

func (r *rootCursor) Next(ctx context.Context) (*rowcodec.Row, error) {
	if r.closed {
		return nil, &CursorClosed{Op: "root.Next"}
	}
	row, err := r.inner.Next(ctx)
	if err != nil {
		if cerr := r.Close(); cerr != nil {
			return nil, fmt.Errorf("%w (close during error unwind also failed: %v)", err, cerr)
		}
		return nil, err
	}
	return row, nil
}

func (r *rootCursor) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.inner.Close()
}
