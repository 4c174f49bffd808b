package plan

import (
	"context"

	"github.com/groveql/qengine/hkey"
	"github.com/groveql/qengine/rowcodec"
)

// Adapter is the storage-layer collaborator every operator tree is
// opened against (spec §6.4). All methods are synchronous; any failure
// is reported as *AdapterError. Implementations must be safe for
// concurrent use by independent cursor trees, but a single Adapter's
// Bindings belong to exactly one execution context (spec §5 "Shared
// resources").
type Adapter interface {
	// GroupCursor opens a scan of group in hkey order. start == nil
	// requests the "full" variant (spec groupScan_Default); a non-nil
	// start requests the "positional" variant, rooted at start, deep
	// controlling whether the whole subtree or only immediate children
	// are returned. limit is consulted by the returned cursor exactly
	// as groupScan_Default describes.
	GroupCursor(ctx context.Context, group string, start *hkey.HKey, deep bool, limit Limit) (Cursor, error)

	// IndexCursor opens a scan of index over the half-open range
	// [lo, hi), in index order (reverse order if requested).
	IndexCursor(ctx context.Context, index string, lo, hi hkey.HKey, reverse bool) (Cursor, error)

	// Lookup returns key's ancestors at the requested types, in
	// root-to-leaf order (ancestorLookup_Default/_Nested).
	Lookup(ctx context.Context, group string, key hkey.HKey, ancestorTypes []hkey.RowType) ([]*rowcodec.Row, error)

	// Branch opens a cursor over the entire subtree rooted at key
	// within group, in hkey order (branchLookup_Default/_Nested).
	Branch(ctx context.Context, group string, key hkey.HKey) (Cursor, error)

	WriteRow(ctx context.Context, row *rowcodec.Row) error
	UpdateRow(ctx context.Context, old, new *rowcodec.Row) error
	DeleteRow(ctx context.Context, row *rowcodec.Row) error

	// Bindings returns the binding set shared by this execution's
	// cursor tree.
	Bindings() *Bindings
}
