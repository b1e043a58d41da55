// Package reader defines the contract between a data source and the
// validation engine: a reader exposes a schema and a finite sequence of
// columnar batches, matching spec.md §6's "Reader contract" exactly. The
// core only ever depends on this interface; concrete readers
// (internal/reader/csvreader, internal/reader/parquetreader) are external
// collaborators per spec.md §1.
package reader

import (
	"context"

	"github.com/GrGLeo/dataguard/internal/batchio"
	"github.com/GrGLeo/dataguard/internal/rules"
)

// ColumnSchema describes one column as the source sees it: its name and
// whether the source already provides a native typed array (Parquet) or
// only an untyped string array (CSV) that requires TypeCheck.
type ColumnSchema struct {
	Name  string
	Typed bool
	Type  rules.ColumnType
}

// BatchOptions configures how a reader slices its input into batches.
type BatchOptions struct {
	// BatchSize is the target number of rows per batch. Readers may choose
	// a different actual size (e.g. row-group boundaries for Parquet) but
	// should treat this as a hint.
	BatchSize int
}

// Reader is the contract every data source collaborator implements.
type Reader interface {
	// Schema returns the column list as the source understands it. It may
	// require opening the source (e.g. reading a CSV header or a Parquet
	// footer) and therefore can fail.
	Schema(ctx context.Context) ([]ColumnSchema, error)

	// Batches streams the source as a sequence of columnar batches on the
	// returned channel, in input row order, closing it when exhausted. Any
	// read failure is sent on the error channel and both channels are then
	// closed. Batches sent on the data channel become the caller's
	// responsibility to Release.
	Batches(ctx context.Context, opts BatchOptions) (<-chan batchio.Batch, <-chan error)

	// Replayable reports whether Batches can be called again from the
	// beginning of the same source — required for streaming-stat rules to
	// avoid buffering (spec.md §5 "Memory").
	Replayable() bool
}
