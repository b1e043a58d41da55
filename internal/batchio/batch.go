// Package batchio defines the columnar batch representation that readers
// produce and the engine consumes: a thin wrapper over an Arrow record
// (github.com/apache/arrow-go/v18), the same columnar representation the
// original dataguard-core used (arrow::record_batch::RecordBatch). Arrow
// gives every column a typed, contiguous array with a free null bitmap,
// matching the batch contract of a typed array plus null mask per column.
package batchio

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Batch is one slice of rows, columnar, with its absolute starting row
// index in the overall input — required for row-order-sensitive rules
// (Monotonicity) to reduce across batches deterministically.
type Batch struct {
	Record   arrow.Record
	StartRow int64
}

// RowCount returns the number of rows in this batch.
func (b Batch) RowCount() int64 {
	if b.Record == nil {
		return 0
	}
	return b.Record.NumRows()
}

// Column returns the named column's array, or false if the batch's schema
// has no column with that name.
func (b Batch) Column(name string) (arrow.Array, bool) {
	schema := b.Record.Schema()
	idxs := schema.FieldIndices(name)
	if len(idxs) == 0 {
		return nil, false
	}
	return b.Record.Column(idxs[0]), true
}

// Release releases the underlying Arrow record's buffers.
func (b Batch) Release() {
	if b.Record != nil {
		b.Record.Release()
	}
}

// MustColumn returns the named column's array, panicking if absent. Used
// internally once the engine has already validated the schema at compile
// time.
func MustColumn(b Batch, name string) arrow.Array {
	arr, ok := b.Column(name)
	if !ok {
		panic(fmt.Sprintf("batchio: column %q not present in batch", name))
	}
	return arr
}
