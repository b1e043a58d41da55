// Package csvreader implements the reader.Reader contract over a local CSV
// file using github.com/apache/arrow-go/v18/arrow/csv, which parses
// directly into arrow.Record batches. Every column is declared
// arrow.BinaryTypes.String since CSV is untyped (spec.md §6): the engine
// inserts TypeCheck to coerce into each column's declared type. File
// opening is delegated to internal/datasource, grounded on the teacher's
// internal/datasource/file/local_source.go (context-aware local file
// opening); CSV decoding itself generalizes internal/parser/csv/stream.go
// from a line-oriented parser to an Arrow-backed one.
package csvreader

import (
	"context"
	encodingcsv "encoding/csv"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"

	"github.com/GrGLeo/dataguard/internal/batchio"
	"github.com/GrGLeo/dataguard/internal/datasource"
	"github.com/GrGLeo/dataguard/internal/datasource/file"
	"github.com/GrGLeo/dataguard/internal/reader"
)

// Reader reads a local CSV file, one header row followed by data rows,
// into string-typed batches.
type Reader struct {
	Path   string
	source datasource.Source
}

// New returns a CSV reader for the file at path.
func New(path string) *Reader {
	return &Reader{Path: path, source: file.NewLocal(path)}
}

// Schema opens the file just long enough to read its header row and
// reports every column as untyped (string), requiring TypeCheck downstream.
func (r *Reader) Schema(ctx context.Context) ([]reader.ColumnSchema, error) {
	f, err := r.source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("csvreader: opening %s: %w", r.Path, err)
	}
	defer f.Close()

	names, err := peekHeader(f)
	if err != nil {
		return nil, fmt.Errorf("csvreader: reading header of %s: %w", r.Path, err)
	}

	out := make([]reader.ColumnSchema, len(names))
	for i, name := range names {
		out[i] = reader.ColumnSchema{Name: name, Typed: false}
	}
	return out, nil
}

// Batches streams the file as a sequence of string-column batches. Each
// call reopens the file from the start, which is what makes this reader
// replayable.
func (r *Reader) Batches(ctx context.Context, opts reader.BatchOptions) (<-chan batchio.Batch, <-chan error) {
	out := make(chan batchio.Batch)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		f, err := r.source.Open(ctx)
		if err != nil {
			errs <- fmt.Errorf("csvreader: opening %s: %w", r.Path, err)
			return
		}
		defer f.Close()

		names, err := peekHeader(f)
		if err != nil {
			errs <- fmt.Errorf("csvreader: reading header of %s: %w", r.Path, err)
			return
		}

		// peekHeader's buffered reader may have consumed past the header, so
		// the body is read through a fresh handle (Arrow skips the header).
		body, err := r.source.Open(ctx)
		if err != nil {
			errs <- fmt.Errorf("csvreader: opening %s: %w", r.Path, err)
			return
		}
		defer body.Close()

		fields := make([]arrow.Field, len(names))
		for i, name := range names {
			fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
		}
		schema := arrow.NewSchema(fields, nil)

		chunk := opts.BatchSize
		if chunk <= 0 {
			chunk = 8192
		}

		csvReader := csv.NewReader(
			body,
			schema,
			csv.WithHeader(true),
			csv.WithChunk(chunk),
			csv.WithNullReader(true, ""),
		)
		defer csvReader.Release()

		var startRow int64
		for csvReader.Next() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			rec := csvReader.Record()
			rec.Retain()
			b := batchio.Batch{Record: rec, StartRow: startRow}
			startRow += rec.NumRows()

			select {
			case out <- b:
			case <-ctx.Done():
				rec.Release()
				return
			}
		}

		if err := csvReader.Err(); err != nil {
			errs <- fmt.Errorf("csvreader: reading %s: %w", r.Path, err)
		}
	}()

	return out, errs
}

// Replayable is always true: Batches reopens the file from the start on
// every call.
func (r *Reader) Replayable() bool { return true }

// peekHeader reads and parses the first line of f (currently positioned at
// the start) as a CSV header using the standard library's csv reader, so
// column names are known before the Arrow schema (which needs them) can be
// built. Callers that need the record body afterwards should reopen the
// file, as Schema and Batches both do.
func peekHeader(f io.Reader) ([]string, error) {
	r := encodingcsv.NewReader(f)
	names, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, err
	}
	return names, nil
}
