package csvreader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/GrGLeo/dataguard/internal/batchio"
	"github.com/GrGLeo/dataguard/internal/reader"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return p
}

func TestSchema_ReportsUntypedColumns(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "id,name,age\n1,alice,30\n2,bob,25\n")
	r := New(path)

	schema, err := r.Schema(context.Background())
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if len(schema) != 3 {
		t.Fatalf("len(schema) = %d, want 3", len(schema))
	}
	wantNames := []string{"id", "name", "age"}
	for i, want := range wantNames {
		if schema[i].Name != want {
			t.Fatalf("schema[%d].Name = %q, want %q", i, schema[i].Name, want)
		}
		if schema[i].Typed {
			t.Fatalf("schema[%d].Typed = true, want false (CSV is always untyped)", i)
		}
	}
}

func TestSchema_EmptyFileErrors(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "")
	r := New(path)

	if _, err := r.Schema(context.Background()); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestSchema_MissingFileErrors(t *testing.T) {
	t.Parallel()

	r := New(filepath.Join(t.TempDir(), "missing.csv"))
	if _, err := r.Schema(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBatches_StreamsAllRowsAsStringColumns(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "id,name\n1,alice\n2,bob\n3,carol\n")
	r := New(path)

	batchCh, errCh := r.Batches(context.Background(), reader.BatchOptions{BatchSize: 2})

	var totalRows int64
	for b := range batchCh {
		totalRows += b.RowCount()
		col, ok := b.Column("name")
		if !ok {
			t.Fatalf("expected column %q present", "name")
		}
		if _, ok := batchio.CanonicalBytes(col, 0); !ok {
			t.Fatalf("expected column %q to produce canonical string bytes", "name")
		}
		b.Release()
	}
	if err, ok := <-errCh; ok && err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totalRows != 3 {
		t.Fatalf("totalRows = %d, want 3", totalRows)
	}
}

func TestBatches_NullFieldsBecomeNullValues(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "id,note\n1,\n2,hello\n")
	r := New(path)

	batchCh, errCh := r.Batches(context.Background(), reader.BatchOptions{BatchSize: 2})

	var sawNull bool
	for b := range batchCh {
		col, _ := b.Column("note")
		if col.IsNull(0) {
			sawNull = true
		}
		b.Release()
	}
	if err, ok := <-errCh; ok && err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sawNull {
		t.Fatal("expected the empty note field to decode as null")
	}
}

func TestBatches_MissingFileSendsError(t *testing.T) {
	t.Parallel()

	r := New(filepath.Join(t.TempDir(), "missing.csv"))
	batchCh, errCh := r.Batches(context.Background(), reader.BatchOptions{BatchSize: 2})

	for range batchCh {
		t.Fatal("expected no batches for a missing file")
	}
	if err, ok := <-errCh; !ok || err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestReplayable_IsAlwaysTrue(t *testing.T) {
	t.Parallel()

	if !New("any.csv").Replayable() {
		t.Fatal("csvreader.Reader.Replayable() should always be true")
	}
}
