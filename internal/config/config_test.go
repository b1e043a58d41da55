package config

import (
	"context"
	"testing"

	"github.com/GrGLeo/dataguard/internal/batchio"
	"github.com/GrGLeo/dataguard/internal/column"
	"github.com/GrGLeo/dataguard/internal/compiler"
	"github.com/GrGLeo/dataguard/internal/reader"
	"github.com/GrGLeo/dataguard/internal/rules"
)

// -----------------------------------------------------------------------------
// Document decoding tests
// -----------------------------------------------------------------------------
//
// These tests validate that the top-level TOML structure decodes into the
// intended Go struct graph, and that BuildTableSpecs can turn a decoded
// document into column.TableSpec values the compiler consumes.

func TestParse_DecodeRoundTrip(t *testing.T) {
	t.Parallel()

	const doc = `
[[table]]
name = "orders"
path = "testdata/orders.csv"
format = "csv"

  [[table.column]]
  name = "order_id"
  datatype = "integer"

    [[table.column.rule]]
    name = "is_unique"
    threshold = 0.0

  [[table.column]]
  name = "email"
  datatype = "string"

    [[table.column.rule]]
    name = "string_char_class"
    class = "email"

  [[table.column]]
  name = "ship_date"
  datatype = "date"
  date_format = "%Y-%m-%d"

    [[table.column.rule]]
    name = "date_not_future"

  [[table.relation]]
  left = "order_id"
  right = "order_id"
  op = "<="
  kind = "numeric_compare"
  threshold = 0.0
`

	d, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.Table) != 1 {
		t.Fatalf("len(Table) = %d, want 1", len(d.Table))
	}

	tbl := d.Table[0]
	if tbl.Name != "orders" || tbl.Path != "testdata/orders.csv" || tbl.Format != "csv" {
		t.Fatalf("table decoded = %#v", tbl)
	}
	if len(tbl.Column) != 3 {
		t.Fatalf("len(Column) = %d, want 3", len(tbl.Column))
	}

	orderID := tbl.Column[0]
	if orderID.Name != "order_id" || orderID.Datatype != "integer" {
		t.Fatalf("column[0] = %#v", orderID)
	}
	if len(orderID.Rule) != 1 || orderID.Rule[0].Name != "is_unique" {
		t.Fatalf("column[0].rule = %#v", orderID.Rule)
	}

	email := tbl.Column[1]
	if len(email.Rule) != 1 || email.Rule[0].Class != "email" {
		t.Fatalf("column[1].rule = %#v", email.Rule)
	}

	shipDate := tbl.Column[2]
	if shipDate.DateFormat != "%Y-%m-%d" {
		t.Fatalf("column[2].date_format = %q, want %%Y-%%m-%%d", shipDate.DateFormat)
	}

	if len(tbl.Relation) != 1 {
		t.Fatalf("len(Relation) = %d, want 1", len(tbl.Relation))
	}
	rel := tbl.Relation[0]
	if rel.Left != "order_id" || rel.Op != "<=" || rel.Kind != "numeric_compare" {
		t.Fatalf("relation = %#v", rel)
	}
}

func TestParse_EmptyDocumentIsError(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(""))
	if err != ErrNoTables {
		t.Fatalf("Parse(empty) err = %v, want ErrNoTables", err)
	}
}

func TestBuildTableSpecs_Minimal(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Table: []Table{
			{
				Name:   "people",
				Path:   "testdata/people.csv",
				Format: "csv",
				Column: []Column{
					{Name: "id", Datatype: "integer", Rule: []RuleConfig{{Name: "is_unique"}}},
					{Name: "age", Datatype: "integer", Rule: []RuleConfig{
						{Name: "numeric_range", MinValue: floatPtr(0), MaxValue: floatPtr(130)},
					}},
				},
				Relation: []Relation{
					{Left: "id", Right: "age", Op: "<", Kind: "numeric_compare"},
				},
			},
		},
	}

	specs, err := BuildTableSpecs(doc)
	if err != nil {
		t.Fatalf("BuildTableSpecs: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("len(specs) = %d, want 1", len(specs))
	}
	spec := specs[0]
	if spec.Name != "people" || spec.Source == nil {
		t.Fatalf("spec = %#v", spec)
	}
	if len(spec.Columns) != 2 {
		t.Fatalf("len(Columns) = %d, want 2", len(spec.Columns))
	}
	if len(spec.Relations) != 1 {
		t.Fatalf("len(Relations) = %d, want 1", len(spec.Relations))
	}
}

func TestBuildTableSpecs_CopiesDateFormatIntoColumnSpec(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Table: []Table{
			{
				Name:   "orders",
				Path:   "testdata/orders.csv",
				Format: "csv",
				Column: []Column{
					{Name: "shipped_at", Datatype: "date", DateFormat: "%d/%m/%Y"},
				},
			},
		},
	}

	specs, err := BuildTableSpecs(doc)
	if err != nil {
		t.Fatalf("BuildTableSpecs: %v", err)
	}
	if got := specs[0].Columns[0].DateLayout; got != "%d/%m/%Y" {
		t.Fatalf("Columns[0].DateLayout = %q, want %%d/%%m/%%Y", got)
	}
}

func TestBuildTableSpecs_UnknownFormat(t *testing.T) {
	t.Parallel()

	doc := &Document{Table: []Table{{Name: "t", Path: "x", Format: "avro"}}}
	if _, err := BuildTableSpecs(doc); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestBuildTableSpecs_UnknownDatatype(t *testing.T) {
	t.Parallel()

	doc := &Document{Table: []Table{{
		Name: "t", Path: "x", Format: "csv",
		Column: []Column{{Name: "c", Datatype: "blob"}},
	}}}
	if _, err := BuildTableSpecs(doc); err == nil {
		t.Fatal("expected error for unknown datatype")
	}
}

func floatPtr(f float64) *float64 { return &f }

// fakeReader stands in for csvreader/parquetreader in tests that need a
// reader.Reader but never touch disk: package config has no reason to own
// a file-backed fixture just to exercise buildColumnRule's name lookup
// through to a real compiler.Compile call.
type fakeReader struct {
	schema []reader.ColumnSchema
}

func (f *fakeReader) Schema(context.Context) ([]reader.ColumnSchema, error) { return f.schema, nil }

func (f *fakeReader) Batches(context.Context, reader.BatchOptions) (<-chan batchio.Batch, <-chan error) {
	ch := make(chan batchio.Batch)
	errCh := make(chan error)
	close(ch)
	close(errCh)
	return ch, errCh
}

func (f *fakeReader) Replayable() bool { return true }

// TestBuildColumnRule_FriendlyNamesCompile locks in the regression the name
// lookup table exists to fix: every name spec.md §6 or this package's own
// doc comment documents (config.go's "is_unique" example in particular)
// must build into a ColumnRule that package compiler actually accepts,
// not just decode into a RuleConfig.
func TestBuildColumnRule_FriendlyNamesCompile(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		col        Column
		wantCompat bool // compiler.Compile should succeed
	}{
		{"is_unique", Column{Name: "id", Datatype: "integer", Rule: []RuleConfig{{Name: "is_unique"}}}, true},
		{"with_min_length", Column{Name: "name", Datatype: "string", Rule: []RuleConfig{{Name: "with_min_length", Min: intPtr(1)}}}, true},
		{"with_regex", Column{Name: "name", Datatype: "string", Rule: []RuleConfig{{Name: "with_regex", Pattern: ".*"}}}, true},
		{"between", Column{Name: "age", Datatype: "integer", Rule: []RuleConfig{{Name: "between", MinValue: floatPtr(0), MaxValue: floatPtr(120)}}}, true},
		{"is_monotonically_increasing", Column{Name: "seq", Datatype: "integer", Rule: []RuleConfig{{Name: "is_monotonically_increasing"}}}, true},
		{"is_not_null", Column{Name: "seq", Datatype: "integer", Rule: []RuleConfig{{Name: "is_not_null"}}}, true},
		{"unknown_rule_name", Column{Name: "seq", Datatype: "integer", Rule: []RuleConfig{{Name: "does_not_exist"}}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cs, err := buildColumnSpec(tc.col)
			if !tc.wantCompat {
				if err == nil {
					t.Fatalf("buildColumnSpec(%q): expected error, got spec %#v", tc.name, cs)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildColumnSpec(%q): %v", tc.name, err)
			}

			typ := datatypeByName[tc.col.Datatype]
			spec := column.TableSpec{
				Name:    "t",
				Source:  &fakeReader{schema: []reader.ColumnSchema{{Name: tc.col.Name, Typed: true, Type: typ}}},
				Columns: []column.ColumnSpec{cs},
			}
			if _, err := compiler.Compile(context.Background(), spec); err != nil {
				t.Fatalf("compiler.Compile(%q): %v", tc.name, err)
			}
		})
	}
}

// TestIsUniqueEndToEnd walks config.go's own documented TOML example
// through Parse -> BuildTableSpecs -> compiler.Compile, the exact pipeline
// a table definition goes through at runtime, asserting the "is_unique"
// rule that example names compiles into a Unicity executable rather than
// being rejected as IncompatibleRule.
func TestIsUniqueEndToEnd(t *testing.T) {
	const doc = `
[[table]]
name = "orders"
path = "orders.csv"
format = "csv"

  [[table.column]]
  name = "order_id"
  datatype = "integer"

    [[table.column.rule]]
    name = "is_unique"
`

	d, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	specs, err := BuildTableSpecs(d)
	if err != nil {
		t.Fatalf("BuildTableSpecs: %v", err)
	}
	spec := specs[0]
	// Swap in a schema-only fake so Compile never touches orders.csv.
	spec.Source = &fakeReader{schema: []reader.ColumnSchema{{Name: "order_id", Typed: true, Type: rules.Integer}}}

	p, err := compiler.Compile(context.Background(), spec)
	if err != nil {
		t.Fatalf("compiler.Compile: %v", err)
	}
	if !p.Columns[0].HasUnicity {
		t.Fatalf("Columns[0].HasUnicity = false, want true for the is_unique rule")
	}
}

func intPtr(i int) *int { return &i }
