// Package column assembles per-column rule lists through a typed fluent
// builder, grounded on the original dataguard-core's columns/*.rs
// (StringColumnBuilder, NumericColumnBuilder<T>, DateColumnBuilder) and on
// the teacher ETL's own builder-ish config assembly in
// internal/transformer/transformer.go (compile-once-then-freeze pattern).
// Builder methods never fail: every parameter is recorded as-is and
// validated later by package compiler, keeping the builder chain
// infallible and side-effect-free per spec.md §4.2.
package column

import (
	"github.com/GrGLeo/dataguard/internal/reader"
	"github.com/GrGLeo/dataguard/internal/rules"
)

// ColumnSpec is the frozen result of a builder chain: a column's declared
// type plus the ordered list of rules to compile against it.
type ColumnSpec struct {
	Name string
	Type rules.ColumnType
	// DateLayout is the configured strftime-style format string for Date
	// columns (spec.md §6 date_format); unused for every other type.
	DateLayout string
	Rules      []rules.ColumnRule
}

// TableSpec names a table, its source reader, its columns and any
// cross-column relations, matching spec.md §3's TableSpec exactly.
type TableSpec struct {
	Name      string
	Source    reader.Reader
	Columns   []ColumnSpec
	Relations []rules.RelationRule
}

// builder is the shared append-only state behind every typed builder
// variant.
type builder struct {
	spec ColumnSpec
}

func (b *builder) push(r rules.ColumnRule) {
	b.spec.Rules = append(b.spec.Rules, r)
}

// IsNotNull appends a NullCheck rule, applicable to every column type.
func (b *builder) isNotNull(threshold float64) {
	b.push(rules.ColumnRule{Kind: rules.KindNullCheck, Threshold: threshold})
}

// IsUnique appends a Unicity rule, applicable to every column type.
func (b *builder) isUnique(threshold float64) {
	b.push(rules.ColumnRule{Kind: rules.KindUnicity, Threshold: threshold})
}

// Build freezes the builder into an immutable ColumnSpec. Builder methods
// remain usable afterwards (they just keep appending to the same backing
// slice); callers should treat the returned spec as owned from here on.
func (b *builder) build() ColumnSpec {
	return b.spec
}
