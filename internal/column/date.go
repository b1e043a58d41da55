package column

import "github.com/GrGLeo/dataguard/internal/rules"

// DateColumnBuilder assembles rules for a Date column.
type DateColumnBuilder struct{ builder }

// DateColumn starts a new Date column builder.
func DateColumn(name string) *DateColumnBuilder {
	b := &DateColumnBuilder{}
	b.spec = ColumnSpec{Name: name, Type: rules.Date}
	return b
}

// Before appends a DateBefore rule. month/day default to January/1 when
// omitted, resolved finally by the compiler.
func (b *DateColumnBuilder) Before(year int, month, day *int, threshold float64) *DateColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindDateBefore, Year: year, Month: month, Day: day, Threshold: threshold})
	return b
}

// After appends a DateAfter rule.
func (b *DateColumnBuilder) After(year int, month, day *int, threshold float64) *DateColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindDateAfter, Year: year, Month: month, Day: day, Threshold: threshold})
	return b
}

// IsNotFuture appends a DateNotFuture rule (relative to the engine's today
// input).
func (b *DateColumnBuilder) IsNotFuture(threshold float64) *DateColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindDateNotFuture, Threshold: threshold})
	return b
}

// IsNotPast appends a DateNotPast rule.
func (b *DateColumnBuilder) IsNotPast(threshold float64) *DateColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindDateNotPast, Threshold: threshold})
	return b
}

// IsWeekday appends a DateWeekday rule (ISO Monday-Friday).
func (b *DateColumnBuilder) IsWeekday(threshold float64) *DateColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindDateWeekday, Threshold: threshold})
	return b
}

// IsWeekend appends a DateWeekend rule (ISO Saturday-Sunday).
func (b *DateColumnBuilder) IsWeekend(threshold float64) *DateColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindDateWeekend, Threshold: threshold})
	return b
}

// IsMonotonicallyIncreasing appends a Monotonicity rule.
func (b *DateColumnBuilder) IsMonotonicallyIncreasing(strict bool, threshold float64) *DateColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindMonotonicity, Ascending: true, Strict: strict, Threshold: threshold})
	return b
}

// IsMonotonicallyDecreasing appends a Monotonicity rule.
func (b *DateColumnBuilder) IsMonotonicallyDecreasing(strict bool, threshold float64) *DateColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindMonotonicity, Ascending: false, Strict: strict, Threshold: threshold})
	return b
}

// WithDateLayout sets the strftime-style format (spec.md §6 date_format)
// TypeCheck parses this column's string values against. Unset columns fall
// back to ISO "%Y-%m-%d".
func (b *DateColumnBuilder) WithDateLayout(layout string) *DateColumnBuilder {
	b.spec.DateLayout = layout
	return b
}

// IsNotNull appends a NullCheck rule.
func (b *DateColumnBuilder) IsNotNull(threshold float64) *DateColumnBuilder {
	b.isNotNull(threshold)
	return b
}

// IsUnique appends a Unicity rule.
func (b *DateColumnBuilder) IsUnique(threshold float64) *DateColumnBuilder {
	b.isUnique(threshold)
	return b
}

// Build freezes the builder into a ColumnSpec.
func (b *DateColumnBuilder) Build() ColumnSpec { return b.build() }
