package column

import "github.com/GrGLeo/dataguard/internal/rules"

// StringColumnBuilder assembles rules for a String column.
type StringColumnBuilder struct{ builder }

// StringColumn starts a new String column builder.
func StringColumn(name string) *StringColumnBuilder {
	b := &StringColumnBuilder{}
	b.spec = ColumnSpec{Name: name, Type: rules.String}
	return b
}

// WithMinLength sets a lower bound (inclusive, code-point count) on string
// length.
func (b *StringColumnBuilder) WithMinLength(min int, threshold float64) *StringColumnBuilder {
	b.mergeLength(&min, nil, threshold)
	return b
}

// WithMaxLength sets an upper bound (inclusive, code-point count) on string
// length.
func (b *StringColumnBuilder) WithMaxLength(max int, threshold float64) *StringColumnBuilder {
	b.mergeLength(nil, &max, threshold)
	return b
}

// WithLengthRange sets both bounds in one call.
func (b *StringColumnBuilder) WithLengthRange(min, max int, threshold float64) *StringColumnBuilder {
	b.mergeLength(&min, &max, threshold)
	return b
}

func (b *StringColumnBuilder) mergeLength(min, max *int, threshold float64) {
	b.push(rules.ColumnRule{Kind: rules.KindStringLength, MinLen: min, MaxLen: max, Threshold: threshold})
}

// WithRegex appends a full-match regex rule. flags is passed through to the
// compiler as-is (e.g. "i" for case-insensitive); validated at compile time.
func (b *StringColumnBuilder) WithRegex(pattern, flags string, threshold float64) *StringColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindStringRegex, Pattern: pattern, Flags: flags, Threshold: threshold})
	return b
}

// IsInSet appends an exact-match-against-a-finite-set rule.
func (b *StringColumnBuilder) IsInSet(values []string, threshold float64) *StringColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindStringInSet, Values: values, Threshold: threshold})
	return b
}

// IsCharClass appends a fixed-predicate character class rule.
func (b *StringColumnBuilder) IsCharClass(class rules.CharClass, threshold float64) *StringColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindStringCharClass, Class: class, Threshold: threshold})
	return b
}

// IsNotNull appends a NullCheck rule.
func (b *StringColumnBuilder) IsNotNull(threshold float64) *StringColumnBuilder {
	b.isNotNull(threshold)
	return b
}

// IsUnique appends a Unicity rule.
func (b *StringColumnBuilder) IsUnique(threshold float64) *StringColumnBuilder {
	b.isUnique(threshold)
	return b
}

// Build freezes the builder into a ColumnSpec.
func (b *StringColumnBuilder) Build() ColumnSpec { return b.build() }
