package column

import "github.com/GrGLeo/dataguard/internal/rules"

// IntegerColumnBuilder assembles rules for an Integer column.
type IntegerColumnBuilder struct{ builder }

// IntegerColumn starts a new Integer column builder.
func IntegerColumn(name string) *IntegerColumnBuilder {
	b := &IntegerColumnBuilder{}
	b.spec = ColumnSpec{Name: name, Type: rules.Integer}
	return b
}

// FloatColumnBuilder assembles rules for a Float column.
type FloatColumnBuilder struct{ builder }

// FloatColumn starts a new Float column builder.
func FloatColumn(name string) *FloatColumnBuilder {
	b := &FloatColumnBuilder{}
	b.spec = ColumnSpec{Name: name, Type: rules.Float}
	return b
}

// Between appends an inclusive NumericRange rule.
func (b *IntegerColumnBuilder) Between(min, max float64, threshold float64) *IntegerColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindNumericRange, MinNum: &min, MaxNum: &max, Threshold: threshold})
	return b
}

// AtLeast appends a lower-bound-only NumericRange rule.
func (b *IntegerColumnBuilder) AtLeast(min float64, threshold float64) *IntegerColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindNumericRange, MinNum: &min, Threshold: threshold})
	return b
}

// AtMost appends an upper-bound-only NumericRange rule.
func (b *IntegerColumnBuilder) AtMost(max float64, threshold float64) *IntegerColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindNumericRange, MaxNum: &max, Threshold: threshold})
	return b
}

// IsMonotonicallyIncreasing appends a Monotonicity rule in the ascending
// direction.
func (b *IntegerColumnBuilder) IsMonotonicallyIncreasing(strict bool, threshold float64) *IntegerColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindMonotonicity, Ascending: true, Strict: strict, Threshold: threshold})
	return b
}

// IsMonotonicallyDecreasing appends a Monotonicity rule in the descending
// direction.
func (b *IntegerColumnBuilder) IsMonotonicallyDecreasing(strict bool, threshold float64) *IntegerColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindMonotonicity, Ascending: false, Strict: strict, Threshold: threshold})
	return b
}

// WithMaxStdDev appends a StdDevCheck rule.
func (b *IntegerColumnBuilder) WithMaxStdDev(maxStdDev float64, threshold float64) *IntegerColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindStdDevCheck, MaxStdDev: maxStdDev, Threshold: threshold})
	return b
}

// WithMaxVariancePercent appends a MeanVariance rule.
func (b *IntegerColumnBuilder) WithMaxVariancePercent(maxVariancePercent float64, threshold float64) *IntegerColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindMeanVariance, MaxVariancePercent: maxVariancePercent, Threshold: threshold})
	return b
}

// IsNotNull appends a NullCheck rule.
func (b *IntegerColumnBuilder) IsNotNull(threshold float64) *IntegerColumnBuilder {
	b.isNotNull(threshold)
	return b
}

// IsUnique appends a Unicity rule.
func (b *IntegerColumnBuilder) IsUnique(threshold float64) *IntegerColumnBuilder {
	b.isUnique(threshold)
	return b
}

// Build freezes the builder into a ColumnSpec.
func (b *IntegerColumnBuilder) Build() ColumnSpec { return b.build() }

// Between appends an inclusive NumericRange rule.
func (b *FloatColumnBuilder) Between(min, max float64, threshold float64) *FloatColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindNumericRange, MinNum: &min, MaxNum: &max, Threshold: threshold})
	return b
}

// AtLeast appends a lower-bound-only NumericRange rule.
func (b *FloatColumnBuilder) AtLeast(min float64, threshold float64) *FloatColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindNumericRange, MinNum: &min, Threshold: threshold})
	return b
}

// AtMost appends an upper-bound-only NumericRange rule.
func (b *FloatColumnBuilder) AtMost(max float64, threshold float64) *FloatColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindNumericRange, MaxNum: &max, Threshold: threshold})
	return b
}

// IsMonotonicallyIncreasing appends a Monotonicity rule in the ascending
// direction.
func (b *FloatColumnBuilder) IsMonotonicallyIncreasing(strict bool, threshold float64) *FloatColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindMonotonicity, Ascending: true, Strict: strict, Threshold: threshold})
	return b
}

// IsMonotonicallyDecreasing appends a Monotonicity rule in the descending
// direction.
func (b *FloatColumnBuilder) IsMonotonicallyDecreasing(strict bool, threshold float64) *FloatColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindMonotonicity, Ascending: false, Strict: strict, Threshold: threshold})
	return b
}

// WithMaxStdDev appends a StdDevCheck rule.
func (b *FloatColumnBuilder) WithMaxStdDev(maxStdDev float64, threshold float64) *FloatColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindStdDevCheck, MaxStdDev: maxStdDev, Threshold: threshold})
	return b
}

// WithMaxVariancePercent appends a MeanVariance rule.
func (b *FloatColumnBuilder) WithMaxVariancePercent(maxVariancePercent float64, threshold float64) *FloatColumnBuilder {
	b.push(rules.ColumnRule{Kind: rules.KindMeanVariance, MaxVariancePercent: maxVariancePercent, Threshold: threshold})
	return b
}

// IsNotNull appends a NullCheck rule.
func (b *FloatColumnBuilder) IsNotNull(threshold float64) *FloatColumnBuilder {
	b.isNotNull(threshold)
	return b
}

// IsUnique appends a Unicity rule.
func (b *FloatColumnBuilder) IsUnique(threshold float64) *FloatColumnBuilder {
	b.isUnique(threshold)
	return b
}

// Build freezes the builder into a ColumnSpec.
func (b *FloatColumnBuilder) Build() ColumnSpec { return b.build() }
