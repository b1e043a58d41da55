// Package plan defines the compiled, immutable form the engine executes:
// per-column ordered executable chains with their prepared artefacts
// (compiled regex, hash sets, numeric bounds), produced by package
// compiler from a column.TableSpec. Grounded on the original
// dataguard-core's compiler/mod.rs, which emits exactly this
// TypeCheck -> NullCheck -> domain rules -> Unicity ordering (spec.md §4.3).
package plan

import (
	"regexp"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/GrGLeo/dataguard/internal/rules"
)

// DomainExecutable is one batch-local, per-value rule ready to run against
// a column's array. Stat-based rules (StdDevCheck, MeanVariance) are
// represented separately as StatExecutable since they need a finalized
// cross-batch accumulator before they can be evaluated.
type DomainExecutable struct {
	Kind      rules.Kind
	Threshold float64

	// StringLength
	MinLen *int
	MaxLen *int

	// StringRegex
	Regex *regexp.Regexp

	// StringInSet
	Set map[string]struct{}

	// StringCharClass
	Class rules.CharClass

	// NumericRange
	MinNum *float64
	MaxNum *float64

	// Monotonicity
	Ascending bool
	Strict    bool

	// Date boundary / weekday rules: BoundaryDays is days since the Unix
	// epoch for DateBefore/DateAfter; After distinguishes the two; IsWeek
	// distinguishes DateWeekday (true) from DateWeekend (false), mirroring
	// the original's shared DateBoundaryCheck/WeekDayCheck comparators.
	BoundaryDays arrow.Date32
	After        bool
	IsWeek       bool
}

// StatExecutable is a per-value rule whose verdict depends on a finalized
// cross-batch statistic, evaluated in the engine's second pass once
// StatsAccumulator.Finalize has run.
type StatExecutable struct {
	Kind               rules.Kind
	Threshold          float64
	MaxStdDev          float64
	MaxVariancePercent float64
}

// ColumnPlan is the compiled executable chain for one column.
type ColumnPlan struct {
	Name string
	Type rules.ColumnType

	// NeedTypeCheck is true when the source yields untyped (string)
	// arrays for this column and a TypeCheck must run before any
	// downstream rule (spec.md §4.3 step 2).
	NeedTypeCheck   bool
	TypeCheckThresh float64
	DateLayout      string // only meaningful when Type == rules.Date

	HasNullCheck  bool
	NullThreshold float64

	Domain []DomainExecutable

	HasUnicity       bool
	UnicityThreshold float64

	Stats []StatExecutable
}

// RelationPlan is the compiled form of a RelationRule: column names
// resolved into plan positions is left to the engine (it looks columns up
// by name in the batch directly), matching the low cardinality of
// relations per table.
type RelationPlan struct {
	Kind      rules.Kind
	Left      string
	Right     string
	Op        rules.Op
	Threshold float64
}

// ExecutablePlan is the compiled, immutable form of a TableSpec, ready for
// repeated use across multiple Engine.Validate calls (spec.md §3
// "Lifecycle").
type ExecutablePlan struct {
	TableName string
	Columns   []ColumnPlan
	Relations []RelationPlan
}
