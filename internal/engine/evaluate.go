package engine

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/GrGLeo/dataguard/internal/batchio"
	"github.com/GrGLeo/dataguard/internal/bitmap"
	"github.com/GrGLeo/dataguard/internal/plan"
	"github.com/GrGLeo/dataguard/internal/rules"
)

const secondsPerDay = int64(24 * time.Hour / time.Second)

// evaluateDomain runs one batch-local domain rule against arr, skipping
// masked (TypeCheck-rejected) and null positions per spec.md §4.4's
// null-skip contract. Monotonicity is handled separately (monotonicity.go)
// since its verdict spans batch boundaries.
func evaluateDomain(de plan.DomainExecutable, arr arrow.Array, mask *bitmap.Bitmap, today arrow.Date32) uint64 {
	n := batchio.Len(arr)
	var violations uint64

	switch de.Kind {
	case rules.KindStringLength:
		for i := 0; i < n; i++ {
			if mask.Has(i) {
				continue
			}
			s, ok := batchio.StringAt(arr, i)
			if !ok {
				continue
			}
			length := utf8.RuneCountInString(s)
			if (de.MinLen != nil && length < *de.MinLen) || (de.MaxLen != nil && length > *de.MaxLen) {
				violations++
			}
		}

	case rules.KindStringRegex:
		for i := 0; i < n; i++ {
			if mask.Has(i) {
				continue
			}
			s, ok := batchio.StringAt(arr, i)
			if !ok {
				continue
			}
			if !de.Regex.MatchString(s) {
				violations++
			}
		}

	case rules.KindStringInSet:
		for i := 0; i < n; i++ {
			if mask.Has(i) {
				continue
			}
			s, ok := batchio.StringAt(arr, i)
			if !ok {
				continue
			}
			if _, in := de.Set[s]; !in {
				violations++
			}
		}

	case rules.KindStringCharClass:
		for i := 0; i < n; i++ {
			if mask.Has(i) {
				continue
			}
			s, ok := batchio.StringAt(arr, i)
			if !ok {
				continue
			}
			if !rules.MatchesCharClass(de.Class, s) {
				violations++
			}
		}

	case rules.KindNumericRange:
		for i := 0; i < n; i++ {
			if mask.Has(i) {
				continue
			}
			v, ok := batchio.NumericAt(arr, i)
			if !ok {
				continue
			}
			if math.IsNaN(v) {
				violations++
				continue
			}
			if (de.MinNum != nil && v < *de.MinNum) || (de.MaxNum != nil && v > *de.MaxNum) {
				violations++
			}
		}

	case rules.KindDateBefore, rules.KindDateAfter:
		for i := 0; i < n; i++ {
			if mask.Has(i) {
				continue
			}
			v, ok := batchio.Date32At(arr, i)
			if !ok {
				continue
			}
			if de.After {
				if v <= de.BoundaryDays {
					violations++
				}
			} else {
				if v >= de.BoundaryDays {
					violations++
				}
			}
		}

	case rules.KindDateNotFuture, rules.KindDateNotPast:
		for i := 0; i < n; i++ {
			if mask.Has(i) {
				continue
			}
			v, ok := batchio.Date32At(arr, i)
			if !ok {
				continue
			}
			if de.After { // DateNotPast
				if v < today {
					violations++
				}
			} else { // DateNotFuture
				if v > today {
					violations++
				}
			}
		}

	case rules.KindDateWeekday, rules.KindDateWeekend:
		for i := 0; i < n; i++ {
			if mask.Has(i) {
				continue
			}
			v, ok := batchio.Date32At(arr, i)
			if !ok {
				continue
			}
			weekend := isWeekend(v)
			if de.IsWeek {
				if weekend {
					violations++
				}
			} else {
				if !weekend {
					violations++
				}
			}
		}
	}

	return violations
}

func isWeekend(d arrow.Date32) bool {
	wd := time.Unix(int64(d)*secondsPerDay, 0).UTC().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// countNulls counts unmasked null positions in arr, the NullCheck rule's
// evaluator.
func countNulls(arr arrow.Array, mask *bitmap.Bitmap) uint64 {
	var count uint64
	n := batchio.Len(arr)
	for i := 0; i < n; i++ {
		if mask.Has(i) {
			continue
		}
		if batchio.IsNull(arr, i) {
			count++
		}
	}
	return count
}
