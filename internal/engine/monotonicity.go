package engine

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/GrGLeo/dataguard/internal/batchio"
	"github.com/GrGLeo/dataguard/internal/bitmap"
	"github.com/GrGLeo/dataguard/internal/rules"
)

// monoBatchResult is one batch's contribution to a Monotonicity rule: the
// first and last non-null, non-masked values seen in input order, the
// violation count for pairs entirely within this batch, and whether the
// batch contained any eligible value at all. Reducing these triples in
// StartRow order (monotonicity.go's reduceMonotonicity) reproduces the
// same verdict a single-threaded pass over the whole column would produce
// (spec.md §5, "deterministic reduction").
type monoBatchResult struct {
	startRow int64
	first    float64
	last     float64
	hasAny   bool
	internal uint64
}

// computeMonotonicity scans one batch's array for a Monotonicity rule,
// returning its monoBatchResult. Values are compared as float64 regardless
// of declared type (Integer, Float or Date-as-day-number): Go's IEEE-754
// float64 has 53 bits of exact integer precision, so the ordering among
// magnitudes realistic for row counts and calendar day numbers is exact.
func computeMonotonicity(arr arrow.Array, typ rules.ColumnType, mask *bitmap.Bitmap, ascending, strict bool) monoBatchResult {
	n := batchio.Len(arr)
	var res monoBatchResult
	havePrev := false
	var prev float64

	valueAt := func(i int) (float64, bool) {
		if mask.Has(i) {
			return 0, false
		}
		if typ == rules.Date {
			d, ok := batchio.Date32At(arr, i)
			return float64(d), ok
		}
		return batchio.NumericAt(arr, i)
	}

	for i := 0; i < n; i++ {
		v, ok := valueAt(i)
		if !ok {
			continue
		}
		if !res.hasAny {
			res.first = v
			res.hasAny = true
		}
		res.last = v
		if havePrev && violatesOrder(prev, v, ascending, strict) {
			res.internal++
		}
		prev = v
		havePrev = true
	}

	return res
}

func violatesOrder(prev, curr float64, ascending, strict bool) bool {
	if ascending {
		if strict {
			return curr <= prev
		}
		return curr < prev
	}
	if strict {
		return curr >= prev
	}
	return curr > prev
}

// reduceMonotonicity folds a column's per-batch results, already sorted by
// startRow, into the total violation count, adding one cross-batch
// violation for every adjacent pair of batches whose boundary values
// violate the order.
func reduceMonotonicity(results []monoBatchResult, ascending, strict bool) uint64 {
	var total uint64
	havePrev := false
	var prevLast float64

	for _, r := range results {
		total += r.internal
		if !r.hasAny {
			continue
		}
		if havePrev && violatesOrder(prevLast, r.first, ascending, strict) {
			total++
		}
		prevLast = r.last
		havePrev = true
	}

	return total
}
