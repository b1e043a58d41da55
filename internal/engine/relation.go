package engine

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/GrGLeo/dataguard/internal/batchio"
	"github.com/GrGLeo/dataguard/internal/plan"
	"github.com/GrGLeo/dataguard/internal/rules"
)

// evaluateRelation runs one cross-column relation row-wise over a batch.
// Per spec.md §9(c), a row where either side is null counts as a
// violation (the spec's mandated choice for DateCompare; NumericCompare
// follows suit for consistency, per SPEC_FULL.md's Open Question
// decisions).
func evaluateRelation(rp plan.RelationPlan, left, right arrow.Array) uint64 {
	n := batchio.Len(left)
	var violations uint64

	for i := 0; i < n; i++ {
		var lv, rv float64
		var lok, rok bool

		switch rp.Kind {
		case rules.KindDateCompare:
			ld, ok := batchio.Date32At(left, i)
			lv, lok = float64(ld), ok
			rd, ok := batchio.Date32At(right, i)
			rv, rok = float64(rd), ok
		default: // KindNumericCompare
			lv, lok = batchio.NumericAt(left, i)
			rv, rok = batchio.NumericAt(right, i)
		}

		if !lok || !rok {
			violations++
			continue
		}
		if !holds(lv, rv, rp.Op) {
			violations++
		}
	}

	return violations
}

func holds(l, r float64, op rules.Op) bool {
	switch op {
	case rules.LT:
		return l < r
	case rules.LE:
		return l <= r
	case rules.EQ:
		return l == r
	case rules.GE:
		return l >= r
	case rules.GT:
		return l > r
	default:
		return false
	}
}
