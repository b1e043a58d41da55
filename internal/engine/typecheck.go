package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/GrGLeo/dataguard/internal/batchio"
	"github.com/GrGLeo/dataguard/internal/bitmap"
	"github.com/GrGLeo/dataguard/internal/rules"
)

// coerceColumn implements TypeCheck: it parses a string-array column into
// its declared type, recording one violation and one masked row position
// per unparseable value. Downstream rules see the returned typed array
// together with the mask and treat masked positions as "not evaluated",
// the same way they already treat null (spec.md §9, "masked typed array").
func coerceColumn(arr arrow.Array, declared rules.ColumnType, dateLayout string) (arrow.Array, uint64, *bitmap.Bitmap) {
	n := batchio.Len(arr)
	mask := bitmap.New(n - 1)

	if declared == rules.String {
		arr.Retain()
		return arr, 0, mask
	}

	var violations uint64
	pool := memory.NewGoAllocator()

	// TypeCheck only knows how to parse string-encoded values. A column
	// whose source array isn't *array.String at all (e.g. an unrecognized
	// Parquet logical type like Timestamp, left untouched by the reader's
	// canonicalization) can never be parsed: every non-null row is a
	// violation rather than a silently-skipped null.
	_, isStr := arr.(*array.String)

	switch declared {
	case rules.Integer:
		b := array.NewInt64Builder(pool)
		defer b.Release()
		for i := 0; i < n; i++ {
			if batchio.IsNull(arr, i) {
				b.AppendNull()
				continue
			}
			if !isStr {
				violations++
				mask.Add(i)
				b.AppendNull()
				continue
			}
			s, _ := batchio.StringAt(arr, i)
			v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				violations++
				mask.Add(i)
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
		return b.NewArray(), violations, mask

	case rules.Float:
		b := array.NewFloat64Builder(pool)
		defer b.Release()
		for i := 0; i < n; i++ {
			if batchio.IsNull(arr, i) {
				b.AppendNull()
				continue
			}
			if !isStr {
				violations++
				mask.Add(i)
				b.AppendNull()
				continue
			}
			s, _ := batchio.StringAt(arr, i)
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				violations++
				mask.Add(i)
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
		return b.NewArray(), violations, mask

	case rules.Date:
		goLayout := strftimeToGoLayout(dateLayout)
		b := array.NewDate32Builder(pool)
		defer b.Release()
		for i := 0; i < n; i++ {
			if batchio.IsNull(arr, i) {
				b.AppendNull()
				continue
			}
			if !isStr {
				violations++
				mask.Add(i)
				b.AppendNull()
				continue
			}
			s, _ := batchio.StringAt(arr, i)
			t, err := time.Parse(goLayout, strings.TrimSpace(s))
			if err != nil {
				violations++
				mask.Add(i)
				b.AppendNull()
				continue
			}
			b.Append(dateToDate32(t))
		}
		return b.NewArray(), violations, mask

	default:
		arr.Retain()
		return arr, 0, mask
	}
}

var strftimeDirectives = strings.NewReplacer(
	"%Y", "2006",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%M", "04",
	"%S", "05",
)

// strftimeToGoLayout converts the small subset of strftime directives the
// configuration schema's date_format field uses (spec.md §6) into a Go
// reference-time layout string.
func strftimeToGoLayout(format string) string {
	if format == "" {
		return "2006-01-02"
	}
	return strftimeDirectives.Replace(format)
}

// dateToDate32 converts a UTC midnight time.Time into days since the Unix
// epoch, the representation arrow.Date32 arrays use.
func dateToDate32(t time.Time) arrow.Date32 {
	days := t.UTC().Unix() / int64(24*time.Hour/time.Second)
	return arrow.Date32(days)
}
