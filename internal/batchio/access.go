package batchio

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Len returns the number of logical positions (including nulls) in arr.
func Len(arr arrow.Array) int {
	return arr.Len()
}

// IsNull reports whether position i holds a null value.
func IsNull(arr arrow.Array, i int) bool {
	return arr.IsNull(i)
}

// StringAt returns the string value at position i and whether it is
// non-null. Only valid for arrow.BinaryTypes.String arrays.
func StringAt(arr arrow.Array, i int) (string, bool) {
	s, ok := arr.(*array.String)
	if !ok || s.IsNull(i) {
		return "", false
	}
	return s.Value(i), true
}

// NumericAt returns the numeric value at position i as a float64 and
// whether it is non-null. Accepts Int64 or Float64 arrays, the two
// underlying representations for ColumnType Integer and Float.
func NumericAt(arr arrow.Array, i int) (float64, bool) {
	switch a := arr.(type) {
	case *array.Int64:
		if a.IsNull(i) {
			return 0, false
		}
		return float64(a.Value(i)), true
	case *array.Float64:
		if a.IsNull(i) {
			return 0, false
		}
		return a.Value(i), true
	default:
		return 0, false
	}
}

// Int64At returns the raw int64 value at position i, for columns known to
// be backed by an Int64 array.
func Int64At(arr arrow.Array, i int) (int64, bool) {
	a, ok := arr.(*array.Int64)
	if !ok || a.IsNull(i) {
		return 0, false
	}
	return a.Value(i), true
}

// Float64At returns the raw float64 value at position i, for columns known
// to be backed by a Float64 array.
func Float64At(arr arrow.Array, i int) (float64, bool) {
	a, ok := arr.(*array.Float64)
	if !ok || a.IsNull(i) {
		return 0, false
	}
	return a.Value(i), true
}

// Date32At returns the day-number (days since the Unix epoch) at position
// i, for columns backed by a Date32 array.
func Date32At(arr arrow.Array, i int) (arrow.Date32, bool) {
	a, ok := arr.(*array.Date32)
	if !ok || a.IsNull(i) {
		return 0, false
	}
	return a.Value(i), true
}

// CanonicalBytes returns the canonicalized byte encoding of the value at
// position i used for uniqueness hashing: strings as UTF-8 bytes, integers
// and date day-numbers as fixed-width big-endian encodings, floats with
// NaN and signed zero canonicalized per spec (all NaNs equal, -0.0 = +0.0).
// Returns false for null positions.
func CanonicalBytes(arr arrow.Array, i int) ([]byte, bool) {
	switch a := arr.(type) {
	case *array.String:
		if a.IsNull(i) {
			return nil, false
		}
		return []byte(a.Value(i)), true
	case *array.Int64:
		if a.IsNull(i) {
			return nil, false
		}
		return encodeInt64(a.Value(i)), true
	case *array.Float64:
		if a.IsNull(i) {
			return nil, false
		}
		return encodeFloat64(a.Value(i)), true
	case *array.Date32:
		if a.IsNull(i) {
			return nil, false
		}
		return encodeInt64(int64(a.Value(i))), true
	default:
		return nil, false
	}
}

func encodeInt64(v int64) []byte {
	buf := make([]byte, 8)
	u := uint64(v)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(u)
		u >>= 8
	}
	return buf
}

func encodeFloat64(v float64) []byte {
	if math.IsNaN(v) {
		v = math.NaN() // canonical NaN bit pattern
	} else if v == 0 {
		v = 0 // folds -0.0 into +0.0
	}
	bits := math.Float64bits(v)
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(bits)
		bits >>= 8
	}
	return buf
}
