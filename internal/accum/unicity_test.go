package accum

import (
	"sync"
	"testing"
)

func TestUnicityAccumulatorSingleBatch(t *testing.T) {
	u := NewUnicityAccumulator(4)
	values := [][]byte{[]byte("a"), []byte("b"), []byte("a"), nil, []byte("a")}
	dup := u.InsertBatch(values)
	if dup != 2 {
		t.Fatalf("dup = %d, want 2", dup)
	}
	if u.Finalize() != 2 {
		t.Fatalf("Finalize() = %d, want 2", u.Finalize())
	}
	if u.TotalValues() != 4 {
		t.Fatalf("TotalValues() = %d, want 4 (null skipped)", u.TotalValues())
	}
}

func TestUnicityAccumulatorS2Batched(t *testing.T) {
	// spec.md S2: id batched as [[1,2,3],[2,4,1],[5]], expect 2 duplicates.
	u := NewUnicityAccumulator(4)
	batches := [][]int64{{1, 2, 3}, {2, 4, 1}, {5}}
	var total uint64
	for _, b := range batches {
		vals := make([][]byte, len(b))
		for i, v := range b {
			vals[i] = encodeInt64(v)
		}
		total += u.InsertBatch(vals)
	}
	if total != 2 {
		t.Fatalf("duplicates = %d, want 2", total)
	}
}

func TestUnicityAccumulatorConcurrent(t *testing.T) {
	u := NewUnicityAccumulator(8)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			vals := make([][]byte, 10)
			for i := range vals {
				vals[i] = encodeInt64(int64(i)) // every worker inserts 0..9
			}
			u.InsertBatch(vals)
		}(w)
	}
	wg.Wait()
	// 10 distinct values, 8 insertions each => 80 total, 70 duplicates.
	if u.TotalValues() != 80 {
		t.Fatalf("TotalValues() = %d, want 80", u.TotalValues())
	}
	if u.Finalize() != 70 {
		t.Fatalf("Finalize() = %d, want 70", u.Finalize())
	}
}
