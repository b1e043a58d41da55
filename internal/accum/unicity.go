// Package accum implements the two cross-batch accumulators that rules
// cannot decide within a single batch: uniqueness detection and streaming
// summary statistics. Both are grounded on the original dataguard-core's
// engine/unicity_accumulator.rs and engine/stats_accumulator.rs, and reuse
// the xxh3 hashing library already in the teacher's go.mod
// (github.com/zeebo/xxh3, also used by rules/string.rs's IsInCheck).
package accum

import (
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"
)

// defaultShardCount is the minimum shard count when the caller does not
// specify one; spec.md §5 requires shard count >= worker count to bound
// contention.
const defaultShardCount = 32

type unicityShard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// UnicityAccumulator is a sharded concurrent set of canonicalized values,
// used to detect duplicates across all batches of a column. Unlike the
// original's DashSet<u64, Xxh3Builder> (which stores only the 64-bit hash
// and therefore risks false positives on hash collision), this
// implementation uses the hash only to pick a shard and stores the actual
// canonical bytes as the set key, so two distinct values can never be
// mistaken for duplicates.
type UnicityAccumulator struct {
	shards      []unicityShard
	duplicates  atomic.Uint64
	totalValues atomic.Uint64
}

// NewUnicityAccumulator creates an accumulator with at least
// defaultShardCount shards, or shardCount if larger.
func NewUnicityAccumulator(shardCount int) *UnicityAccumulator {
	if shardCount < defaultShardCount {
		shardCount = defaultShardCount
	}
	u := &UnicityAccumulator{shards: make([]unicityShard, shardCount)}
	for i := range u.shards {
		u.shards[i].seen = make(map[string]struct{})
	}
	return u
}

// InsertBatch records every non-null value in values (already canonicalized
// to bytes by the caller, one entry per row; nil entries are skipped as
// null) and returns the number of duplicate occurrences found in this
// batch. It is safe to call concurrently from multiple batch workers.
func (u *UnicityAccumulator) InsertBatch(values [][]byte) uint64 {
	var dup uint64
	for _, v := range values {
		if v == nil {
			continue
		}
		u.totalValues.Add(1)
		h := xxh3.Hash(v)
		shard := &u.shards[h%uint64(len(u.shards))]
		shard.mu.Lock()
		if _, exists := shard.seen[string(v)]; exists {
			dup++
			u.duplicates.Add(1)
		} else {
			shard.seen[string(v)] = struct{}{}
		}
		shard.mu.Unlock()
	}
	return dup
}

// encodeInt64 canonicalizes an int64 to its big-endian byte representation,
// matching the encoding used by internal/batchio for the same Arrow types.
func encodeInt64(v int64) []byte {
	buf := make([]byte, 8)
	u := uint64(v)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(u)
		u >>= 8
	}
	return buf
}

// Finalize returns the total number of duplicate occurrences observed
// across every InsertBatch call, the Unicity rule's violation count.
func (u *UnicityAccumulator) Finalize() uint64 {
	return u.duplicates.Load()
}

// TotalValues returns the total number of non-null values inserted, used
// to verify the unicity law: violations == total_non_null - distinct_non_null.
func (u *UnicityAccumulator) TotalValues() uint64 {
	return u.totalValues.Load()
}
