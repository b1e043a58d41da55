package accum

import (
	"math"
	"sync"
)

// StatsAccumulator maintains a running (count, mean, M2) triple via
// Welford's online algorithm and merges worker-local triples with Chan's
// parallel combine formula, letting each batch worker accumulate locally
// before a single lock-guarded merge at end-of-batch.
type StatsAccumulator struct {
	mu    sync.Mutex
	count uint64
	mean  float64
	m2    float64
}

// NewStatsAccumulator returns a fresh, empty accumulator.
func NewStatsAccumulator() *StatsAccumulator {
	return &StatsAccumulator{}
}

// LocalTriple accumulates Welford statistics for one batch without
// touching the shared accumulator, so batch workers never contend with
// each other until MergeLocal.
type LocalTriple struct {
	count uint64
	mean  float64
	m2    float64
}

// NewLocalTriple returns a fresh per-batch accumulator to feed to Update.
func NewLocalTriple() *LocalTriple {
	return &LocalTriple{}
}

// Update folds one non-null value into the local triple using Welford's
// algorithm.
func (l *LocalTriple) Update(x float64) {
	l.count++
	delta := x - l.mean
	l.mean += delta / float64(l.count)
	delta2 := x - l.mean
	l.m2 += delta * delta2
}

// MergeLocal combines a batch worker's local triple into the shared
// accumulator using Chan's parallel variance combination formula. Safe for
// concurrent callers.
func (s *StatsAccumulator) MergeLocal(l *LocalTriple) {
	if l.count == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		s.count, s.mean, s.m2 = l.count, l.mean, l.m2
		return
	}
	na, nb := float64(s.count), float64(l.count)
	delta := l.mean - s.mean
	total := na + nb
	newMean := s.mean + delta*nb/total
	newM2 := s.m2 + l.m2 + delta*delta*na*nb/total
	s.count += l.count
	s.mean = newMean
	s.m2 = newM2
}

// Finalize returns the accumulated mean, variance and standard deviation.
// With fewer than two observations, variance and stddev are reported as 0
// per spec.md §4.5.
func (s *StatsAccumulator) Finalize() (mean, variance, stddev float64, count uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count < 2 {
		return s.mean, 0, 0, s.count
	}
	variance = s.m2 / float64(s.count)
	return s.mean, variance, math.Sqrt(variance), s.count
}
