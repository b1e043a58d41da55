// Package engine executes a compiled plan.ExecutablePlan against a reader,
// dispatching per-batch work across a bounded worker pool and merging
// partial results into shared accumulators, grounded on the original
// dataguard-core's engine/validation_engine.rs and on the teacher ETL's
// own worker/counter style (internal/storage/loader.go's atomic counters,
// cmd/etl/pipeline_test.go's table-driven harness).
package engine

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/GrGLeo/dataguard/internal/accum"
	"github.com/GrGLeo/dataguard/internal/batchio"
	"github.com/GrGLeo/dataguard/internal/bitmap"
	"github.com/GrGLeo/dataguard/internal/metrics"
	"github.com/GrGLeo/dataguard/internal/plan"
	"github.com/GrGLeo/dataguard/internal/reader"
	"github.com/GrGLeo/dataguard/internal/report"
	"github.com/GrGLeo/dataguard/internal/rules"
)

// Engine executes plans. The zero value is ready to use: Workers defaults
// to runtime.GOMAXPROCS(0) and Today defaults to the current UTC date at
// the moment Validate is called.
type Engine struct {
	// Workers bounds batch-level parallelism (spec.md §5). Zero means use
	// runtime.GOMAXPROCS(0).
	Workers int

	// BatchSize is the hint passed to the reader (spec.md §6's BatchOptions).
	// Zero means use a 8192-row default.
	BatchSize int

	// Today, if non-zero, fixes the reference date for DateNotFuture /
	// DateNotPast, useful for deterministic tests. Zero means "now".
	Today arrow.Date32
}

func (e *Engine) today() arrow.Date32 {
	if e.Today != 0 {
		return e.Today
	}
	return dateToDate32(time.Now().UTC())
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (e *Engine) batchSize() int {
	if e.BatchSize > 0 {
		return e.BatchSize
	}
	return 8192
}

type partialKey struct {
	column string
	kind   rules.Kind
	// ordinal distinguishes multiple rules of the same kind on one column
	// (spec.md §4.2 explicitly allows duplicate rule kinds).
	ordinal int
}

// columnState carries the engine's per-column cross-batch bookkeeping for
// one Validate call.
type columnState struct {
	unicity   *accum.UnicityAccumulator
	stats     map[int]*accum.StatsAccumulator // keyed by Stats slice index
	monoMu    sync.Mutex
	monoByIdx map[int][]monoBatchResult // keyed by Domain slice index
}

// Validate runs p against src, returning the finished report or a typed
// error (ReadError, EvaluationError, or ErrCancelled).
func (e *Engine) Validate(ctx context.Context, p *plan.ExecutablePlan, src reader.Reader) (*report.Report, error) {
	start := time.Now()

	states := make(map[string]*columnState, len(p.Columns))
	partials := make(map[partialKey]*atomic.Uint64)

	for _, cp := range p.Columns {
		cs := &columnState{monoByIdx: make(map[int][]monoBatchResult)}
		if cp.NeedTypeCheck {
			partials[partialKey{cp.Name, rules.KindTypeCheck, 0}] = &atomic.Uint64{}
		}
		if cp.HasNullCheck {
			partials[partialKey{cp.Name, rules.KindNullCheck, 0}] = &atomic.Uint64{}
		}
		if cp.HasUnicity {
			cs.unicity = accum.NewUnicityAccumulator(e.workers())
			partials[partialKey{cp.Name, rules.KindUnicity, 0}] = &atomic.Uint64{}
		}
		for i, de := range cp.Domain {
			partials[partialKey{cp.Name, de.Kind, i}] = &atomic.Uint64{}
		}
		if len(cp.Stats) > 0 {
			cs.stats = make(map[int]*accum.StatsAccumulator, len(cp.Stats))
			for i, se := range cp.Stats {
				cs.stats[i] = accum.NewStatsAccumulator()
				partials[partialKey{cp.Name, se.Kind, i}] = &atomic.Uint64{}
			}
		}
		states[cp.Name] = cs
	}
	for i, rp := range p.Relations {
		partials[partialKey{rp.Left + "|" + rp.Right, rp.Kind, i}] = &atomic.Uint64{}
	}

	needsPass2 := false
	for _, cp := range p.Columns {
		if len(cp.Stats) > 0 {
			needsPass2 = true
			break
		}
	}

	// A reader that cannot replay its source (e.g. an in-memory stream with
	// no seek) forces the engine to hold onto pass 1's batches itself so
	// pass 2 has something to re-scan (spec.md §5). Readers that can
	// replay, like csvreader and parquetreader which both reopen the file,
	// never pay this memory cost.
	replayable := src.Replayable()
	var buf *batchBuffer
	if needsPass2 && !replayable {
		buf = &batchBuffer{}
		// On any early return (pass 1 error, cancellation) release whatever
		// got buffered; on the success path pass 2 has already drained it,
		// so this is a no-op.
		defer func() {
			for _, b := range buf.drain() {
				b.Release()
			}
		}()
	}

	var totalRows atomic.Int64
	var totalBatches atomic.Int64

	if err := e.runPass1(ctx, p, src, states, partials, &totalRows, &totalBatches, buf); err != nil {
		return nil, err
	}

	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	// Finalize cross-batch accumulators.
	for _, cp := range p.Columns {
		cs := states[cp.Name]
		if cp.HasUnicity {
			partials[partialKey{cp.Name, rules.KindUnicity, 0}].Add(cs.unicity.Finalize())
		}
		for i, de := range cp.Domain {
			if de.Kind != rules.KindMonotonicity {
				continue
			}
			results := cs.monoByIdx[i]
			sort.Slice(results, func(a, b int) bool { return results[a].startRow < results[b].startRow })
			total := reduceMonotonicity(results, de.Ascending, de.Strict)
			partials[partialKey{cp.Name, de.Kind, i}].Store(total)
		}
	}

	if needsPass2 {
		var err error
		if replayable {
			err = e.runPass2(ctx, p, src, states, partials)
		} else {
			err = e.runPass2Buffered(ctx, p, buf.drain(), states, partials)
		}
		if err != nil {
			return nil, err
		}
	}

	metrics.RecordStep(p.TableName, "validate", nil, time.Since(start))
	metrics.RecordBatches(p.TableName, totalBatches.Load())
	metrics.RecordRows(p.TableName, "validated", totalRows.Load())

	return buildReport(p, partials, uint64(totalRows.Load())), nil
}

func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
		return nil
	}
}

func (e *Engine) runPass1(
	ctx context.Context,
	p *plan.ExecutablePlan,
	src reader.Reader,
	states map[string]*columnState,
	partials map[partialKey]*atomic.Uint64,
	totalRows, totalBatches *atomic.Int64,
	buf *batchBuffer,
) error {
	batchCh, errCh := src.Batches(ctx, reader.BatchOptions{BatchSize: e.batchSize()})
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(e.workers()))

	for batchCh != nil || errCh != nil {
		select {
		case b, ok := <-batchCh:
			if !ok {
				batchCh = nil
				continue
			}
			if err := checkCancel(gctx); err != nil {
				b.Release()
				return err
			}
			if err := sem.Acquire(gctx, 1); err != nil {
				b.Release()
				break
			}
			totalRows.Add(b.RowCount())
			totalBatches.Add(1)
			if buf != nil {
				buf.retain(b)
			}
			g.Go(func() error {
				defer sem.Release(1)
				return e.processBatch(p, b, states, partials, e.today())
			})

		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return &ReadError{Err: err}
			}

		case <-gctx.Done():
			return g.Wait()
		}
	}

	return g.Wait()
}

// batchBuffer retains pass 1's batches for a reader that cannot replay its
// source, so pass 2 can re-scan them without a second call to
// reader.Reader.Batches. Each retained batch holds its own Arrow record
// reference; processBatch's ordinary Release during pass 1 only drops the
// reference it already owned.
type batchBuffer struct {
	mu      sync.Mutex
	batches []batchio.Batch
}

func (bb *batchBuffer) retain(b batchio.Batch) {
	if b.Record != nil {
		b.Record.Retain()
	}
	bb.mu.Lock()
	bb.batches = append(bb.batches, b)
	bb.mu.Unlock()
}

// drain returns the buffered batches, clearing the buffer. Ownership of the
// retained Arrow record references passes to the caller, which must
// Release each one.
func (bb *batchBuffer) drain() []batchio.Batch {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	out := bb.batches
	bb.batches = nil
	return out
}

func (e *Engine) processBatch(
	p *plan.ExecutablePlan,
	b batchio.Batch,
	states map[string]*columnState,
	partials map[partialKey]*atomic.Uint64,
	today arrow.Date32,
) error {
	defer b.Release()

	typed := make(map[string]arrow.Array, len(p.Columns))

	for _, cp := range p.Columns {
		arr, ok := b.Column(cp.Name)
		if !ok {
			return &EvaluationError{Column: cp.Name, Rule: "lookup", Err: errColumnMissing}
		}

		var mask *bitmap.Bitmap
		workArr := arr
		if cp.NeedTypeCheck {
			coerced, violations, m := coerceColumn(arr, cp.Type, cp.DateLayout)
			defer coerced.Release()
			partials[partialKey{cp.Name, rules.KindTypeCheck, 0}].Add(violations)
			workArr, mask = coerced, m
		} else {
			mask = bitmap.New(batchio.Len(arr) - 1)
		}
		typed[cp.Name] = workArr

		cs := states[cp.Name]

		if cp.HasNullCheck {
			partials[partialKey{cp.Name, rules.KindNullCheck, 0}].Add(countNulls(workArr, mask))
		}

		for i, de := range cp.Domain {
			if de.Kind == rules.KindMonotonicity {
				res := computeMonotonicity(workArr, cp.Type, mask, de.Ascending, de.Strict)
				res.startRow = b.StartRow
				cs.monoMu.Lock()
				cs.monoByIdx[i] = append(cs.monoByIdx[i], res)
				cs.monoMu.Unlock()
				continue
			}
			partials[partialKey{cp.Name, de.Kind, i}].Add(evaluateDomain(de, workArr, mask, today))
		}

		for i := range cp.Stats {
			local := accum.NewLocalTriple()
			n := batchio.Len(workArr)
			for row := 0; row < n; row++ {
				if mask.Has(row) {
					continue
				}
				v, ok := batchio.NumericAt(workArr, row)
				if !ok {
					continue
				}
				local.Update(v)
			}
			cs.stats[i].MergeLocal(local)
		}

		if cp.HasUnicity {
			n := batchio.Len(workArr)
			values := make([][]byte, n)
			for row := 0; row < n; row++ {
				if mask.Has(row) {
					continue
				}
				if canon, ok := batchio.CanonicalBytes(workArr, row); ok {
					values[row] = canon
				}
			}
			cs.unicity.InsertBatch(values)
		}
	}

	for i, rp := range p.Relations {
		left := typed[rp.Left]
		right := typed[rp.Right]
		v := evaluateRelation(rp, left, right)
		partials[partialKey{rp.Left + "|" + rp.Right, rp.Kind, i}].Add(v)
	}

	return nil
}

// finalizeStats reads each stats rule's finished accumulator into a plain
// mean/stddev snapshot, shared by both the replayable and buffered pass 2
// paths.
func (e *Engine) finalizeStats(p *plan.ExecutablePlan, states map[string]*columnState) map[string]map[int]finalStats {
	finals := make(map[string]map[int]finalStats)
	for _, cp := range p.Columns {
		if len(cp.Stats) == 0 {
			continue
		}
		cs := states[cp.Name]
		perRule := make(map[int]finalStats, len(cp.Stats))
		for i := range cp.Stats {
			mean, _, stddev, _ := cs.stats[i].Finalize()
			perRule[i] = finalStats{mean: mean, stddev: stddev}
		}
		finals[cp.Name] = perRule
	}
	return finals
}

// runPass2 re-scans the source (requesting a fresh batch stream from a
// replayable reader) to evaluate StdDevCheck / MeanVariance against the
// now-finalized per-column statistics (spec.md §4.4).
func (e *Engine) runPass2(
	ctx context.Context,
	p *plan.ExecutablePlan,
	src reader.Reader,
	states map[string]*columnState,
	partials map[partialKey]*atomic.Uint64,
) error {
	finals := e.finalizeStats(p, states)

	batchCh, errCh := src.Batches(ctx, reader.BatchOptions{BatchSize: e.batchSize()})
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(e.workers()))

	for batchCh != nil || errCh != nil {
		select {
		case b, ok := <-batchCh:
			if !ok {
				batchCh = nil
				continue
			}
			if err := checkCancel(gctx); err != nil {
				b.Release()
				return err
			}
			if err := sem.Acquire(gctx, 1); err != nil {
				b.Release()
				break
			}
			g.Go(func() error {
				defer sem.Release(1)
				return e.processStatsBatch(p, b, finals, partials)
			})

		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return &ReadError{Err: err}
			}

		case <-gctx.Done():
			return g.Wait()
		}
	}

	return g.Wait()
}

// runPass2Buffered re-scans batches the engine retained during pass 1,
// for a reader whose Replayable() returned false (spec.md §5). It mirrors
// runPass2's worker-pool shape but iterates a slice instead of reading from
// a fresh reader.Reader.Batches channel.
func (e *Engine) runPass2Buffered(
	ctx context.Context,
	p *plan.ExecutablePlan,
	batches []batchio.Batch,
	states map[string]*columnState,
	partials map[partialKey]*atomic.Uint64,
) error {
	finals := e.finalizeStats(p, states)

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(e.workers()))

	for _, b := range batches {
		b := b
		if err := checkCancel(gctx); err != nil {
			b.Release()
			return err
		}
		if err := sem.Acquire(gctx, 1); err != nil {
			b.Release()
			continue
		}
		g.Go(func() error {
			defer sem.Release(1)
			return e.processStatsBatch(p, b, finals, partials)
		})
	}

	return g.Wait()
}

type finalStats struct {
	mean   float64
	stddev float64
}

func (e *Engine) processStatsBatch(
	p *plan.ExecutablePlan,
	b batchio.Batch,
	finals map[string]map[int]finalStats,
	partials map[partialKey]*atomic.Uint64,
) error {
	defer b.Release()

	for _, cp := range p.Columns {
		perRule, ok := finals[cp.Name]
		if !ok {
			continue
		}
		arr, ok := b.Column(cp.Name)
		if !ok {
			return &EvaluationError{Column: cp.Name, Rule: "lookup", Err: errColumnMissing}
		}

		workArr := arr
		var mask *bitmap.Bitmap
		if cp.NeedTypeCheck {
			coerced, _, m := coerceColumn(arr, cp.Type, cp.DateLayout)
			defer coerced.Release()
			workArr, mask = coerced, m
		} else {
			mask = bitmap.New(batchio.Len(arr) - 1)
		}

		n := batchio.Len(workArr)
		for i, se := range cp.Stats {
			fs := perRule[i]
			var violations uint64
			for row := 0; row < n; row++ {
				if mask.Has(row) {
					continue
				}
				v, ok := batchio.NumericAt(workArr, row)
				if !ok {
					continue
				}
				switch se.Kind {
				case rules.KindStdDevCheck:
					if fs.stddev == 0 {
						continue
					}
					if absf(v-fs.mean)/fs.stddev > se.MaxStdDev {
						violations++
					}
				case rules.KindMeanVariance:
					if fs.mean == 0 {
						continue
					}
					if absf(v-fs.mean)/absf(fs.mean) > se.MaxVariancePercent {
						violations++
					}
				}
			}
			partials[partialKey{cp.Name, se.Kind, i}].Add(violations)
		}
	}

	return nil
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func buildReport(p *plan.ExecutablePlan, partials map[partialKey]*atomic.Uint64, totalRows uint64) *report.Report {
	r := &report.Report{Table: p.TableName, TotalRows: totalRows, Passed: true}

	for _, cp := range p.Columns {
		cr := report.ColumnResult{Name: cp.Name}
		addRule := func(rr report.RuleResult) {
			cr.Rules = append(cr.Rules, rr)
			metrics.RecordRuleResult(p.TableName, cp.Name, rr.Name, rr.Violations, rr.Percent, rr.Passed)
		}

		if cp.NeedTypeCheck {
			addRule(ruleResult(string(rules.KindTypeCheck), partials[partialKey{cp.Name, rules.KindTypeCheck, 0}], cp.TypeCheckThresh, totalRows))
		}
		if cp.HasNullCheck {
			addRule(ruleResult(string(rules.KindNullCheck), partials[partialKey{cp.Name, rules.KindNullCheck, 0}], cp.NullThreshold, totalRows))
		}
		for i, de := range cp.Domain {
			addRule(ruleResult(string(de.Kind), partials[partialKey{cp.Name, de.Kind, i}], de.Threshold, totalRows))
		}
		for i, se := range cp.Stats {
			addRule(ruleResult(string(se.Kind), partials[partialKey{cp.Name, se.Kind, i}], se.Threshold, totalRows))
		}
		if cp.HasUnicity {
			addRule(ruleResult(string(rules.KindUnicity), partials[partialKey{cp.Name, rules.KindUnicity, 0}], cp.UnicityThreshold, totalRows))
		}

		for _, rr := range cr.Rules {
			if !rr.Passed {
				r.Passed = false
			}
		}
		r.Columns = append(r.Columns, cr)
	}

	for i, rp := range p.Relations {
		rr := relationResult(rp, partials[partialKey{rp.Left + "|" + rp.Right, rp.Kind, i}], totalRows)
		if !rr.Passed {
			r.Passed = false
		}
		metrics.RecordRuleResult(p.TableName, "", rr.Name, rr.Violations, rr.Percent, rr.Passed)
		r.Relations = append(r.Relations, rr)
	}

	return r
}

func ruleResult(name string, counter *atomic.Uint64, threshold float64, totalRows uint64) report.RuleResult {
	var violations uint64
	if counter != nil {
		violations = counter.Load()
	}
	percent, passed := report.Verdict(violations, totalRows, threshold)
	return report.RuleResult{Name: name, Violations: violations, Percent: percent, Threshold: threshold, Passed: passed}
}

func relationResult(rp plan.RelationPlan, counter *atomic.Uint64, totalRows uint64) report.RelationResult {
	var violations uint64
	if counter != nil {
		violations = counter.Load()
	}
	percent, passed := report.Verdict(violations, totalRows, rp.Threshold)
	return report.RelationResult{Name: string(rp.Kind) + ":" + rp.Left + "/" + rp.Right, Violations: violations, Percent: percent, Threshold: rp.Threshold, Passed: passed}
}
