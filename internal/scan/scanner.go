package scan

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MJE43/arcs-odds/internal/dice"
	"github.com/MJE43/arcs-odds/internal/engine"
)

// MaxMicrostates caps how many face combinations a scan will walk.
const MaxMicrostates = 100_000_000

// EngineVersion tags scan results.
const EngineVersion = "go-1.0.0"

// ScanRequest represents a brute-force enumeration request
type ScanRequest struct {
	Pool      dice.Pool `json:"pool"`
	TimeoutMs int       `json:"timeout_ms,omitempty"`
}

// Summary contains aggregate statistics
type Summary struct {
	TotalMicrostates uint64        `json:"total_microstates"`
	TotalEvaluated   uint64        `json:"total_evaluated"`
	Outcomes         int           `json:"outcomes"`
	Workers          int           `json:"workers"`
	Duration         time.Duration `json:"duration_ns"`
	TimedOut         bool          `json:"timed_out,omitempty"`
}

// ScanResult holds the enumerated table. Table is nil when the scan
// timed out, since partial counts do not form a distribution.
type ScanResult struct {
	Table         *engine.Table `json:"table,omitempty"`
	Summary       Summary       `json:"summary"`
	EngineVersion string        `json:"engine_version"`
	Echo          ScanRequest   `json:"echo"`
}

// ScanJob is a half-open range of microstate indices
type ScanJob struct {
	IndexStart uint64
	IndexEnd   uint64
}

// ScanWorker decodes microstate indices and tallies them locally
type ScanWorker struct {
	id        int
	jobs      <-chan ScanJob
	partials  chan<- map[engine.Outcome]uint64
	pool      dice.Pool
	faces     [][]dice.Tally // per die, in roll order
	evaluated *uint64        // atomic counter
}

// Scanner enumerates every microstate of a pool in parallel
type Scanner struct {
	workerCount int
}

// NewScanner creates a scanner with one worker per usable CPU
func NewScanner() *Scanner {
	return &Scanner{workerCount: runtime.GOMAXPROCS(0)}
}

// NewScannerWithWorkers fixes the worker count; n < 1 means one worker.
func NewScannerWithWorkers(n int) *Scanner {
	if n < 1 {
		n = 1
	}
	return &Scanner{workerCount: n}
}

// Scan walks [0, total) microstate indices, decoding each index into one
// face per die and grouping the results the same way the engine does.
func (s *Scanner) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	total, err := engine.TotalMicrostates(req.Pool)
	if err != nil {
		return nil, err
	}
	if total > MaxMicrostates {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyMicrostates, total, MaxMicrostates)
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	faces := faceTallies(req.Pool)
	start := time.Now()

	jobs := make(chan ScanJob, s.workerCount*2)
	partials := make(chan map[engine.Outcome]uint64, s.workerCount)

	var totalEvaluated uint64
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		worker := &ScanWorker{
			id:        i,
			jobs:      jobs,
			partials:  partials,
			pool:      req.Pool,
			faces:     faces,
			evaluated: &totalEvaluated,
		}

		wg.Add(1)
		go worker.Run(ctx, &wg)
	}

	go s.generateJobs(ctx, jobs, total)

	go func() {
		wg.Wait()
		close(partials)
	}()

	collector := &ResultCollector{
		partials:  partials,
		evaluated: &totalEvaluated,
		total:     total,
	}
	counts, timedOut := collector.Collect()

	result := &ScanResult{
		Summary: Summary{
			TotalMicrostates: total,
			TotalEvaluated:   atomic.LoadUint64(&totalEvaluated),
			Outcomes:         len(counts),
			Workers:          s.workerCount,
			Duration:         time.Since(start),
			TimedOut:         timedOut,
		},
		EngineVersion: EngineVersion,
		Echo:          req,
	}
	if !timedOut {
		result.Table = engine.NewTable(req.Pool, total, counts)
	}
	return result, nil
}

// faceTallies lists each die's face tallies in the pool's roll order.
func faceTallies(pool dice.Pool) [][]dice.Tally {
	kinds := pool.Dice()
	out := make([][]dice.Tally, len(kinds))
	for i, kind := range kinds {
		faces := dice.Must(kind).Faces()
		out[i] = make([]dice.Tally, len(faces))
		for j, f := range faces {
			out[i][j] = f.Tally()
		}
	}
	return out
}

// Run processes jobs until the channel closes or ctx ends, then hands its
// local counts to the collector.
func (sw *ScanWorker) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	counts := make(map[engine.Outcome]uint64)
	defer func() { sw.partials <- counts }()

	for {
		select {
		case job, ok := <-sw.jobs:
			if !ok {
				return
			}
			if !sw.processJob(ctx, job, counts) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// processJob tallies one index range. It returns false when ctx ended.
func (sw *ScanWorker) processJob(ctx context.Context, job ScanJob, counts map[engine.Outcome]uint64) bool {
	var done uint64
	defer func() { atomic.AddUint64(sw.evaluated, done) }()

	for idx := job.IndexStart; idx < job.IndexEnd; idx++ {
		if idx&1023 == 0 {
			select {
			case <-ctx.Done():
				return false
			default:
			}
		}

		// mixed radix: digit i picks the face of die i
		var tally dice.Tally
		rest := idx
		for _, faces := range sw.faces {
			n := uint64(len(faces))
			tally = tally.Add(faces[rest%n])
			rest /= n
		}
		counts[engine.OutcomeOf(engine.Convert(sw.pool, tally))]++
		done++
	}
	return true
}

// generateJobs splits [0, total) into fixed-size batches
func (s *Scanner) generateJobs(ctx context.Context, jobs chan<- ScanJob, total uint64) {
	defer close(jobs)

	const optimalBatchSize = 8192

	for current := uint64(0); current < total; {
		end := current + optimalBatchSize
		if end > total {
			end = total
		}

		select {
		case jobs <- ScanJob{IndexStart: current, IndexEnd: end}:
			current = end
		case <-ctx.Done():
			return
		}
	}
}

// ResultCollector merges the workers' local counts
type ResultCollector struct {
	partials  <-chan map[engine.Outcome]uint64
	evaluated *uint64
	total     uint64
}

// Collect drains the partials channel until every worker has reported.
// A scan that stopped before evaluating every microstate reports timedOut.
func (rc *ResultCollector) Collect() (map[engine.Outcome]uint64, bool) {
	merged := make(map[engine.Outcome]uint64)
	for part := range rc.partials {
		for o, n := range part {
			merged[o] += n
		}
	}

	return merged, atomic.LoadUint64(rc.evaluated) < rc.total
}
