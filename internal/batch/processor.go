// Package batch validates an ordered batch of records on a bounded worker
// pool and aggregates the results into a report.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quizprep/internal/question"
	"github.com/abhisek/quizprep/internal/validation"
)

// Recorder receives per-record and per-run measurements.
type Recorder interface {
	ObserveRecord(res validation.Result, elapsed time.Duration)
	ObserveRun(records int, elapsed time.Duration, cancelled bool)
}

// Outcome is the result of one batch run.
type Outcome struct {
	// Results holds one entry per completed record, in input order.
	Results   []validation.Result
	Report    Report
	Cancelled bool
	Elapsed   time.Duration
}

// Option configures a Processor.
type Option func(*Processor)

// WithWorkers bounds the number of records validated at once. Values
// below 1 are ignored.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger for run-level messages.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Processor) {
		p.recorder = r
	}
}

// Processor runs batches through a validation.Manager.
type Processor struct {
	mgr      *validation.Manager
	workers  int
	logger   *zap.Logger
	recorder Recorder
}

// New returns a Processor. By default it uses one worker per CPU.
func New(mgr *validation.Manager, opts ...Option) *Processor {
	p := &Processor{
		mgr:     mgr,
		workers: runtime.GOMAXPROCS(0),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run validates raw JSON records. Record positions are 1-based.
func (p *Processor) Run(ctx context.Context, raws []json.RawMessage) (*Outcome, error) {
	return p.run(ctx, len(raws), func(i int) validation.Result {
		return p.mgr.ValidateRaw(raws[i], i+1)
	})
}

// RunRecords validates already-decoded records.
func (p *Processor) RunRecords(ctx context.Context, recs []*question.Record) (*Outcome, error) {
	return p.run(ctx, len(recs), func(i int) validation.Result {
		if recs[i] == nil {
			return validation.Unparseable(i+1, errors.New("nil record"))
		}
		return p.mgr.ValidateRecord(recs[i], i+1)
	})
}

func (p *Processor) run(ctx context.Context, n int, validate func(i int) validation.Result) (*Outcome, error) {
	start := time.Now()
	p.logger.Info("batch started", zap.Int("records", n), zap.Int("workers", p.workers))

	results := make([]validation.Result, n)
	done := make([]bool, n)

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = p.validateOne(i, validate)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := &Outcome{Results: make([]validation.Result, 0, n)}
	for i, ok := range done {
		if ok {
			out.Results = append(out.Results, results[i])
		}
	}
	out.Cancelled = len(out.Results) < n
	out.Report = p.report(out.Results)
	out.Elapsed = time.Since(start)

	if p.recorder != nil {
		p.recorder.ObserveRun(len(out.Results), out.Elapsed, out.Cancelled)
	}

	if out.Cancelled {
		p.logger.Warn("batch cancelled",
			zap.Int("completed", len(out.Results)),
			zap.Int("records", n),
			zap.Error(ctx.Err()))
		return out, ctx.Err()
	}

	p.logger.Info("batch finished",
		zap.Int("records", n),
		zap.Int("ready", out.Report.Ready),
		zap.Int("blocked", out.Report.Blocked),
		zap.Duration("elapsed", out.Elapsed))
	return out, nil
}

// report builds the batch report with one partial per worker, merged in
// worker order.
func (p *Processor) report(results []validation.Result) Report {
	n := min(p.workers, len(results))
	if n <= 1 {
		return BuildReport(results)
	}

	parts := make([]partial, n)
	size := (len(results) + n - 1) / n
	var g errgroup.Group
	for w := range parts {
		lo := min(w*size, len(results))
		hi := min(lo+size, len(results))
		w := w
		g.Go(func() error {
			parts[w] = newPartial()
			for _, res := range results[lo:hi] {
				parts[w].add(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	acc := newPartial()
	for _, part := range parts {
		acc.merge(part)
	}
	return acc.finish()
}

// validateOne runs validate for record i and turns a panic into an
// unparseable_record result for that record.
func (p *Processor) validateOne(i int, validate func(i int) validation.Result) (res validation.Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("validation panicked", zap.Int("position", i+1), zap.Any("panic", r))
			res = validation.Unparseable(i+1, fmt.Errorf("internal error while validating: %v", r))
		}
		if p.recorder != nil {
			p.recorder.ObserveRecord(res, time.Since(start))
		}
	}()
	return validate(i)
}
