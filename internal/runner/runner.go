package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/smhanov/bughound"
)

const errorSentinel = "ERROR"

// Engine runs one snippet through the analysis pipeline.
type Engine interface {
	Run(ctx context.Context, task bughound.Task) (bughound.Report, error)
}

// Runner processes a batch of rows. With Concurrency of one it runs rows in
// order with a cooldown between them; above one it fans out with a bounded
// worker pool and no cooldown, for providers without tight rate limits.
type Runner struct {
	engine      Engine
	log         *zap.Logger
	cooldown    time.Duration
	concurrency int
}

// New creates a Runner. Concurrency below one is treated as one.
func New(engine Engine, log *zap.Logger, cooldown time.Duration, concurrency int) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{engine: engine, log: log, cooldown: cooldown, concurrency: concurrency}
}

// Process runs every row and returns one result per row, in input order. A
// row that fails still yields a result with the ERROR sentinel; only context
// cancellation aborts the batch.
func (r *Runner) Process(ctx context.Context, rows []Row) ([]Result, error) {
	if r.concurrency > 1 {
		return r.processParallel(ctx, rows)
	}

	results := make([]Result, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.log.Info("processing row",
			zap.Int("index", i+1), zap.Int("total", len(rows)), zap.String("id", row.ID))
		results = append(results, r.process(ctx, row))

		if i < len(rows)-1 && r.cooldown > 0 {
			r.log.Debug("rate limit cooldown", zap.Duration("wait", r.cooldown))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.cooldown):
			}
		}
	}
	return results, nil
}

func (r *Runner) processParallel(ctx context.Context, rows []Row) ([]Result, error) {
	results := make([]Result, len(rows))
	sem := semaphore.NewWeighted(int64(r.concurrency))

	g, ctx := errgroup.WithContext(ctx)
	for i, row := range rows {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			results[i] = r.process(ctx, row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// process never lets one bad row take down the batch: engine errors and
// panics both become an ERROR result.
func (r *Runner) process(ctx context.Context, row Row) (result Result) {
	id := row.ID
	if id == "" {
		id = uuid.NewString()
	}
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("row processing panicked", zap.String("id", id), zap.Any("panic", rec))
			result = Result{ID: id, BugLine: errorSentinel, BugExplanation: fmt.Sprintf("processing error: %v", rec)}
		}
	}()

	report, err := r.engine.Run(ctx, bughound.Task{
		ID:          id,
		Code:        row.Code,
		Context:     row.Context,
		CorrectCode: row.CorrectCode,
		Explanation: row.Explanation,
	})
	if err != nil {
		r.log.Error("row processing failed", zap.String("id", id), zap.Error(err))
		return Result{ID: id, BugLine: errorSentinel, BugExplanation: fmt.Sprintf("processing error: %v", err)}
	}

	r.log.Info("row done",
		zap.String("id", id),
		zap.String("bug_line", report.BugLine),
		zap.Duration("elapsed", time.Since(start)))
	return Result{ID: id, BugLine: report.BugLine, BugExplanation: report.BugExplanation}
}
