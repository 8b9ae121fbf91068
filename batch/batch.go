// Package batch scores many candidate sites concurrently. The scoring
// engines are stateless, so the pool needs no locking beyond the work
// distribution itself.
package batch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dskanth86/ev-charger-analytics/decision/analysis"
	"github.com/dskanth86/ev-charger-analytics/decision/feasibility"
)

// Job is one named candidate site.
type Job struct {
	Name    string
	Request analysis.Request
}

// Outcome pairs a job with its result or failure. Outcomes keep the input
// order regardless of which worker finished first.
type Outcome struct {
	Name   string
	Result feasibility.Result
	Err    error
}

// Runner distributes jobs over a bounded worker pool.
type Runner struct {
	pipeline *analysis.Pipeline
	workers  int
	logger   *slog.Logger
}

const defaultWorkers = 4

func NewRunner(p *analysis.Pipeline, workers int) *Runner {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Runner{pipeline: p, workers: workers, logger: slog.Default()}
}

func (r *Runner) WithLogger(logger *slog.Logger) *Runner {
	r.logger = logger
	return r
}

// Run evaluates all jobs and returns one outcome per job, in job order.
// Cancelling the context stops the pool; jobs not yet started report the
// context error.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				job := jobs[i]
				result, err := r.pipeline.Run(job.Request)
				outcomes[i] = Outcome{Name: job.Name, Result: result, Err: err}
				if err != nil {
					r.logger.Error("batch job failed", "job", job.Name, "error", err)
				}
			}
		}()
	}

feed:
	for i := range jobs {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(jobs); j++ {
				outcomes[j] = Outcome{Name: jobs[j].Name, Err: err}
			}
			break
		}
		select {
		case indexes <- i:
		case <-ctx.Done():
			outcomes[i] = Outcome{Name: jobs[i].Name, Err: ctx.Err()}
			for j := i + 1; j < len(jobs); j++ {
				outcomes[j] = Outcome{Name: jobs[j].Name, Err: ctx.Err()}
			}
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	return outcomes
}
