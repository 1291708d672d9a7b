// Package fanout runs a fixed set of named jobs concurrently, one goroutine
// per job, and waits for all of them.
package fanout

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"twitterkeywordsearch/pkg/logger"
)

// Job is one unit of work in a fan-out.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result reports how a job ended.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Run starts every job and blocks until all return. The first failing job
// cancels the context passed to the others; its error is returned wrapped
// with the job name. Results are in job order.
func Run(ctx context.Context, jobs []Job, log logger.Logger) ([]Result, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	log.InfoWithFields("Starting workers", map[string]interface{}{
		"num_workers": len(jobs),
	})

	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			wlog := log.WithField("worker", job.Name)
			wlog.Debug("Worker started")

			start := time.Now()
			err := job.Run(gctx)
			results[i] = Result{Name: job.Name, Err: err, Duration: time.Since(start)}

			if err != nil {
				wlog.WithError(err).Error("Worker failed")
				return fmt.Errorf("%s worker: %w", job.Name, err)
			}
			wlog.DebugWithFields("Worker finished", map[string]interface{}{
				"duration": results[i].Duration,
			})
			return nil
		})
	}

	err := g.Wait()
	log.Info("All workers stopped")
	return results, err
}
