package parallel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-graphir/pkg/ir"
	"github.com/dd0wney/cluso-graphir/pkg/logging"
)

// ErrTaskPanicked marks a graph whose job panicked.
var ErrTaskPanicked = errors.New("graph job panicked")

// Result is the outcome of one graph job.
type Result struct {
	Graph    *ir.Graph
	Err      error
	Duration time.Duration
}

// Run applies job to every graph on a pool of workers and returns the
// results in input order. Graphs must belong to distinct forests, since a
// job may touch the whole tree of the graph it is given. Graphs not yet
// started when ctx is cancelled report ctx.Err().
func Run(ctx context.Context, graphs []*ir.Graph, workers int, logger logging.Logger, job func(*ir.Graph) error) ([]Result, error) {
	seen := make(map[*ir.Graph]struct{}, len(graphs))
	for _, g := range graphs {
		if g == nil {
			return nil, fmt.Errorf("parallel run: nil graph: %w", ir.ErrInvalidArgument)
		}
		root := g.Root()
		if _, dup := seen[root]; dup {
			return nil, fmt.Errorf("parallel run: %s shares a forest with another graph: %w", g.Name(), ir.ErrInvalidArgument)
		}
		seen[root] = struct{}{}
	}

	pool, err := NewWorkerPool(min(workers, max(len(graphs), 1)), logger)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(graphs))
	for i, g := range graphs {
		results[i] = Result{Graph: g, Err: ErrTaskPanicked}
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		pool.Submit(func() {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			start := time.Now()
			err := job(g)
			results[i].Duration = time.Since(start)
			results[i].Err = err
		})
	}
	pool.Close()

	if logger != nil {
		logger.Debug("parallel run finished", logging.Count(len(graphs)), logging.Int("workers", pool.Workers()))
	}
	return results, nil
}

// Errors joins the failures in results, each prefixed with its graph name.
func Errors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Graph.Name(), r.Err))
		}
	}
	return errors.Join(errs...)
}
