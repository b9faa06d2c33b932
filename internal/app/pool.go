package app

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	validator "github.com/CMSgov/price-transparency-guide-validator"
	"github.com/CMSgov/price-transparency-guide-validator/input"
	"github.com/CMSgov/price-transparency-guide-validator/internal/report"
)

// errStop cancels remaining records in fail-fast mode.
var errStop = errors.New("stop after first failure")

// workerPanic is a panic recovered in a pool worker.
type workerPanic struct {
	value any
	stack []byte
}

func (p *workerPanic) Error() string {
	return fmt.Sprintf("internal error: %v", p.value)
}

type result struct {
	records  int
	failures []report.Failure // ordered by line
}

// validate reads records of src in order and validates them against g
// on a bounded pool of workers. Locations are collected by the reading
// goroutine, so they are in input order.
//
// Only errors that stop reading are returned; failing records are
// reported in result.
func (a *App) validate(g *validator.Graph, src *input.Source, collector *report.Collector) (result, error) {
	opts := validator.Options{MaxDepth: a.cfg.MaxDepth}
	if a.cfg.FailFast {
		opts.Mode = validator.FailFast
	}
	lines := src.Format == input.NDJSON
	evaluate := a.evaluate
	if evaluate == nil {
		evaluate = (*validator.Graph).Evaluate
	}

	var (
		mu  sync.Mutex
		res result
	)
	addFailure := func(f report.Failure) {
		mu.Lock()
		res.failures = append(res.failures, f)
		mu.Unlock()
	}

	grp, ctx := errgroup.WithContext(context.Background())
	grp.SetLimit(a.cfg.Workers)

	sc := src.Records()
	defer sc.Close()
loop:
	for sc.Scan() {
		select {
		case <-ctx.Done():
			break loop
		default:
		}
		rec := sc.Record()
		res.records++
		line := 0
		if lines {
			line = rec.Line
		}
		if rec.Err != nil {
			a.metrics.ObserveMalformed()
			addFailure(report.Failure{Line: line, Malformed: rec.Err})
			if a.cfg.FailFast {
				break
			}
			continue
		}
		collector.Collect(line, rec.Value)
		grp.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &workerPanic{value: r, stack: debug.Stack()}
				}
			}()
			start := time.Now()
			out := evaluate(g, rec.Value, opts)
			keywords := make([]string, len(out.Errors))
			for i, v := range out.Errors {
				keywords[i] = v.Keyword
			}
			a.metrics.ObserveRecord(start, keywords)
			if out.Valid {
				return nil
			}
			addFailure(report.Failure{Line: line, Output: out.Err.DetailedOutput()})
			if a.cfg.FailFast {
				return errStop
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil && !errors.Is(err, errStop) {
		var p *workerPanic
		if errors.As(err, &p) {
			a.log.Error().Interface("panic", p.value).Bytes("stack", p.stack).Msg("internal error")
		}
		return res, err
	}
	if err := sc.Err(); err != nil {
		return res, err
	}

	sort.Slice(res.failures, func(i, j int) bool {
		return res.failures[i].Line < res.failures[j].Line
	})
	if a.cfg.FailFast && len(res.failures) > 1 {
		res.failures = res.failures[:1]
	}
	return res, nil
}
