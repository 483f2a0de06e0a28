package collector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rpromhub/rpromhub/internal/fetcher"
	"github.com/rpromhub/rpromhub/internal/target"
)

// Fetcher is the per-target lookup the collector fans out to.
type Fetcher interface {
	Fetch(ctx context.Context, t target.Target) (*fetcher.Sample, error)
}

// Sink receives successful observations.
type Sink interface {
	Set(t target.Target, value float64)
}

// Report summarises one collection cycle. A cycle never fails as a whole;
// per-target errors are counted and logged.
type Report struct {
	Targets   int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Collector runs one fetch per target concurrently and writes the successes
// into the sink. It holds no per-cycle state and may be invoked from
// overlapping scrapes.
type Collector struct {
	fetcher Fetcher
	sink    Sink
}

// New returns a Collector wired to f and sink.
func New(f Fetcher, sink Sink) *Collector {
	return &Collector{fetcher: f, sink: sink}
}

// Collect fetches every target in parallel and blocks until all fetches have
// returned. There is no concurrency limit and no deadline beyond ctx; one slow
// upstream call delays the whole cycle.
func (c *Collector) Collect(ctx context.Context, targets []target.Target) Report {
	start := time.Now()

	type outcome struct {
		target target.Target
		sample *fetcher.Sample
		err    error
	}
	results := make([]outcome, len(targets))

	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t target.Target) {
			defer wg.Done()
			s, err := c.fetcher.Fetch(ctx, t)
			if err == nil {
				c.sink.Set(t, float64(s.AgeDays))
			}
			results[i] = outcome{target: t, sample: s, err: err}
		}(i, t)
	}
	wg.Wait()

	rep := Report{Targets: len(targets)}
	for _, o := range results {
		if o.err != nil {
			rep.Failed++
			logFailure(o.target, o.err)
			continue
		}
		rep.Succeeded++
		slog.Debug("collector: branch age updated",
			"owner", o.target.Owner,
			"repo", o.target.Repo,
			"branch", o.target.Branch,
			"age_days", o.sample.AgeDays,
		)
	}
	rep.Duration = time.Since(start)

	slog.Debug("collector: cycle complete",
		"targets", rep.Targets,
		"succeeded", rep.Succeeded,
		"failed", rep.Failed,
		"duration", rep.Duration,
	)
	return rep
}

func logFailure(t target.Target, err error) {
	attrs := []any{
		"owner", t.Owner,
		"repo", t.Repo,
		"branch", t.Branch,
		"err", err,
	}
	var fe *fetcher.FetchError
	if errors.As(err, &fe) {
		attrs = append(attrs, "kind", fe.Kind.String())
		if fe.StatusCode != 0 {
			attrs = append(attrs, "status", fe.StatusCode)
		}
	}
	slog.Warn("collector: fetch failed, keeping previous value", attrs...)
}
