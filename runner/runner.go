package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dhcgn/emltouch/dateparse"
	"github.com/dhcgn/emltouch/filter"
	"github.com/dhcgn/emltouch/header"
	"github.com/dhcgn/emltouch/model"
	"github.com/dhcgn/emltouch/stats"
	"github.com/dhcgn/emltouch/touch"
)

// Reporter receives the progress of a run. All calls happen on the goroutine
// that called Run.
type Reporter interface {
	Start(total int, dryRun bool)
	Report(o model.Outcome)
	Filtered(path string)
	Finish(s stats.Summary, elapsed time.Duration)
}

// ApplyFunc sets the file times of path to t.
type ApplyFunc func(path string, t time.Time) error

type Options struct {
	DryRun         bool
	MaxHeaderBytes int64
	Filter         *filter.Filter
	Parser         *dateparse.Parser
	Apply          ApplyFunc
}

// Runner drives files through extract, parse and apply, one at a time.
type Runner struct {
	opts     Options
	reporter Reporter
	logger   *slog.Logger
}

func New(opts Options, reporter Reporter, logger *slog.Logger) *Runner {
	if opts.Parser == nil {
		opts.Parser = dateparse.New(time.Local)
	}
	if opts.Apply == nil {
		opts.Apply = touch.Apply
	}
	if opts.MaxHeaderBytes <= 0 {
		opts.MaxHeaderBytes = header.DefaultMaxBytes
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{opts: opts, reporter: reporter, logger: logger}
}

// Run processes files in order and returns the accumulated summary. If ctx is
// cancelled the remaining files are left untouched and ctx.Err() is returned
// alongside the partial summary.
func (r *Runner) Run(ctx context.Context, files []string) (stats.Summary, error) {
	started := time.Now()
	if r.reporter != nil {
		r.reporter.Start(len(files), r.opts.DryRun)
	}

	var (
		summary stats.Summary
		runErr  error
	)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		outcome, filtered := r.Process(path)
		if filtered {
			summary = summary.Merge(stats.Summary{}.RecordFiltered())
			r.logger.Debug("filtered", "path", path)
			if r.reporter != nil {
				r.reporter.Filtered(path)
			}
			continue
		}

		summary = summary.Merge(stats.Summary{}.Record(outcome))
		if r.reporter != nil {
			r.reporter.Report(outcome)
		}
	}

	elapsed := time.Since(started)
	if r.reporter != nil {
		r.reporter.Finish(summary, elapsed)
	}
	r.logger.Info("run finished", append(summary.LogAttrs(), "duration", elapsed, "dryRun", r.opts.DryRun)...)

	return summary, runErr
}

// Process runs a single file through the pipeline. The second return value is
// true when the header filter rejected the file; the outcome is then empty.
func (r *Runner) Process(path string) (model.Outcome, bool) {
	msg, err := header.Read(path, r.opts.MaxHeaderBytes)
	if err != nil {
		return r.skip(path, err), false
	}

	if !r.opts.Filter.Allows(msg.Header) {
		return model.Outcome{}, true
	}

	raw, err := header.Date(msg.Header)
	if err != nil {
		return r.skip(path, err), false
	}

	ts, err := r.opts.Parser.Parse(raw)
	if err != nil {
		return r.skip(path, err), false
	}

	logger := r.logger.With("path", path, "strategy", ts.Strategy, "zone", ts.ZoneLabel(), "time", ts.Time)

	if r.opts.DryRun {
		logger.Debug("dry-run: would set file times")
		return model.WouldApply(path, ts.Time, ts.ZoneLabel(), ts.Strategy), false
	}

	if err := r.opts.Apply(path, ts.Time); err != nil {
		return r.skip(path, err), false
	}
	logger.Debug("file times set")

	return model.Applied(path, ts.Time, ts.ZoneLabel(), ts.Strategy), false
}

func (r *Runner) skip(path string, err error) model.Outcome {
	reason := Classify(err)
	r.logger.Debug("skipped", "path", path, "reason", reason, "err", err)
	return model.Skipped(path, reason, err)
}

// Classify maps a pipeline error to the reason reported for the file.
func Classify(err error) model.Reason {
	switch {
	case errors.Is(err, header.ErrIO):
		return model.ReasonIOError
	case errors.Is(err, header.ErrHeaderNotFound):
		return model.ReasonHeaderNotFound
	case errors.Is(err, dateparse.ErrUnparseableDate):
		return model.ReasonUnparseableDate
	case errors.Is(err, touch.ErrPermissionDenied):
		return model.ReasonPermissionDenied
	case errors.Is(err, touch.ErrFileNotFound):
		return model.ReasonFileNotFound
	default:
		return model.ReasonIOError
	}
}
