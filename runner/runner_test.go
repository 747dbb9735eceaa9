package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/emltouch/dateparse"
	"github.com/dhcgn/emltouch/filter"
	"github.com/dhcgn/emltouch/header"
	"github.com/dhcgn/emltouch/model"
	"github.com/dhcgn/emltouch/stats"
	"github.com/dhcgn/emltouch/touch"
)

var (
	wantInstant = time.Date(2024, time.March, 5, 15, 1, 44, 0, time.UTC)
	oldInstant  = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
)

type recorder struct {
	started  int
	dryRun   bool
	outcomes []model.Outcome
	filtered []string
	summary  stats.Summary
	finished bool
}

func (r *recorder) Start(total int, dryRun bool) {
	r.started = total
	r.dryRun = dryRun
}

func (r *recorder) Report(o model.Outcome) {
	r.outcomes = append(r.outcomes, o)
}

func (r *recorder) Filtered(path string) {
	r.filtered = append(r.filtered, path)
}

func (r *recorder) Finish(s stats.Summary, _ time.Duration) {
	r.summary = s
	r.finished = true
}

// writeMessages writes each message below a temp dir with an old mtime and
// returns the paths in the given order.
func writeMessages(t *testing.T, messages map[string]string, order ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(order))
	for _, name := range order {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(messages[name]), 0o644))
		require.NoError(t, os.Chtimes(path, oldInstant, oldInstant))
		paths = append(paths, path)
	}
	return paths
}

func mtime(t *testing.T, path string) time.Time {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.ModTime()
}

var scenario = map[string]string{
	"a.eml": "From: alice@example.com\r\nDate: Tue, 5 Mar 2024 16:01:44 +0100\r\nSubject: a\r\n\r\nbody\r\n",
	"b.eml": "From: bob@example.com\nDate: 5 Mar 2024 16:01:44 CET\nSubject: b\n\nbody\n",
	"c.eml": "From: carol@example.com\nSubject: no date here\n\nDate: Tue, 5 Mar 2024 16:01:44 +0100\n",
}

func newRunner(opts Options, rep Reporter) *Runner {
	if opts.Parser == nil {
		opts.Parser = dateparse.New(time.UTC)
	}
	return New(opts, rep, nil)
}

func TestRun_Scenario(t *testing.T) {
	files := writeMessages(t, scenario, "a.eml", "b.eml", "c.eml")
	rec := &recorder{}

	summary, err := newRunner(Options{}, rec).Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 3, summary.Total)
	assert.True(t, summary.Consistent())
	assert.Equal(t, map[model.Reason]int{model.ReasonHeaderNotFound: 1}, summary.Reasons)

	assert.True(t, wantInstant.Equal(mtime(t, files[0])), "a.eml mtime = %s", mtime(t, files[0]))
	assert.True(t, wantInstant.Equal(mtime(t, files[1])), "b.eml mtime = %s", mtime(t, files[1]))
	assert.True(t, oldInstant.Equal(mtime(t, files[2])), "c.eml must be untouched")

	require.Len(t, rec.outcomes, 3)
	assert.Equal(t, 3, rec.started)
	assert.True(t, rec.finished)
	assert.Equal(t, summary, rec.summary)

	assert.Equal(t, model.OutcomeApplied, rec.outcomes[0].Kind)
	assert.Equal(t, "+0100", rec.outcomes[0].Zone)
	assert.Equal(t, dateparse.StrategyRFC5322, rec.outcomes[0].Strategy)
	assert.Equal(t, model.OutcomeApplied, rec.outcomes[1].Kind)
	assert.Equal(t, "CET", rec.outcomes[1].Zone)
	assert.Equal(t, model.OutcomeSkipped, rec.outcomes[2].Kind)
	assert.Equal(t, model.ReasonHeaderNotFound, rec.outcomes[2].Reason)
	assert.ErrorIs(t, rec.outcomes[2].Err, header.ErrHeaderNotFound)
}

func TestRun_DryRunDoesNotModify(t *testing.T) {
	files := writeMessages(t, scenario, "a.eml", "b.eml", "c.eml")
	rec := &recorder{}

	summary, err := newRunner(Options{DryRun: true}, rec).Run(context.Background(), files)
	require.NoError(t, err)

	for _, f := range files {
		assert.True(t, oldInstant.Equal(mtime(t, f)), "%s modified during dry run", f)
	}
	assert.True(t, rec.dryRun)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.WouldApply)
	assert.Equal(t, 0, summary.Applied)
	assert.Equal(t, 1, summary.Failed)

	assert.Equal(t, model.OutcomeWouldApply, rec.outcomes[0].Kind)
	assert.True(t, wantInstant.Equal(rec.outcomes[0].Time))
}

func TestRun_Idempotent(t *testing.T) {
	files := writeMessages(t, scenario, "a.eml", "b.eml")
	r := newRunner(Options{}, nil)

	first, err := r.Run(context.Background(), files)
	require.NoError(t, err)
	after := []time.Time{mtime(t, files[0]), mtime(t, files[1])}

	second, err := r.Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, after, []time.Time{mtime(t, files[0]), mtime(t, files[1])})
}

func TestRun_ContinuesAfterApplyFailure(t *testing.T) {
	files := writeMessages(t, scenario, "a.eml", "b.eml")
	rec := &recorder{}

	calls := 0
	apply := func(path string, at time.Time) error {
		calls++
		if filepath.Base(path) == "a.eml" {
			return fmt.Errorf("%w: operation not permitted", touch.ErrPermissionDenied)
		}
		return touch.Apply(path, at)
	}

	summary, err := newRunner(Options{Apply: apply}, rec).Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, model.ReasonPermissionDenied, rec.outcomes[0].Reason)
	assert.True(t, wantInstant.Equal(mtime(t, files[1])))
}

func TestRun_MissingAndUnparseable(t *testing.T) {
	messages := map[string]string{
		"bad.eml": "Date: sometime last week\n\nbody\n",
	}
	files := writeMessages(t, messages, "bad.eml")
	files = append(files, filepath.Join(filepath.Dir(files[0]), "gone.eml"))
	rec := &recorder{}

	summary, err := newRunner(Options{}, rec).Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, model.ReasonUnparseableDate, rec.outcomes[0].Reason)
	assert.Equal(t, model.ReasonIOError, rec.outcomes[1].Reason)
	assert.True(t, oldInstant.Equal(mtime(t, files[0])))
}

func TestRun_Filter(t *testing.T) {
	files := writeMessages(t, scenario, "a.eml", "b.eml", "c.eml")
	f, err := filter.New(filter.Options{ExcludeHeader: []string{"bob@example.com"}})
	require.NoError(t, err)
	rec := &recorder{}

	summary, err := newRunner(Options{Filter: f}, rec).Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Filtered)
	assert.Equal(t, 2, summary.Total)
	assert.Len(t, rec.outcomes, 2)
	assert.Equal(t, []string{files[1]}, rec.filtered)
	assert.True(t, oldInstant.Equal(mtime(t, files[1])), "filtered file must be untouched")
}

func TestRun_Cancelled(t *testing.T) {
	files := writeMessages(t, scenario, "a.eml", "b.eml")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}

	summary, err := newRunner(Options{}, rec).Run(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Total)
	assert.True(t, rec.finished)
	for _, f := range files {
		assert.True(t, oldInstant.Equal(mtime(t, f)))
	}
}

func TestRun_Empty(t *testing.T) {
	rec := &recorder{}
	summary, err := newRunner(Options{}, rec).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, stats.Summary{}, summary)
	assert.True(t, rec.finished)
}

func TestProcess_LocalFallback(t *testing.T) {
	files := writeMessages(t, map[string]string{
		"local.eml": "Date: Tue, 5 Mar 2024 16:01:44\n\n",
	}, "local.eml")
	loc := time.FixedZone("TEST", 2*60*60)

	outcome, filtered := newRunner(Options{DryRun: true, Parser: dateparse.New(loc)}, nil).Process(files[0])
	require.False(t, filtered)
	assert.Equal(t, model.OutcomeWouldApply, outcome.Kind)
	assert.Equal(t, "local", outcome.Zone)
	assert.True(t, time.Date(2024, time.March, 5, 14, 1, 44, 0, time.UTC).Equal(outcome.Time))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want model.Reason
	}{
		{fmt.Errorf("%w: %w", header.ErrIO, os.ErrNotExist), model.ReasonIOError},
		{header.ErrHeaderNotFound, model.ReasonHeaderNotFound},
		{&dateparse.UnparseableError{Raw: "x"}, model.ReasonUnparseableDate},
		{fmt.Errorf("%w: %w", touch.ErrPermissionDenied, os.ErrPermission), model.ReasonPermissionDenied},
		{fmt.Errorf("%w: %w", touch.ErrFileNotFound, os.ErrNotExist), model.ReasonFileNotFound},
		{errors.New("something else"), model.ReasonIOError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), tt.err.Error())
	}
}
