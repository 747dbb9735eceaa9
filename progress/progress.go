package progress

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/term"

	"github.com/dhcgn/emltouch/model"
	"github.com/dhcgn/emltouch/stats"
)

// TimeLayout is used for every timestamp shown to the user.
const TimeLayout = "2006-01-02 15:04:05 -0700"

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Console prints per-file lines, a progress bar and the final summary.
type Console struct {
	out         io.Writer
	verbose     bool
	interactive bool
	dryRun      bool

	pb *pterm.ProgressbarPrinter

	info    *pterm.PrefixPrinter
	success *pterm.PrefixPrinter
	warning *pterm.PrefixPrinter
	failure *pterm.PrefixPrinter
}

// New creates a Console writing to out. The progress bar is only used when
// interactive is set and verbose output is off.
func New(out io.Writer, verbose, interactive bool) *Console {
	return &Console{
		out:         out,
		verbose:     verbose,
		interactive: interactive,
		info:        pterm.Info.WithWriter(out),
		success:     pterm.Success.WithWriter(out),
		warning:     pterm.Warning.WithWriter(out),
		failure:     pterm.Error.WithWriter(out),
	}
}

func (c *Console) Start(total int, dryRun bool) {
	c.dryRun = dryRun

	c.info.Printfln("Found %d file(s) to process", total)
	if dryRun {
		c.warning.Println("DRY RUN - no files will be modified")
	}

	if c.interactive && !c.verbose && !dryRun && total > 0 {
		pb, err := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("Setting file times").
			WithWriter(c.out).
			Start()
		if err == nil {
			c.pb = pb
		}
	}
}

func (c *Console) Report(o model.Outcome) {
	c.advance(o.Path)

	switch o.Kind {
	case model.OutcomeApplied:
		if c.verbose {
			c.success.Printfln("Set %s to %s (%s, %s)", o.Path, o.Time.Format(TimeLayout), o.Zone, o.Strategy)
		}
	case model.OutcomeWouldApply:
		c.info.Printfln("Would set %s to %s (%s, %s)", o.Path, o.Time.Format(TimeLayout), o.Zone, o.Strategy)
	case model.OutcomeSkipped:
		if o.Err != nil {
			c.failure.Printfln("Skipped %s: %s: %v", o.Path, o.Reason, o.Err)
		} else {
			c.failure.Printfln("Skipped %s: %s", o.Path, o.Reason)
		}
	}
}

// Filtered advances the progress bar for a file the header filter rejected.
func (c *Console) Filtered(path string) {
	c.advance(path)
	if c.verbose {
		c.info.Printfln("Filtered %s", path)
	}
}

func (c *Console) advance(path string) {
	if c.pb != nil {
		c.pb.UpdateTitle(shorten(filepath.Base(path), 40))
		c.pb.Increment()
	}
}

func (c *Console) Finish(s stats.Summary, elapsed time.Duration) {
	if c.pb != nil {
		_, _ = c.pb.Stop()
		c.pb = nil
	}

	pterm.Fprintln(c.out)
	pterm.DefaultSection.WithWriter(c.out).Println("Summary")
	if c.dryRun {
		c.info.Printfln("Would set: %d", s.WouldApply)
	}
	c.success.Printfln("Succeeded: %d", s.Succeeded)
	c.failure.Printfln("Failed: %d", s.Failed)
	for _, reason := range s.SortedReasons() {
		c.failure.Printfln("  %s: %d", reason, s.Reasons[reason])
	}
	if s.Filtered > 0 {
		c.info.Printfln("Filtered out: %d", s.Filtered)
	}
	c.info.Printfln("Total files: %d", s.Total)
	c.info.Printfln("Duration: %v", elapsed.Round(time.Millisecond))
}

// shorten cuts s to at most limit runes.
func shorten(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
