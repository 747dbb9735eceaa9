package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhcgn/emltouch/config"
	"github.com/dhcgn/emltouch/dateparse"
	"github.com/dhcgn/emltouch/model"
	"github.com/dhcgn/emltouch/runner"
	"github.com/dhcgn/emltouch/stats"
	"github.com/dhcgn/emltouch/touch"
	"github.com/dhcgn/emltouch/walker"
)

// Categories tracked by the date-stats command, in print order.
var categories = []string{"Strategy", "Zone", "Reason", "Year", "Mtime"}

// DateReport counts how the Date headers of a set of files were parsed.
type DateReport struct {
	Summary  stats.Summary
	Counters map[string]map[string]int
}

func NewDateReport() *DateReport {
	counters := make(map[string]map[string]int, len(categories))
	for _, c := range categories {
		counters[c] = make(map[string]int)
	}
	return &DateReport{Counters: counters}
}

// Add records one outcome.
func (r *DateReport) Add(o model.Outcome) {
	r.Summary = r.Summary.Record(o)
	if o.Kind == model.OutcomeSkipped {
		r.Counters["Reason"][string(o.Reason)]++
		return
	}
	r.Counters["Strategy"][o.Strategy]++
	r.Counters["Zone"][o.Zone]++
	r.Counters["Year"][strconv.Itoa(o.Time.Year())]++
}

// AddMtime records whether the modification time of path already matches
// the instant from its Date header.
func (r *DateReport) AddMtime(path string, t time.Time) {
	same, err := touch.Matches(path, t)
	switch {
	case err != nil:
		r.Counters["Mtime"]["unknown"]++
	case same:
		r.Counters["Mtime"]["matches"]++
	default:
		r.Counters["Mtime"]["differs"]++
	}
}

// Print writes the top entries of every category to w.
func (r *DateReport) Print(w io.Writer, topN int) {
	fmt.Fprintf(w, "Analysed %d file(s): %d parsed, %d failed\n\n", r.Summary.Total, r.Summary.Succeeded, r.Summary.Failed)
	for _, category := range categories {
		if len(r.Counters[category]) == 0 {
			continue
		}
		fmt.Fprintf(w, "Top %d %s:\n", topN, category)
		stats.PrettyPrintTop(w, r.Counters[category], topN)
		fmt.Fprintln(w)
	}
}

// NewDateStatsCommand returns the date-stats subcommand. It parses every
// Date header below PATH without modifying any file.
func NewDateStatsCommand() *cobra.Command {
	var (
		reportDir string
		topN      int
	)

	c := &cobra.Command{
		Use:   "date-stats [PATH]",
		Short: "Analyse the Date headers of messages without touching them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(c, args)
			if err != nil {
				return err
			}

			files, err := walker.Find(walker.Options{
				Root:      cfg.Path,
				Pattern:   cfg.Pattern,
				Recursive: cfg.Recursive,
			}, slog.Default())
			if err != nil {
				return fmt.Errorf("walker.Find: %w", err)
			}

			out := c.OutOrStdout()
			fmt.Fprintln(out, "Analysing Date headers in:", cfg.Path)

			// A dry-run runner never touches the files.
			r := runner.New(runner.Options{
				DryRun:         true,
				MaxHeaderBytes: cfg.MaxHeaderBytes,
				Parser:         dateparse.New(time.Local),
			}, nil, slog.Default())

			report := NewDateReport()
			for _, path := range files {
				if err := c.Context().Err(); err != nil {
					return err
				}
				outcome, _ := r.Process(path)
				report.Add(outcome)
				if outcome.Succeeded() {
					report.AddMtime(path, outcome.Time)
				}
			}

			report.Print(out, topN)

			if reportDir == "" {
				return nil
			}
			if err := saveCSVReports(report.Counters, categories, reportDir, 1000); err != nil {
				return fmt.Errorf("error saving CSV reports: %w", err)
			}
			fmt.Fprintf(out, "Reports saved to directory: %s\n", reportDir)
			return nil
		},
	}

	c.Flags().StringVarP(&reportDir, "output", "o", "", "Output directory for CSV reports (no reports when empty)")
	c.Flags().IntVarP(&topN, "top", "t", 10, "Number of top items to display per category")
	config.RegisterWalkFlags(c)
	return c
}

func saveCSVReports(counter map[string]map[string]int, names []string, dir string, limit int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, name := range names {
		filePath := filepath.Join(dir, fmt.Sprintf("report_%s.csv", normalizeName(name)))
		if err := writeCSV(filePath, stats.Top(counter[name], limit)); err != nil {
			return err
		}
	}

	return nil
}

func writeCSV(path string, pairs []stats.Pair) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"Value", "Count"}); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := writer.Write([]string{p.Key, strconv.Itoa(p.Value)}); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
