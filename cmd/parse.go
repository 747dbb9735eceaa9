package cmd

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dhcgn/emltouch/dateparse"
	"github.com/dhcgn/emltouch/progress"
)

// NewParseCommand returns the parse subcommand, which runs header values given
// on the command line through the date parser.
func NewParseCommand() *cobra.Command {
	var utc bool

	c := &cobra.Command{
		Use:   "parse DATE...",
		Short: "Show how Date header values are interpreted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			parser := dateparse.New(time.Local)

			data := pterm.TableData{{"Input", "Time", "Zone", "Kind", "Strategy"}}
			failed := 0
			for _, raw := range args {
				ts, err := parser.Parse(raw)
				if err != nil {
					failed++
					data = append(data, []string{raw, "unparseable", "", "", ""})
					continue
				}
				t := ts.Time
				if utc {
					t = t.UTC()
				}
				data = append(data, []string{raw, t.Format(progress.TimeLayout), ts.ZoneLabel(), ts.Zone.String(), ts.Strategy})
			}

			if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(c.OutOrStdout()).Render(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d value(s) could not be parsed", failed, len(args))
			}
			return nil
		},
	}

	c.Flags().BoolVar(&utc, "utc", false, "Show instants in UTC")
	return c
}
