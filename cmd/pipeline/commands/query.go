package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
	"go-measure-pipeline/pkg/utils"
)

var (
	queryFileName   string
	queryMinStart   string
	queryMaxStart   string
	queryMinAvg     string
	queryMaxAvg     string
	queryMinExec    string
	queryMaxExec    string
	queryJSONOutput bool
	recentLimit     int
)

// QueryCmd lists summaries matching a filter
var QueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query file summaries",
	Long: `Query per-file summaries. All bounds are optional, inclusive and ANDed.
Dates without an offset are read in ingest.input_timezone.

Examples:
  pipeline query
  pipeline query --min-avg 10 --max-avg 20
  pipeline query --from "2024-01-01 00:00:00" --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := buildFilter()
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		summaries, err := a.Pipeline.QuerySummaries(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if queryJSONOutput {
			return printJSON(summaries)
		}
		return renderSummaries(summaries)
	},
}

// RecentCmd shows the newest records of one file
var RecentCmd = &cobra.Command{
	Use:   "recent <file>",
	Short: "Show the most recent records of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.Pipeline.RecentRecordsN(cmd.Context(), args[0], recentLimit)
		if err != nil {
			return err
		}
		if queryJSONOutput {
			return printJSON(records)
		}
		if len(records) == 0 {
			pterm.Info.Printfln("No records for %s", args[0])
			return nil
		}
		table := pterm.TableData{{"Date (UTC)", "Execution time (s)", "Value"}}
		for _, r := range records {
			table = append(table, []string{
				r.Timestamp.Format(time.DateTime),
				fmt.Sprintf("%d", r.ExecutionTime),
				fmt.Sprintf("%g", r.Value),
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
			return err
		}
		total, err := a.Store.CountRecords(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		pterm.Info.Printfln("Showing %d of %d records for %s", len(records), total, args[0])
		return nil
	},
}

func init() {
	addFilterFlags(QueryCmd.Flags())
	QueryCmd.Flags().BoolVar(&queryJSONOutput, "json", false, "Print JSON instead of a table")

	RecentCmd.Flags().IntVar(&recentLimit, "limit", 0, "Number of records (default ingest.recent_limit)")
	RecentCmd.Flags().BoolVar(&queryJSONOutput, "json", false, "Print JSON instead of a table")
}

// addFilterFlags registers the summary filter flags shared by query and export
func addFilterFlags(f *pflag.FlagSet) {
	f.StringVar(&queryFileName, "file", "", "Exact file name")
	f.StringVar(&queryMinStart, "from", "", "Lower bound on the earliest record date")
	f.StringVar(&queryMaxStart, "to", "", "Upper bound on the earliest record date")
	f.StringVar(&queryMinAvg, "min-avg", "", "Lower bound on the average value")
	f.StringVar(&queryMaxAvg, "max-avg", "", "Upper bound on the average value")
	f.StringVar(&queryMinExec, "min-exec", "", "Lower bound on the average execution time")
	f.StringVar(&queryMaxExec, "max-exec", "", "Upper bound on the average execution time")
}

func buildFilter() (model.SummaryFilter, error) {
	f := model.SummaryFilter{FileName: queryFileName}
	loc, err := cfg.Ingest.Location()
	if err != nil {
		return f, err
	}

	if f.MinStartDate, err = utils.ParseOptionalTime(queryMinStart, loc); err != nil {
		return f, errors.InvalidRequestf("--from: %v", err)
	}
	if f.MaxStartDate, err = utils.ParseOptionalTime(queryMaxStart, loc); err != nil {
		return f, errors.InvalidRequestf("--to: %v", err)
	}

	floats := []struct {
		flag string
		raw  string
		dst  **float64
	}{
		{"--min-avg", queryMinAvg, &f.MinAverageValue},
		{"--max-avg", queryMaxAvg, &f.MaxAverageValue},
		{"--min-exec", queryMinExec, &f.MinAverageExecutionTime},
		{"--max-exec", queryMaxExec, &f.MaxAverageExecutionTime},
	}
	for _, p := range floats {
		if *p.dst, err = utils.ParseOptionalFloat(p.raw); err != nil {
			return f, errors.InvalidRequestf("%s: %v", p.flag, err)
		}
	}
	return f, nil
}

func renderSummaries(summaries []model.Summary) error {
	if len(summaries) == 0 {
		pterm.Info.Println("No summaries match")
		return nil
	}
	table := pterm.TableData{{"File", "Min date (UTC)", "Delta (s)", "Avg exec", "Avg value", "Median", "Min", "Max"}}
	for _, s := range summaries {
		table = append(table, []string{
			s.FileName,
			s.MinDate.Format(time.DateTime),
			fmt.Sprintf("%d", s.TimeDeltaSeconds),
			fmt.Sprintf("%.2f", s.AverageExecutionTime),
			fmt.Sprintf("%.2f", s.AverageValue),
			fmt.Sprintf("%g", s.MedianValue),
			fmt.Sprintf("%g", s.MinValue),
			fmt.Sprintf("%g", s.MaxValue),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
