package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"go-measure-pipeline/internal/app"
	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/model"
	"go-measure-pipeline/internal/source"
)

var ingestConcurrency int

// IngestCmd ingests one or more CSV files
var IngestCmd = &cobra.Command{
	Use:   "ingest <uri>...",
	Short: "Ingest measurement CSV files",
	Long: `Ingest measurement CSV files from local paths, http(s):// or s3:// URIs.

Each file is one all-or-nothing batch. Distinct files are ingested in parallel;
URIs resolving to the same file name run in order. Storage failures are retried
with the configured backoff.

Examples:
  pipeline ingest data/run1.csv data/run2.csv
  pipeline ingest s3://measurements/2024/run1.csv.gz
  pipeline ingest --concurrency 8 data/*.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	IngestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 4, "Maximum files ingested at once")
}

type ingestOutcome struct {
	uri    string
	result *model.IngestResult
	err    error
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	outcomes := ingestAll(ctx, a, args, ingestConcurrency)

	table := pterm.TableData{{"File", "Records", "Median", "Status"}}
	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			table = append(table, []string{o.uri, "-", "-", pterm.Red(o.err.Error())})
			continue
		}
		table = append(table, []string{
			o.result.FileName,
			fmt.Sprintf("%d", o.result.RecordCount),
			fmt.Sprintf("%g", o.result.Summary.MedianValue),
			pterm.Green("ok " + o.result.Duration.Round(time.Millisecond).String()),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
		return err
	}

	if failed > 0 {
		return errors.Newf("%d of %d files failed", failed, len(outcomes))
	}
	return nil
}

// ingestAll groups uris by file name and runs each group sequentially.
// Outcomes are returned in argument order.
func ingestAll(ctx context.Context, a *app.App, uris []string, limit int) []ingestOutcome {
	outcomes := make([]ingestOutcome, len(uris))
	groups := make(map[string][]int)
	var order []string
	for i, uri := range uris {
		name := source.FileName(uri)
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], i)
	}

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	var mu sync.Mutex
	for _, name := range order {
		idx := groups[name]
		g.Go(func() error {
			for _, i := range idx {
				result, err := a.IngestURI(ctx, uris[i])
				mu.Lock()
				outcomes[i] = ingestOutcome{uri: uris[i], result: result, err: err}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
