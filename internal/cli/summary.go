package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
	"github.com/Dicklesworthstone/expense-e2e/internal/metrics"
	"github.com/Dicklesworthstone/expense-e2e/internal/results"
)

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	var (
		resultsPath string
		format      string
		output      string
		write       bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize a test report",
		Long: `Summarize a JUnit XML or go test -json report.

Output formats:
  json        the run summary document
  table       a human readable table
  prometheus  exposition text including evidence counts`,
		Example: `  expense-e2e summary --results test-evidence/junit-results.xml
  go test -json -tags e2e ./e2e/... > run.jsonl && expense-e2e summary --results run.jsonl --output table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := results.ParseFormat(format)
			if err != nil {
				return err
			}
			res, err := results.Load(resultsPath, f)
			if err != nil {
				return err
			}
			summary := evidence.BuildSummary(res, time.Now())

			switch output {
			case "json":
				doc, err := summary.JSON()
				if err != nil {
					return err
				}
				if write {
					l := opts.layout()
					if err := os.MkdirAll(l.Reports(), 0755); err != nil {
						return err
					}
					path := filepath.Join(l.Reports(), "summary.json")
					if err := os.WriteFile(path, []byte(doc+"\n"), 0644); err != nil {
						return fmt.Errorf("writing summary: %w", err)
					}
					opts.logger.Info("summary written", "path", path)
				}
				_, err = fmt.Fprintln(opts.stdout, doc)
				return err
			case "table":
				_, err := fmt.Fprint(opts.stdout, renderSummaryTable(summary, res))
				return err
			case "prometheus":
				m, err := evidence.BuildManifest(cmd.Context(), opts.layout())
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(opts.stdout, metrics.Export(summary, m))
				return err
			default:
				return fmt.Errorf("unknown output %q (want json, table or prometheus)", output)
			}
		},
	}
	cmd.Flags().StringVarP(&resultsPath, "results", "r", "test-evidence/junit-results.xml", "report file")
	cmd.Flags().StringVar(&format, "format", string(results.FormatAuto), "report format: auto, junit or gotest")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output: json, table or prometheus")
	cmd.Flags().BoolVar(&write, "write", false, "also write reports/summary.json")
	return cmd
}
