package cli

import (
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/expense-e2e/internal/results"
	"github.com/Dicklesworthstone/expense-e2e/internal/serve"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr        string
		resultsPath string
		format      string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Browse evidence over HTTP",
		Long: `Serve the evidence directory.

Endpoints:
  GET /healthz          liveness
  GET /api/manifest     screenshot index with hashes
  GET /api/summary      run summary from --results
  GET /api/steps        step journal
  GET /api/metrics      Prometheus exposition
  GET /screenshots/*    captured images`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := results.ParseFormat(format)
			if err != nil {
				return err
			}
			srv := serve.New(serve.Config{
				Layout:        opts.layout(),
				ResultsPath:   resultsPath,
				ResultsFormat: f,
				Logger:        opts.logger,
			})
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7480", "listen address")
	cmd.Flags().StringVarP(&resultsPath, "results", "r", "", "report file for /api/summary")
	cmd.Flags().StringVar(&format, "format", string(results.FormatAuto), "report format: auto, junit or gotest")
	return cmd
}
