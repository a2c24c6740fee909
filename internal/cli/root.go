// Package cli implements the expense-e2e command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/expense-e2e/internal/config"
	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
	"github.com/Dicklesworthstone/expense-e2e/internal/logging"
)

// Version is set at build time.
var Version = "dev"

// rootOptions is shared by every subcommand.
type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string

	cfg    config.Config
	logger *log.Logger
	stdout io.Writer
}

func (o *rootOptions) layout() evidence.Layout {
	return evidence.NewLayout(o.cfg.EvidenceDir)
}

// NewRootCmd builds the command tree writing to stdout and stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout}

	cmd := &cobra.Command{
		Use:   "expense-e2e",
		Short: "Evidence and test data tooling for the Spendly acceptance suite",
		Long: `expense-e2e supports the Spendly browser acceptance suite.

Commands:
  fixture   Generate synthetic users for scenarios
  name      Print the canonical evidence filename for a step
  init      Create the evidence directory layout
  manifest  Index captured screenshots into reports/manifest.json
  verify    Check the manifest against the screenshots on disk
  summary   Summarize a JUnit or go test -json report
  serve     Browse evidence over HTTP
  bundle    Zip the evidence directory with credentials redacted
  diff      Compare the evidence of two runs`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.LoadOptions{
				ConfigPath: opts.configPath,
				EnvFile:    opts.envFile,
			})
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			logOpts := logging.DefaultOptions()
			logOpts.Output = stderr
			logOpts.Level = level
			opts.cfg = cfg
			opts.logger = logging.New(logOpts)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "TOML config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file (default .env)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(newFixtureCmd(opts))
	cmd.AddCommand(newNameCmd(opts))
	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newManifestCmd(opts))
	cmd.AddCommand(newVerifyCmd(opts))
	cmd.AddCommand(newSummaryCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newBundleCmd(opts))
	cmd.AddCommand(newDiffCmd(opts))
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}
