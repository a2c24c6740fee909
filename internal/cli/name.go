package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
)

func newNameCmd(opts *rootOptions) *cobra.Command {
	var (
		feature  string
		testName string
		step     string
		status   string
		at       string
		withPath bool
	)
	cmd := &cobra.Command{
		Use:   "name",
		Short: "Print the canonical evidence filename for a step",
		Example: `  expense-e2e name --feature login --test happy-path-login --step "form filled"
  expense-e2e name --feature login --test t --step s --at 2025-08-19T12:30:45.123Z --path`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if feature == "" {
				return fmt.Errorf("--feature is required")
			}
			st := evidence.Status(strings.ToUpper(status))
			if st != evidence.StatusSuccess && st != evidence.StatusFailure {
				return fmt.Errorf("unknown status %q (want SUCCESS or FAILURE)", status)
			}
			ts := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339Nano, at)
				if err != nil {
					return fmt.Errorf("parsing --at: %w", err)
				}
				ts = parsed
			}
			name := evidence.Filename(feature, testName, step, st, evidence.Timestamp(ts))
			if withPath {
				name = filepath.ToSlash(opts.layout().ScreenshotPath(name))
			}
			_, err := fmt.Fprintln(opts.stdout, name)
			return err
		},
	}
	cmd.Flags().StringVar(&feature, "feature", "", "feature label (login, register, groups)")
	cmd.Flags().StringVar(&testName, "test", "", "test name")
	cmd.Flags().StringVar(&step, "step", "", "step label")
	cmd.Flags().StringVar(&status, "status", string(evidence.StatusSuccess), "SUCCESS or FAILURE")
	cmd.Flags().StringVar(&at, "at", "", "capture instant (RFC 3339), default now")
	cmd.Flags().BoolVar(&withPath, "path", false, "print the full path under the evidence root")
	return cmd
}
