package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
	"github.com/Dicklesworthstone/expense-e2e/internal/redaction"
	"github.com/Dicklesworthstone/expense-e2e/internal/supportbundle"
)

func newBundleCmd(opts *rootOptions) *cobra.Command {
	var (
		output string
		mode   string
	)
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Zip the evidence directory with credentials redacted",
		Long: `Pack screenshots, reports and the step journal into one zip archive.

Text artifacts are scanned for the configured test password, JWTs and bearer
tokens. Screenshots are bundled as captured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := opts.layout()
			if _, err := os.Stat(l.Root); err != nil {
				return fmt.Errorf("evidence directory: %w", err)
			}
			if output == "" {
				output = filepath.Join(filepath.Dir(filepath.Clean(l.Root)),
					"evidence-"+evidence.Timestamp(time.Now())+".zip")
			}

			g, err := supportbundle.NewGenerator(supportbundle.GeneratorConfig{
				OutputPath:  output,
				ToolVersion: Version,
				BaseURL:     opts.cfg.BaseURL,
				Redaction: redaction.Config{
					Mode:    redaction.Mode(mode),
					Secrets: []string{opts.cfg.Credentials.Password},
				},
				Logger: opts.logger,
			})
			if err != nil {
				return err
			}
			if err := g.AddDir(l.Root); err != nil {
				return fmt.Errorf("collecting evidence: %w", err)
			}
			res, err := g.Generate()
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "%s %d files bundled in %s\n",
				successStyle.Render("✓"), res.FileCount, filepath.ToSlash(res.Path))
			if res.RedactedFiles > 0 {
				fmt.Fprintln(opts.stdout, dimStyle.Render(fmt.Sprintf("  %d files had secrets (%s)", res.RedactedFiles, mode)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default: next to the evidence directory)")
	cmd.Flags().StringVar(&mode, "redaction", string(redaction.ModeRedact), "redaction mode: off|warn|redact")
	return cmd
}
