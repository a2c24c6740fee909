package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the evidence directory layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			l := opts.layout()
			if err := l.Ensure(); err != nil {
				return err
			}
			for _, d := range l.Dirs() {
				fmt.Fprintln(opts.stdout, successStyle.Render("✓"), d)
			}
			return nil
		},
	}
}

func newManifestCmd(opts *rootOptions) *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Index captured screenshots into reports/manifest.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			l := opts.layout()
			m, err := evidence.BuildManifest(cmd.Context(), l)
			if err != nil {
				return err
			}
			for _, name := range m.Skipped {
				opts.logger.Warn("not an evidence file", "file", name)
			}
			if printOnly {
				return writeJSONTo(opts.stdout, m)
			}
			path, err := evidence.WriteManifest(l, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "%s %d artifacts indexed in %s\n",
				successStyle.Render("✓"), len(m.Artifacts), filepath.ToSlash(path))
			for _, c := range m.Counts() {
				fmt.Fprintf(opts.stdout, "  %-12s %-8s %d\n", c.Feature, c.Status, c.Total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the manifest instead of writing it")
	return cmd
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check reports/manifest.json against the screenshots on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			l := opts.layout()
			m, err := evidence.ReadManifest(filepath.Join(l.Reports(), evidence.ManifestFilename))
			if err != nil {
				return err
			}
			res := evidence.VerifyManifest(l, m)
			for _, w := range res.Warnings {
				fmt.Fprintln(opts.stdout, dimStyle.Render("! "+w))
			}
			for _, e := range res.Errors {
				fmt.Fprintln(opts.stdout, errorStyle.Render("✗"), e)
			}
			if !res.Valid {
				return fmt.Errorf("manifest verification failed: %d errors", len(res.Errors))
			}
			fmt.Fprintf(opts.stdout, "%s %d artifacts verified\n", successStyle.Render("✓"), len(m.Artifacts))
			return nil
		},
	}
}
