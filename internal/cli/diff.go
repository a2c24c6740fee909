package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/expense-e2e/internal/compare"
	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
)

func newDiffCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "diff <before-manifest> <after-manifest>",
		Short: "Compare the evidence captured by two runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := evidence.ReadManifest(args[0])
			if err != nil {
				return err
			}
			after, err := evidence.ReadManifest(args[1])
			if err != nil {
				return err
			}
			d := compare.DiffManifests(before, after)
			if asJSON {
				return writeJSONTo(opts.stdout, d)
			}
			if !d.Changed() {
				fmt.Fprintln(opts.stdout, successStyle.Render("✓"), "runs captured the same steps")
				return nil
			}
			fmt.Fprintf(opts.stdout, "%s %d added, %d removed (similarity %.0f%%)\n",
				headerStyle.Render("Evidence diff"), len(d.Added), len(d.Removed), d.Similarity*100)
			fmt.Fprint(opts.stdout, d.UnifiedDiff)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diff as JSON")
	return cmd
}
