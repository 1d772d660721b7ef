package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/gaitid/internal/features"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <raw.json> <out.json>",
	Short: "Convert a raw pose-estimator dump into a frames document",
	Long: `Flattens the per-frame joints, betas, global_orient and body_pose arrays of a
raw estimator dump and writes the canonical {"frames": [...]} document. Other
fields such as vertices and camera translation are dropped.`,
	Args: cobra.ExactArgs(2),
	RunE: runPreprocess,
}

func init() {
	rootCmd.AddCommand(preprocessCmd)
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(args[1])
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	n, err := features.Preprocess(in, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing output: %w", closeErr)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d frames to %s\n", n, args[1])
	return nil
}
