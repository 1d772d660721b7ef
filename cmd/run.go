package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/gaitid/internal/encoder"
)

var runCmd = &cobra.Command{
	Use:   "run <frames.json>",
	Short: "Generate a gait signature, store it and identify the person",
	Long: `Trains a fresh encoder on the frames of one walking sequence, stores the
resulting gait signature and compares the newest person against everyone else.

The frames file is either {"frames": [...]} or a raw array of estimator records.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("epochs", 0, "Override the number of training epochs")
	runCmd.Flags().Bool("json", false, "Output the result as JSON")
	runCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if epochs := mustGetInt(cmd, "epochs"); epochs > 0 {
		a.cfg.Encoder.Epochs = epochs
	}
	jsonOutput := mustGetBool(cmd, "json")

	var bar *progressbar.ProgressBar
	if !jsonOutput && !mustGetBool(cmd, "no-progress") {
		bar = progressbar.NewOptions(a.cfg.Encoder.Epochs,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Training encoder"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("epochs"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	res, err := a.engine().RunFile(cmd.Context(), args[0], func(s encoder.EpochStats) {
		if bar == nil {
			return
		}
		bar.Describe(fmt.Sprintf("Training encoder (loss %.4f / %.4f)", s.TrainLoss, s.TestLoss))
		_ = bar.Add(1)
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return fmt.Errorf("identification run failed: %w", err)
	}

	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Person ID: %d (%s)\n", res.PersonID, res.Outcome.Kind)
	fmt.Fprintf(out, "Gait ID:   %d\n", res.Outcome.GaitID)
	fmt.Fprintf(out, "Frames:    %d (signature rows: %d)\n", res.Frames, res.Rows)
	fmt.Fprintln(out, res.Message)
	return nil
}
