package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/gaitid/internal/identity"
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Compare the newest person against the stored population",
	Long: `Compares the signature with the highest person id against every signature
of another person. Nothing is written to the store.`,
	Args: cobra.NoArgs,
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().Float64("threshold", 0, "Override the match threshold")
	identifyCmd.Flags().Bool("json", false, "Output the report as JSON")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if cmd.Flags().Changed("threshold") {
		a.cfg.Identity.Threshold = mustGetFloat64(cmd, "threshold")
	}

	report := a.resolver().Identify(cmd.Context())

	if mustGetBool(cmd, "json") {
		return outputJSON(cmd.OutOrStdout(), map[string]any{
			"identification": report.Message(),
			"report":         report,
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.Message())
	if report.Status == identity.Failed {
		return report.Err
	}
	return nil
}
