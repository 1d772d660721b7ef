package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/gaitid/internal/database"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect stored gait signatures",
}

var storeLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recently stored signature",
	Args:  cobra.NoArgs,
	RunE:  runStoreLatest,
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored signatures",
	Args:  cobra.NoArgs,
	RunE:  runStoreList,
}

var storeCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show the number of stored signatures",
	Args:  cobra.NoArgs,
	RunE:  runStoreCount,
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeLatestCmd, storeListCmd, storeCountCmd)

	storeLatestCmd.Flags().Bool("by-person", false, "Select by highest person id instead of highest gait id")
	storeLatestCmd.Flags().Bool("json", false, "Output as JSON")
	storeListCmd.Flags().Bool("json", false, "Output as JSON")
}

type entryOutput struct {
	GaitID   int64 `json:"gait_id"`
	PersonID int64 `json:"person_id"`
	Values   int   `json:"values"`
}

func toEntryOutput(e database.Entry) entryOutput {
	return entryOutput{GaitID: e.GaitID, PersonID: e.PersonID, Values: e.Values()}
}

func runStoreLatest(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	var entry *database.Entry
	if mustGetBool(cmd, "by-person") {
		entry, err = a.store.LatestByPerson(cmd.Context())
	} else {
		entry, err = a.store.Latest(cmd.Context())
	}
	if err != nil {
		return err
	}
	if entry == nil {
		return errors.New("no gait signature stored")
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(cmd.OutOrStdout(), toEntryOutput(*entry))
	}
	printEntries(cmd.OutOrStdout(), []database.Entry{*entry})
	return nil
}

func runStoreList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	entries, err := a.store.All(cmd.Context())
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		out := make([]entryOutput, len(entries))
		for i, e := range entries {
			out[i] = toEntryOutput(e)
		}
		return outputJSON(cmd.OutOrStdout(), out)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No gait signatures stored.")
		return nil
	}
	printEntries(cmd.OutOrStdout(), entries)
	return nil
}

func runStoreCount(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	count, err := a.store.Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signatures: %d\n", count)
	return nil
}

func printEntries(w io.Writer, entries []database.Entry) {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			strconv.FormatInt(e.GaitID, 10),
			strconv.FormatInt(e.PersonID, 10),
			strconv.Itoa(e.Values()),
		}
	}
	fmt.Fprintln(w, renderTable([]string{"Gait ID", "Person ID", "Values"}, rows, 0, 1, 2))
}
