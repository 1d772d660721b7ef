package cmd

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestMustGetReadsRegisteredFlags(t *testing.T) {
	c := &cobra.Command{Use: "x"}
	c.Flags().Int("epochs", 7, "")
	c.Flags().Float64("threshold", 0.5, "")
	c.Flags().StringSlice("origin", []string{"a"}, "")

	if got := mustGetInt(c, "epochs"); got != 7 {
		t.Errorf("mustGetInt = %d, want 7", got)
	}
	if got := mustGetFloat64(c, "threshold"); got != 0.5 {
		t.Errorf("mustGetFloat64 = %v, want 0.5", got)
	}
	if got := mustGetStringSlice(c, "origin"); len(got) != 1 || got[0] != "a" {
		t.Errorf("mustGetStringSlice = %v", got)
	}
}

func TestMustGetPanicsOnUnknownFlag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unregistered flag")
		}
	}()
	mustGetBool(&cobra.Command{Use: "x"}, "missing")
}
