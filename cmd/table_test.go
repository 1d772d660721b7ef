package cmd

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Gait ID", "Person ID"}, [][]string{{"1", "7"}, {"2"}}, 0, 1)
	for _, want := range []string{"Gait ID", "Person ID", "7"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<nil>") {
		t.Errorf("short row rendered nil cell:\n%s", out)
	}
	if lines := strings.Count(out, "\n"); lines < 4 {
		t.Errorf("expected header, separator and two rows, got:\n%s", out)
	}
}

func TestRenderTableNoHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}
