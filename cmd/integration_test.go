package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cobra.OnInitialize(loadConfig)
	os.Exit(m.Run())
}

// resetFlags clears values and Changed state that stick to the global
// command tree between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its output.
func runCmd(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

// isolate points HOME at a temp dir and writes a small sales file there.
func isolate(t *testing.T) (home, csvPath string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("QUERYLOOM_PROVIDER", "none")
	csvPath = filepath.Join(home, "sales.csv")
	data := "product,region,revenue\n" +
		"Apples,North,10\n" +
		"Bananas,South,20\n" +
		"Cherries,North,30\n" +
		"Dates,South,1000\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(data), 0o644))
	return home, csvPath
}

func TestCLI_AskAnswersLocally(t *testing.T) {
	_, csv := isolate(t)
	out := runCmd(t, "", "ask", csv, "what is the total revenue?")
	assert.Contains(t, out, "1060")
	assert.Contains(t, out, "(local)")
}

func TestCLI_AskJSON(t *testing.T) {
	_, csv := isolate(t)
	out := runCmd(t, "", "ask", "--json", csv, "show", "me", "top", "3", "products")
	var resp struct {
		AnswerText string  `json:"answer_text"`
		Confidence float64 `json:"confidence"`
		Source     string  `json:"source"`
		Chart      struct {
			Kind       string   `json:"kind"`
			Categories []string `json:"categories"`
		} `json:"chart"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "local", resp.Source)
	assert.Equal(t, "bar", resp.Chart.Kind)
	assert.Equal(t, []string{"Dates", "Cherries", "Bananas"}, resp.Chart.Categories)
	assert.Greater(t, resp.Confidence, 0.0)
}

func TestCLI_BatchKeepsInputOrder(t *testing.T) {
	home, csv := isolate(t)
	qs := filepath.Join(home, "questions.txt")
	questions := []string{"what is the total revenue?", "# skipped", "", "are there any anomalies?", "show me the trend"}
	require.NoError(t, os.WriteFile(qs, []byte(strings.Join(questions, "\n")), 0o644))

	out := runCmd(t, "", "batch", csv, "--questions", qs, "--workers", "3", "--json")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	want := []string{"what is the total revenue?", "are there any anomalies?", "show me the trend"}
	for i, line := range lines {
		var r struct {
			Question string `json:"question"`
			Response struct {
				Source     string  `json:"source"`
				Confidence float64 `json:"confidence"`
			} `json:"response"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		assert.Equal(t, want[i], r.Question)
		assert.Equal(t, "local", r.Response.Source)
	}
}

func TestCLI_ChatKeepsHistory(t *testing.T) {
	_, csv := isolate(t)
	out := runCmd(t, "what is the total revenue?\n:history\n:quit\n", "chat", csv)
	assert.Contains(t, out, "✓ Loaded sales.csv")
	assert.Contains(t, out, "1060")
	assert.Contains(t, out, " 1. [local] what is the total revenue?")
}

func TestCLI_ProfileAndCatalog(t *testing.T) {
	_, csv := isolate(t)
	out := runCmd(t, "", "profile", csv)
	assert.Contains(t, out, "revenue")
	assert.Contains(t, out, "numeric")
	assert.Contains(t, out, "Try asking:")

	out = runCmd(t, "", "catalog", "match", "show", "me", "top", "3", "products")
	assert.Contains(t, out, "ranking")

	out = runCmd(t, "", "catalog", "stats")
	assert.Contains(t, out, "anomaly")
	assert.Contains(t, out, "Total")
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home, _ := isolate(t)
	path := filepath.Join(home, "cfg.yaml")
	runCmd(t, "", "--config", path, "config", "set", "external_timeout_ms", "1500")
	out := runCmd(t, "", "--config", path, "config", "show")
	assert.Contains(t, out, "external_timeout_ms: 1500")
	assert.Contains(t, out, "provider: none")

	resetFlags(rootCmd)
	rootCmd.SetArgs([]string{"--config", path, "config", "set", "provider", "fax"})
	assert.Error(t, rootCmd.Execute())
}
