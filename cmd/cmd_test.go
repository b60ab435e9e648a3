package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabloom-cli/internal/workflow"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags puts every flag of c back to its default so runs don't leak state.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			def := strings.Trim(fl.DefValue, "[]")
			var vals []string
			if def != "" {
				vals = strings.Split(def, ",")
			}
			_ = sv.Replace(vals)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execRoot executes the root command with args against an isolated config file.
func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	trainFlags.prepared, edaFlags.prepared, runFlags.prepared = false, false, false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	rootCmd.SetArgs(append([]string{"--config", cfgPath, "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("x,z,color,label,y\n")
	colors := []string{"red", "green", "blue"}
	for i := 0; i < 60; i++ {
		label := "low"
		if i >= 30 {
			label = "high"
		}
		x := fmt.Sprint(i)
		if i == 7 {
			x = ""
		}
		fmt.Fprintf(&b, "%s,%d,%s,%s,%d\n", x, i%4, colors[i%3], label, 3*i+i%4)
	}
	// one exact duplicate of the last row
	fmt.Fprintf(&b, "59,3,blue,high,180\n")
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestPreview(t *testing.T) {
	out, err := execRoot(t, "preview", writeCSV(t))
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out, "61 rows × 5 columns") {
		t.Fatalf("missing shape line:\n%s", out)
	}
	if !strings.Contains(out, "(categorical)") || !strings.Contains(out, "(numeric)") {
		t.Fatalf("missing column kinds:\n%s", out)
	}
}

func TestEDAWritesCharts(t *testing.T) {
	dir := t.TempDir()
	hist := filepath.Join(dir, "hist.png")
	heat := filepath.Join(dir, "heat.png")
	report := filepath.Join(dir, "summary.md")
	out, err := execRoot(t, "eda", writeCSV(t), "--missing", "mean", "--dedup", "--column", "x", "--hist", hist, "--heatmap", heat, "-o", report)
	if err != nil {
		t.Fatalf("eda: %v", err)
	}
	for _, want := range []string{"x: 1", "Mean Imputation", "Removed 1 duplicate rows", "Rows: 60", "[SCHEMA]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	for _, p := range []string{hist, heat, report} {
		if fi, err := os.Stat(p); err != nil || fi.Size() == 0 {
			t.Fatalf("output %s not written: %v", p, err)
		}
	}
}

func TestEDAHistDefaultsToFirstColumn(t *testing.T) {
	hist := filepath.Join(t.TempDir(), "h.png")
	out, err := execRoot(t, "eda", writeCSV(t), "--hist", hist, "--json")
	if err != nil {
		t.Fatalf("eda: %v", err)
	}
	if !strings.Contains(out, "\"histogram\": {\n    \"column\": \"x\"") {
		t.Fatalf("expected histogram of the first column:\n%s", out)
	}
	if _, err := os.Stat(hist); err != nil {
		t.Fatalf("histogram not written: %v", err)
	}
}

func TestTrainClassification(t *testing.T) {
	out, err := execRoot(t, "train", writeCSV(t), "--missing", "drop", "-t", "label", "-m", "linear", "--scale")
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	for _, want := range []string{"LogisticRegression", "Accuracy: ", "weighted avg", "Dropped 1 rows"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTrainRegressionScatter(t *testing.T) {
	scatter := filepath.Join(t.TempDir(), "pred.png")
	out, err := execRoot(t, "train", writeCSV(t), "--missing", "median", "-t", "y", "--task", "regression", "-m", "forest", "--scatter", scatter)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if !strings.Contains(out, "Mean Squared Error: ") || !strings.Contains(out, "R² Score: ") {
		t.Fatalf("missing regression metrics:\n%s", out)
	}
	if _, err := os.Stat(scatter); err != nil {
		t.Fatalf("scatter not written: %v", err)
	}
}

func TestTrainErrors(t *testing.T) {
	path := writeCSV(t)
	if _, err := execRoot(t, "train", path); !errors.Is(err, workflow.ErrNoTarget) {
		t.Fatalf("expected ErrNoTarget, got %v", err)
	}
	if _, err := execRoot(t, "train", path, "-t", "label", "-m", "boosting"); err == nil {
		t.Fatalf("expected invalid model error")
	}
	if _, err := execRoot(t, "train", path, "-t", "y", "--task", "regression"); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected missing-values error, got %v", err)
	}
	if _, err := execRoot(t, "preview", path, "--delimiter", "#"); err == nil {
		t.Fatalf("expected delimiter error")
	}
}

func TestRunPagesShareSession(t *testing.T) {
	out, err := execRoot(t, "run", writeCSV(t), "--pages", "upload,eda,train", "--missing", "drop", "--dedup", "-t", "label")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Rows: 59") || strings.Count(out, "✓ Dropped") != 1 {
		t.Fatalf("expected cleaning to run once on the EDA page:\n%s", out)
	}
	if !strings.Contains(out, "RandomForestClassifier") {
		t.Fatalf("missing training output:\n%s", out)
	}
	if _, err := execRoot(t, "run", writeCSV(t), "--pages", "upload,report"); err == nil {
		t.Fatalf("expected unknown page error")
	}
}

func TestModelHelpNamesSVMKernel(t *testing.T) {
	fl := trainCmd.Flags().Lookup("model")
	if fl == nil || !strings.Contains(fl.Usage, "linear-kernel") {
		t.Fatalf("--model help should say the SVM is linear, got %+v", fl)
	}
	out, err := execRoot(t, "train", "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(out, "not RBF") {
		t.Fatalf("help output missing kernel note:\n%s", out)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	resetFlags(rootCmd)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", cfgPath, "config", "set", "hist_bins", "12"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config set: %v", err)
	}
	rootCmd.SetArgs([]string{"--config", cfgPath, "config", "show"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out.String(), "hist_bins: 12") {
		t.Fatalf("expected saved value:\n%s", out.String())
	}

	rootCmd.SetArgs([]string{"--config", cfgPath, "config", "set", "test_size", "2"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected validation error")
	}
	rootCmd.SetArgs([]string{"--config", cfgPath, "config", "set", "nope", "1"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
