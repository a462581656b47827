package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dbf-converter/internal/dbfread/dbftest"
	"dbf-converter/internal/workspace"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	t.Setenv(workspace.EnvConfigPath, "")
	t.Setenv(workspace.EnvOutputDir, "")
	t.Setenv(workspace.EnvEncoding, "")
	return filepath.Join(t.TempDir(), "config", "settings.json")
}

func TestHarnessConvertBatchIsIdempotent(t *testing.T) {
	cfg := isolateEnv(t)
	tmp := t.TempDir()
	out := filepath.Join(tmp, "csv")
	if err := os.Mkdir(out, 0o755); err != nil {
		t.Fatal(err)
	}
	dbftest.WriteFile(t, filepath.Join(tmp, "a.dbf"), []string{"NAME", "AGE"}, [][]string{{"Alice", "30"}, {"Bob", "25"}})
	dbftest.WriteFile(t, filepath.Join(tmp, "b.dbf"), []string{"CODE"}, [][]string{{"X1"}})

	args := []string{"convert", "--config", cfg, "--output", out, "--progress=false", filepath.Join(tmp, "*.dbf")}
	if err := Run(args); err != nil {
		t.Fatalf("first convert failed: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(out, "a.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if err := Run(args); err != nil {
		t.Fatalf("second convert failed: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(out, "a.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) || string(first) != "NAME,AGE\r\nAlice,30\r\nBob,25\r\n" {
		t.Fatalf("unexpected output:\n%q\n%q", first, second)
	}
	if data, err := os.ReadFile(filepath.Join(out, "b.csv")); err != nil || string(data) != "CODE\r\nX1\r\n" {
		t.Fatalf("unexpected b.csv %q (%v)", data, err)
	}
}

func TestHarnessConvertUsesSavedSettings(t *testing.T) {
	cfg := isolateEnv(t)
	tmp := t.TempDir()
	src := filepath.Join(tmp, "a.dbf")
	dbftest.WriteFile(t, src, []string{"ID"}, [][]string{{"1"}})

	if err := Run([]string{"settings", "set", "--config", cfg, "output_dir", tmp, "line_ending", "lf"}); err != nil {
		t.Fatalf("settings set: %v", err)
	}
	if err := Run([]string{"convert", "--config", cfg, "--progress=false", src}); err != nil {
		t.Fatalf("convert: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(tmp, "a.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ID\n1\n" {
		t.Fatalf("saved line ending not applied: %q", data)
	}
}

func TestHarnessConvertReportsFailures(t *testing.T) {
	cfg := isolateEnv(t)
	tmp := t.TempDir()
	good := filepath.Join(tmp, "good.dbf")
	bad := filepath.Join(tmp, "bad.dbf")
	dbftest.WriteFile(t, good, []string{"ID"}, [][]string{{"1"}})
	if err := os.WriteFile(bad, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Run([]string{"convert", "--config", cfg, "--output", tmp, "--progress=false", bad, good})
	if err == nil || !strings.Contains(err.Error(), "1 of 2 conversions failed") {
		t.Fatalf("expected failure summary error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmp, "good.csv")); err != nil {
		t.Fatalf("job after the failed one did not run: %v", err)
	}
}

func TestHarnessConvertPreflight(t *testing.T) {
	cfg := isolateEnv(t)
	tmp := t.TempDir()
	src := filepath.Join(tmp, "a.dbf")
	dbftest.WriteFile(t, src, []string{"ID"}, [][]string{{"1"}})

	if err := Run([]string{"convert", "--config", cfg, src}); err == nil {
		t.Fatal("expected error without an output directory")
	}
	if err := Run([]string{"convert", "--config", cfg, "--output", filepath.Join(tmp, "missing"), src}); err == nil {
		t.Fatal("expected error for missing output directory")
	}
	if _, err := os.Stat(filepath.Join(tmp, "missing")); !os.IsNotExist(err) {
		t.Fatalf("output directory was created: %v", err)
	}
	if err := Run([]string{"convert", "--config", cfg, "--output", tmp}); err == nil {
		t.Fatal("expected error without input files")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := Run([]string{"frobnicate"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if err := Run([]string{"settings", "frobnicate"}); err == nil {
		t.Fatal("expected error for unknown settings subcommand")
	}
}

func TestRunSettingsSetAndRejectInvalid(t *testing.T) {
	cfg := isolateEnv(t)
	if err := Run([]string{"settings", "set", "--config", cfg, "line_ending", "lf", "progress_every", "10"}); err != nil {
		t.Fatalf("settings set: %v", err)
	}
	s, err := workspace.ReadSettings(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if s.LineEnding != workspace.LineEndingLF || s.ProgressEvery != 10 {
		t.Fatalf("unexpected saved settings: %+v", s)
	}
	if err := Run([]string{"settings", "set", "--config", cfg, "missing_field", "skip"}); err == nil {
		t.Fatal("expected invalid missing_field to be rejected")
	}
	if err := Run([]string{"settings", "set", "--config", cfg, "line_ending"}); err == nil {
		t.Fatal("expected odd argument count to be rejected")
	}
}

func TestRunVersion(t *testing.T) {
	if err := Run([]string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
}
