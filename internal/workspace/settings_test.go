package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dbf-converter/internal/convert"
	"dbf-converter/internal/dbfread"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvOutputDir, "")
	t.Setenv(EnvEncoding, "")
}

func TestReadSettingsDefaultsWhenConfigMissing(t *testing.T) {
	clearEnv(t)
	cfg := filepath.Join(t.TempDir(), "missing.json")

	s, err := ReadSettings(cfg)
	if err != nil {
		t.Fatalf("read settings failed: %v", err)
	}
	if s != DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", s)
	}
	if _, err := os.Stat(cfg); !os.IsNotExist(err) {
		t.Fatalf("reading settings must not create the file: %v", err)
	}
}

func TestUpdateSettingsRoundTripAndNormalizes(t *testing.T) {
	clearEnv(t)
	cfg := filepath.Join(t.TempDir(), "config", "settings.json")

	res, err := UpdateSettings(UpdateSettingsOptions{
		ConfigPath: cfg,
		Settings: Settings{
			OutputDir:    " /srv/csv ",
			LineEnding:   "LF",
			MissingField: "ERROR",
		},
	})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if res.ConfigPath != cfg {
		t.Fatalf("config path mismatch: %q", res.ConfigPath)
	}

	s, err := ReadSettings(cfg)
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}
	if s.OutputDir != "/srv/csv" || s.LineEnding != LineEndingLF || s.MissingField != convert.MissingFieldError {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if s.ProgressEvery != convert.BatchProgressEvery || s.Encoding != dbfread.AutoEncoding {
		t.Fatalf("defaults not filled in: %+v", s)
	}
}

func TestUpdateSettingsRejectsUnknownEncoding(t *testing.T) {
	clearEnv(t)
	cfg := filepath.Join(t.TempDir(), "settings.json")
	if _, err := UpdateSettings(UpdateSettingsOptions{ConfigPath: cfg, Settings: Settings{Encoding: "klingon"}}); err == nil {
		t.Fatal("expected error for unknown encoding")
	}
	if _, err := os.Stat(cfg); !os.IsNotExist(err) {
		t.Fatalf("rejected settings were written: %v", err)
	}
}

func TestConfigPathPrecedence(t *testing.T) {
	clearEnv(t)
	if got := ConfigPath(""); got != DefaultConfigPath {
		t.Fatalf("default config path: %q", got)
	}
	t.Setenv(EnvConfigPath, "/etc/dbf.json")
	if got := ConfigPath(""); got != "/etc/dbf.json" {
		t.Fatalf("env config path: %q", got)
	}
	if got := ConfigPath("local.json"); got != "local.json" {
		t.Fatalf("flag config path: %q", got)
	}
}

func TestSetValue(t *testing.T) {
	s := DefaultSettings()
	for key, value := range map[string]string{
		"output_dir":      "/out",
		"encoding":        "cp1252",
		"progress_every":  "10",
		"missing_field":   "error",
		"line_ending":     "lf",
		"include_deleted": "true",
		"debug":           "1",
		"log_file":        "logs/dbf.log",
	} {
		if err := SetValue(&s, key, value); err != nil {
			t.Fatalf("set %s=%s: %v", key, value, err)
		}
	}
	want := Settings{
		OutputDir:      "/out",
		Encoding:       "windows-1252",
		ProgressEvery:  10,
		MissingField:   convert.MissingFieldError,
		LineEnding:     LineEndingLF,
		IncludeDeleted: true,
		LogFile:        "logs/dbf.log",
		Debug:          true,
	}
	if s != want {
		t.Fatalf("got %+v want %+v", s, want)
	}

	bad := [][2]string{
		{"progress_every", "0"},
		{"missing_field", "skip"},
		{"line_ending", "cr"},
		{"include_deleted", "maybe"},
		{"encoding", "klingon"},
		{"colour", "blue"},
	}
	for _, kv := range bad {
		if err := SetValue(&s, kv[0], kv[1]); err == nil {
			t.Fatalf("expected error for %s=%s", kv[0], kv[1])
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	clearEnv(t)
	s := Settings{OutputDir: "/from/settings", Encoding: "cp1252", ProgressEvery: 20, LineEnding: LineEndingLF}

	r, err := Resolve(s, Overrides{}, false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.OutputDir != "/from/settings" || r.Options.Encoding != "windows-1252" || r.Options.ProgressEvery != 20 || r.Options.UseCRLF {
		t.Fatalf("settings not applied: %+v", r)
	}

	t.Setenv(EnvOutputDir, "/from/env")
	t.Setenv(EnvEncoding, "UTF8")
	r, err = Resolve(s, Overrides{}, false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.OutputDir != "/from/env" || r.Options.Encoding != "UTF8" {
		t.Fatalf("env not applied: %+v", r)
	}

	yes := true
	r, err = Resolve(s, Overrides{
		OutputDir:      "/from/flag",
		ProgressEvery:  5,
		LineEnding:     "crlf",
		MissingField:   "error",
		IncludeDeleted: &yes,
	}, false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.OutputDir != "/from/flag" || r.Options.ProgressEvery != 5 || !r.Options.UseCRLF ||
		r.Options.MissingField != convert.MissingFieldError || !r.Options.IncludeDeleted {
		t.Fatalf("flags not applied: %+v", r)
	}
}

func TestResolveSingleFileCadence(t *testing.T) {
	clearEnv(t)
	r, err := Resolve(DefaultSettings(), Overrides{}, true)
	if err != nil {
		t.Fatal(err)
	}
	if r.Options.ProgressEvery != convert.SingleProgressEvery {
		t.Fatalf("expected per-record progress, got %d", r.Options.ProgressEvery)
	}
	r, err = Resolve(DefaultSettings(), Overrides{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if r.Options.ProgressEvery != convert.BatchProgressEvery {
		t.Fatalf("expected batch cadence, got %d", r.Options.ProgressEvery)
	}
}

func TestResolveRejectsBadOverrides(t *testing.T) {
	clearEnv(t)
	if _, err := Resolve(DefaultSettings(), Overrides{Encoding: "klingon"}, false); err == nil {
		t.Fatal("expected encoding error")
	}
	if _, err := Resolve(DefaultSettings(), Overrides{MissingField: "skip"}, false); err == nil {
		t.Fatal("expected missing field policy error")
	}
	if _, err := Resolve(DefaultSettings(), Overrides{ProgressEvery: -1}, false); err == nil {
		t.Fatal("expected cadence error")
	}
}

func TestValidateSettings(t *testing.T) {
	cases := []struct {
		name    string
		in      Settings
		wantErr string
	}{
		{name: "zero value", in: Settings{}},
		{name: "mixed case enums", in: Settings{MissingField: " Error ", LineEnding: "LF", Encoding: "cp1252"}},
		{name: "unknown missing policy", in: Settings{MissingField: "skip"}, wantErr: `"missing_field"`},
		{name: "unknown line ending", in: Settings{LineEnding: "cr"}, wantErr: `"line_ending"`},
		{name: "negative cadence", in: Settings{ProgressEvery: -1}, wantErr: `"progress_every"`},
		{name: "unknown encoding", in: Settings{Encoding: "klingon"}, wantErr: `"encoding"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSettings(tc.in)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tc.wantErr)
			}
		})
	}
}

func TestUpdateSettingsRejectsUnknownPolicy(t *testing.T) {
	clearEnv(t)
	cfg := filepath.Join(t.TempDir(), "settings.json")
	if _, err := UpdateSettings(UpdateSettingsOptions{ConfigPath: cfg, Settings: Settings{MissingField: "skip"}}); err == nil {
		t.Fatal("expected error for unknown missing_field policy")
	}
}
