// Package workspace owns the tool's own configuration: the JSON settings
// file, how flags and environment override it, and the doctor checks.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dbf-converter/internal/convert"
	"dbf-converter/internal/dbfread"
	"dbf-converter/internal/runstore"
)

const (
	DefaultConfigPath = "config/settings.json"

	EnvConfigPath = "DBF_CONVERTER_CONFIG"
	EnvOutputDir  = "DBF_CONVERTER_OUTPUT"
	EnvEncoding   = "DBF_CONVERTER_ENCODING"

	LineEndingCRLF = "crlf"
	LineEndingLF   = "lf"

	settingsVersion = 1
)

type Settings struct {
	OutputDir      string `json:"output_dir,omitempty"`
	Encoding       string `json:"encoding,omitempty" validate:"omitempty,dbfencoding"`
	ProgressEvery  int    `json:"progress_every,omitempty" validate:"gte=0"`
	MissingField   string `json:"missing_field,omitempty" validate:"omitempty,oneof=empty error"`
	LineEnding     string `json:"line_ending,omitempty" validate:"omitempty,oneof=crlf lf"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
	LogFile        string `json:"log_file,omitempty"`
	Debug          bool   `json:"debug,omitempty"`
}

type settingsFile struct {
	Version   int      `json:"version"`
	UpdatedAt string   `json:"updated_at,omitempty"`
	Settings  Settings `json:"settings"`
}

type UpdateSettingsOptions struct {
	ConfigPath string
	Settings   Settings
}

type UpdateSettingsResult struct {
	ConfigPath string   `json:"config_path"`
	Settings   Settings `json:"settings"`
}

func DefaultSettings() Settings {
	return Settings{
		Encoding:      dbfread.AutoEncoding,
		ProgressEvery: convert.BatchProgressEvery,
		MissingField:  convert.MissingFieldEmpty,
		LineEnding:    LineEndingCRLF,
	}
}

// SettingKeys lists the keys accepted by SetValue, in display order.
var SettingKeys = []string{
	"output_dir",
	"encoding",
	"progress_every",
	"missing_field",
	"line_ending",
	"include_deleted",
	"log_file",
	"debug",
}

func normalizeSettings(raw Settings) Settings {
	norm := raw
	norm.OutputDir = strings.TrimSpace(norm.OutputDir)
	norm.Encoding = strings.TrimSpace(norm.Encoding)
	if norm.Encoding == "" {
		norm.Encoding = dbfread.AutoEncoding
	}
	if norm.ProgressEvery <= 0 {
		norm.ProgressEvery = convert.BatchProgressEvery
	}
	norm.MissingField = normalizeMissingField(norm.MissingField)
	norm.LineEnding = normalizeLineEnding(norm.LineEnding)
	norm.LogFile = strings.TrimSpace(norm.LogFile)
	return norm
}

func normalizeMissingField(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case convert.MissingFieldError:
		return convert.MissingFieldError
	default:
		return convert.MissingFieldEmpty
	}
}

func normalizeLineEnding(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case LineEndingLF, "\n", "unix":
		return LineEndingLF
	default:
		return LineEndingCRLF
	}
}

// ConfigPath picks the settings file: explicit flag, then
// DBF_CONVERTER_CONFIG, then DefaultConfigPath.
func ConfigPath(flagValue string) string {
	return firstNonEmpty(flagValue, os.Getenv(EnvConfigPath), DefaultConfigPath)
}

// ReadSettings loads the settings file. A missing file yields defaults.
func ReadSettings(configPath string) (Settings, error) {
	path := ConfigPath(configPath)
	var doc settingsFile
	if err := runstore.ReadJSON(path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, err
	}
	return normalizeSettings(doc.Settings), nil
}

func UpdateSettings(opts UpdateSettingsOptions) (UpdateSettingsResult, error) {
	path := ConfigPath(opts.ConfigPath)
	if err := ValidateSettings(opts.Settings); err != nil {
		return UpdateSettingsResult{}, err
	}
	next := normalizeSettings(opts.Settings)
	doc := settingsFile{
		Version:   settingsVersion,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Settings:  next,
	}
	if err := runstore.WriteJSON(path, doc); err != nil {
		return UpdateSettingsResult{}, err
	}
	return UpdateSettingsResult{ConfigPath: path, Settings: next}, nil
}

// SetValue assigns one setting from its string form.
func SetValue(s *Settings, key, value string) error {
	v := strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "output_dir":
		s.OutputDir = v
	case "encoding":
		name, err := dbfread.CheckEncoding(v)
		if err != nil {
			return err
		}
		s.Encoding = name
	case "progress_every":
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("progress_every must be a positive integer, got %q", value)
		}
		s.ProgressEvery = n
	case "missing_field":
		switch strings.ToLower(v) {
		case convert.MissingFieldEmpty, convert.MissingFieldError:
			s.MissingField = strings.ToLower(v)
		default:
			return fmt.Errorf("missing_field must be %q or %q", convert.MissingFieldEmpty, convert.MissingFieldError)
		}
	case "line_ending":
		switch strings.ToLower(v) {
		case LineEndingCRLF, LineEndingLF:
			s.LineEnding = strings.ToLower(v)
		default:
			return fmt.Errorf("line_ending must be %q or %q", LineEndingCRLF, LineEndingLF)
		}
	case "include_deleted":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("include_deleted must be true or false, got %q", value)
		}
		s.IncludeDeleted = b
	case "log_file":
		s.LogFile = v
	case "debug":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("debug must be true or false, got %q", value)
		}
		s.Debug = b
	default:
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(SettingKeys, ", "))
	}
	return nil
}

// Overrides are per-invocation values from command flags. Zero values mean
// "not set".
type Overrides struct {
	OutputDir      string
	Encoding       string
	ProgressEvery  int
	MissingField   string
	LineEnding     string
	IncludeDeleted *bool
}

type Resolved struct {
	OutputDir string
	Options   convert.Options
}

// Resolve merges flags, environment and settings into conversion options.
// Precedence is flag, then environment, then settings file, then defaults.
// single selects the per-record progress cadence unless a cadence is given
// explicitly.
func Resolve(s Settings, o Overrides, single bool) (Resolved, error) {
	if o.ProgressEvery < 0 {
		return Resolved{}, fmt.Errorf("progress cadence must be >= 0")
	}
	norm := normalizeSettings(s)

	encoding, err := dbfread.CheckEncoding(firstNonEmpty(o.Encoding, os.Getenv(EnvEncoding), norm.Encoding))
	if err != nil {
		return Resolved{}, err
	}

	singleEvery := 0
	if single {
		singleEvery = convert.SingleProgressEvery
	}
	every := firstPositive(o.ProgressEvery, singleEvery, norm.ProgressEvery, convert.BatchProgressEvery)

	missing := norm.MissingField
	if strings.TrimSpace(o.MissingField) != "" {
		missing = strings.ToLower(strings.TrimSpace(o.MissingField))
		if missing != convert.MissingFieldEmpty && missing != convert.MissingFieldError {
			return Resolved{}, fmt.Errorf("missing field policy must be %q or %q", convert.MissingFieldEmpty, convert.MissingFieldError)
		}
	}

	lineEnding := norm.LineEnding
	if strings.TrimSpace(o.LineEnding) != "" {
		lineEnding = normalizeLineEnding(o.LineEnding)
	}

	includeDeleted := norm.IncludeDeleted
	if o.IncludeDeleted != nil {
		includeDeleted = *o.IncludeDeleted
	}

	return Resolved{
		OutputDir: firstNonEmpty(o.OutputDir, os.Getenv(EnvOutputDir), norm.OutputDir),
		Options: convert.Options{
			Encoding:       encoding,
			IncludeDeleted: includeDeleted,
			ProgressEvery:  every,
			MissingField:   missing,
			UseCRLF:        lineEnding == LineEndingCRLF,
		},
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
