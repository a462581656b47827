package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"dbf-converter/internal/dbfread"
	"dbf-converter/internal/runstore"
)

type DoctorOptions struct {
	ConfigPath string
	OutputDir  string
	Encoding   string
}

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Doctor checks that a conversion could run with the current settings. It
// never creates the output directory.
func Doctor(opts DoctorOptions) (DoctorResult, error) {
	configPath := ConfigPath(opts.ConfigPath)
	checks := make([]DoctorCheck, 0, 4)

	settings, cfgErr := ReadSettings(configPath)
	checks = append(checks, configCheck(configPath, cfgErr))
	if cfgErr != nil {
		settings = DefaultSettings()
	}

	outputDir := firstNonEmpty(opts.OutputDir, os.Getenv(EnvOutputDir), settings.OutputDir)
	outOK, outMessage := checkWritableDir(outputDir)
	checks = append(checks, DoctorCheck{
		Name:    "directory:output",
		OK:      outOK,
		Message: outMessage,
	})

	encoding := firstNonEmpty(opts.Encoding, os.Getenv(EnvEncoding), settings.Encoding)
	encOK, encMessage := true, "encoding "+encoding+" supported"
	if name, err := dbfread.CheckEncoding(encoding); err != nil {
		encOK, encMessage = false, err.Error()
	} else if name == dbfread.AutoEncoding {
		encMessage = "encoding detected per file from the language driver byte (fallback " + dbfread.DefaultEncoding + ")"
	}
	checks = append(checks, DoctorCheck{
		Name:    "encoding",
		OK:      encOK,
		Message: encMessage,
	})

	if settings.LogFile != "" {
		logOK, logMessage := ensureWritableDir(filepath.Dir(settings.LogFile))
		checks = append(checks, DoctorCheck{
			Name:    "directory:logs",
			OK:      logOK,
			Message: logMessage,
		})
	}

	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			break
		}
	}
	return DoctorResult{OK: ok, Checks: checks}, nil
}

func configCheck(path string, err error) DoctorCheck {
	c := DoctorCheck{Name: "config", OK: err == nil}
	switch {
	case err != nil:
		c.Message = err.Error()
	case fileExists(path):
		c.Message = "loaded " + path
		var doc settingsFile
		if rerr := runstore.ReadJSON(path, &doc); rerr == nil {
			if verr := ValidateSettings(doc.Settings); verr != nil {
				c.OK = false
				c.Message = path + ": " + verr.Error()
			}
		}
	default:
		c.Message = path + " not found, using defaults"
	}
	return c
}

func checkWritableDir(path string) (bool, string) {
	if strings.TrimSpace(path) == "" {
		return false, "no output directory configured"
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, "output directory does not exist: " + path
		}
		return false, err.Error()
	}
	if !info.IsDir() {
		return false, "not a directory: " + path
	}
	return tryWrite(path)
}

// ensureWritableDir is for directories the tool owns, so it may create them.
func ensureWritableDir(path string) (bool, string) {
	if err := runstore.Mkdir(path); err != nil {
		return false, err.Error()
	}
	return tryWrite(path)
}

func tryWrite(dir string) (bool, string) {
	f, err := os.CreateTemp(dir, "dbf-converter-check-*.tmp")
	if err != nil {
		return false, err.Error()
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true, "writable"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
