package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const OutputExt = ".csv"

// Resolve checks that source is an existing file and destDir an existing
// directory, and returns the CSV path the job will write. It only stats.
// Paths are used exactly as given; callers trim user input once, where it
// is entered.
func Resolve(source, destDir string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", fmt.Errorf("%w: please select a DBF file", ErrInvalidInput)
	}
	if strings.TrimSpace(destDir) == "" {
		return "", fmt.Errorf("%w: please select an output directory", ErrInvalidInput)
	}
	if err := CheckSource(source); err != nil {
		return "", err
	}
	if err := CheckDestination(destDir); err != nil {
		return "", err
	}
	return OutputPath(source, destDir), nil
}

func CheckSource(source string) error {
	info, err := os.Stat(source)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: input file does not exist: %s", ErrInvalidInput, source)
	}
	return nil
}

func CheckDestination(destDir string) error {
	info, err := os.Stat(destDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: output directory does not exist: %s", ErrInvalidInput, destDir)
	}
	return nil
}

// OutputPath replaces the last extension of source with .csv inside destDir.
func OutputPath(source, destDir string) string {
	return filepath.Join(destDir, Stem(source)+OutputExt)
}

func Stem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || strings.Trim(stem, ".") == "" {
		// ".hidden" has no extension, only a leading dot
		return base
	}
	return stem
}
