// Package convert turns one decoded DBF table into one CSV file.
package convert

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"dbf-converter/internal/dbfread"
	"dbf-converter/internal/model"
)

const (
	BatchProgressEvery  = 50
	SingleProgressEvery = 1

	MissingFieldEmpty = "empty"
	MissingFieldError = "error"
)

type Options struct {
	Encoding       string
	IncludeDeleted bool
	// ProgressEvery is the record cadence for progress events; <=0 uses
	// BatchProgressEvery.
	ProgressEvery int
	MissingField  string
	UseCRLF       bool
}

func DefaultOptions() Options {
	return Options{
		Encoding:      dbfread.AutoEncoding,
		ProgressEvery: BatchProgressEvery,
		MissingField:  MissingFieldEmpty,
		UseCRLF:       true,
	}
}

type ProgressFunc func(percent int, message string)

type Output struct {
	OutputPath string
	Records    int
}

// Convert runs the whole pipeline for one job: resolve, decode, write.
// The returned error wraps ErrInvalidInput, ErrDecode or ErrWrite. On a
// write or decode failure after the output was created the partial file is
// left on disk.
func Convert(job model.ConversionJob, opts Options, progress ProgressFunc) (Output, error) {
	outputPath, err := Resolve(job.SourcePath, job.DestinationDir)
	if err != nil {
		return Output{}, err
	}

	table, err := dbfread.Open(job.SourcePath, dbfread.OpenOptions{
		Encoding:       opts.Encoding,
		IncludeDeleted: opts.IncludeDeleted,
	})
	if err != nil {
		return Output{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return Output{}, fmt.Errorf("%w: create %s: %w", ErrWrite, outputPath, err)
	}

	n, writeErr := WriteCSV(f, table, job.SourceName(), opts, progress)
	closeErr := f.Close()
	if writeErr != nil {
		return Output{OutputPath: outputPath, Records: n}, writeErr
	}
	if closeErr != nil {
		return Output{OutputPath: outputPath, Records: n}, fmt.Errorf("%w: close %s: %w", ErrWrite, outputPath, closeErr)
	}
	return Output{OutputPath: outputPath, Records: n}, nil
}

// WriteCSV writes the header and one row per record of table to w and
// reports progress as records are written. It returns the number of data
// rows written.
func WriteCSV(w io.Writer, table dbfread.Table, name string, opts Options, progress ProgressFunc) (int, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	every := opts.ProgressEvery
	if every <= 0 {
		every = BatchProgressEvery
	}
	strict := strings.EqualFold(strings.TrimSpace(opts.MissingField), MissingFieldError)

	fields := model.FieldSchema(table.FieldNames())
	total := table.Len()

	cw := csv.NewWriter(w)
	cw.UseCRLF = opts.UseCRLF

	progress(0, fmt.Sprintf("Converting %s: Starting...", name))

	if err := cw.Write(fields); err != nil {
		return 0, fmt.Errorf("%w: write header: %w", ErrWrite, err)
	}

	row := make([]string, len(fields))
	written := 0
	for rec, err := range table.Records() {
		if err != nil {
			cw.Flush()
			return written, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
		}
		for i, f := range fields {
			v, ok := rec[f]
			if !ok && strict {
				cw.Flush()
				return written, fmt.Errorf("%w: %s: record %d has no field %q", ErrDecode, name, written+1, f)
			}
			row[i] = v
		}
		if err := cw.Write(row); err != nil {
			return written, fmt.Errorf("%w: write record %d: %w", ErrWrite, written+1, err)
		}

		i := written
		written++
		if i%every == 0 || i == total-1 {
			p := Percent(i, total)
			progress(p, fmt.Sprintf("Converting %s: %d%% complete", name, p))
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("%w: flush: %w", ErrWrite, err)
	}
	if written == 0 {
		progress(100, fmt.Sprintf("Converting %s: 100%% complete", name))
	}
	return written, nil
}

// Percent is floor((index+1)/total*100), clamped to [0,100].
func Percent(index, total int) int {
	if total <= 0 {
		return 100
	}
	p := (index + 1) * 100 / total
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}
