package model

import (
	"path/filepath"

	"github.com/google/uuid"
)

const (
	ErrorKindInvalidInput = "invalid_input"
	ErrorKindDecode       = "decode"
	ErrorKindWrite        = "write"
)

// ConversionJob is one source file scheduled for conversion into DestinationDir.
type ConversionJob struct {
	ID             string `json:"id"`
	SourcePath     string `json:"source_path"`
	DestinationDir string `json:"destination_dir"`
	Status         string `json:"status"`
}

func NewConversionJob(sourcePath, destinationDir string) ConversionJob {
	return ConversionJob{
		ID:             uuid.NewString(),
		SourcePath:     sourcePath,
		DestinationDir: destinationDir,
		Status:         StatusPending,
	}
}

func (j ConversionJob) SourceName() string {
	return filepath.Base(j.SourcePath)
}

// ConversionResult is the terminal outcome of a job. Completed results carry
// OutputPath and Records; failed results carry Error and ErrorKind.
type ConversionResult struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	SourcePath string `json:"source_path"`
	SourceName string `json:"source_name"`
	OutputPath string `json:"output_path,omitempty"`
	Records    int    `json:"records"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
}

func (r ConversionResult) OK() bool {
	return r.Status == StatusCompleted
}

func CompletedResult(job ConversionJob, outputPath string, records int) ConversionResult {
	return ConversionResult{
		JobID:      job.ID,
		Status:     StatusCompleted,
		SourcePath: job.SourcePath,
		SourceName: job.SourceName(),
		OutputPath: outputPath,
		Records:    records,
	}
}

func FailedResult(job ConversionJob, kind, message string) ConversionResult {
	return ConversionResult{
		JobID:      job.ID,
		Status:     StatusFailed,
		SourcePath: job.SourcePath,
		SourceName: job.SourceName(),
		Error:      message,
		ErrorKind:  kind,
	}
}

type ProgressEvent struct {
	JobID   string `json:"job_id"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// FieldSchema is the ordered field list of one table; it is also the CSV
// column order.
type FieldSchema []string

// Record maps field name to its decoded text value.
type Record map[string]string
