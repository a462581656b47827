package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"dbf-converter/internal/convert"
	"dbf-converter/internal/model"
)

// Queue holds the jobs of one batch and hands them out strictly in order.
// It is owned by a single foreground goroutine and is not safe for
// concurrent use.
type Queue struct {
	destDir string
	jobs    []model.ConversionJob
	results []model.ConversionResult
	log     []string
	index   int
	running bool
}

type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
	Records   int `json:"records"`
}

// NewQueue validates the batch before any job exists: at least one file, an
// existing output directory and existing source files. The file list is
// copied, so later edits to it do not change the batch.
func NewQueue(files []string, destDir string) (*Queue, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: please add at least one DBF file", convert.ErrInvalidInput)
	}
	destDir = strings.TrimSpace(destDir)
	if destDir == "" {
		return nil, fmt.Errorf("%w: please select an output directory", convert.ErrInvalidInput)
	}
	if err := convert.CheckDestination(destDir); err != nil {
		return nil, err
	}

	jobs := make([]model.ConversionJob, 0, len(files))
	for _, f := range files {
		if err := convert.CheckSource(f); err != nil {
			return nil, err
		}
		jobs = append(jobs, model.NewConversionJob(f, destDir))
	}
	return &Queue{destDir: destDir, jobs: jobs}, nil
}

func (q *Queue) DestinationDir() string {
	return q.destDir
}

func (q *Queue) Len() int {
	return len(q.jobs)
}

// Position is the 1-based index of the job in flight, or of the next job.
func (q *Queue) Position() int {
	return min(q.index+1, len(q.jobs))
}

func (q *Queue) Done() bool {
	return q.index >= len(q.jobs)
}

// Next marks the next pending job running and returns it. It returns false
// when the queue is exhausted or a job is already in flight.
func (q *Queue) Next() (model.ConversionJob, bool) {
	if q.running || q.Done() {
		return model.ConversionJob{}, false
	}
	job := &q.jobs[q.index]
	if err := model.TransitionJobStatus(job, model.StatusRunning); err != nil {
		return model.ConversionJob{}, false
	}
	q.running = true
	return *job, true
}

// Complete records the terminal result of the job in flight, appends its log
// line and advances to the next job.
func (q *Queue) Complete(result model.ConversionResult) error {
	if !q.running {
		return fmt.Errorf("no job in flight")
	}
	if !model.IsTerminal(result.Status) {
		return fmt.Errorf("result status %q is not terminal", result.Status)
	}
	job := &q.jobs[q.index]
	if result.JobID != job.ID {
		return fmt.Errorf("result for job %s does not match job in flight %s", result.JobID, job.ID)
	}
	if err := model.TransitionJobStatus(job, result.Status); err != nil {
		return err
	}
	q.results = append(q.results, result)
	q.log = append(q.log, LogLine(result))
	q.running = false
	q.index++
	return nil
}

func (q *Queue) Jobs() []model.ConversionJob {
	out := make([]model.ConversionJob, len(q.jobs))
	copy(out, q.jobs)
	return out
}

func (q *Queue) Results() []model.ConversionResult {
	out := make([]model.ConversionResult, len(q.results))
	copy(out, q.results)
	return out
}

// Log returns the conversion log lines, oldest first.
func (q *Queue) Log() []string {
	out := make([]string, len(q.log))
	copy(out, q.log)
	return out
}

func (q *Queue) Summary() Summary {
	s := Summary{Total: len(q.jobs)}
	for _, r := range q.results {
		if r.OK() {
			s.Completed++
			s.Records += r.Records
		} else {
			s.Failed++
		}
	}
	s.Pending = s.Total - s.Completed - s.Failed
	return s
}

func LogLine(r model.ConversionResult) string {
	if r.OK() {
		return fmt.Sprintf("✓ Converted: %s → %s", r.SourceName, filepath.Base(r.OutputPath))
	}
	return fmt.Sprintf("✗ Failed: %s - %s", r.SourceName, r.Error)
}
