package batch

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"dbf-converter/internal/convert"
	"dbf-converter/internal/model"
)

// Event is one message from a running job: progress, or the terminal result
// when Result is set. A job sends exactly one terminal event and then closes
// its channel.
type Event struct {
	JobID   string
	Percent int
	Message string
	Result  *model.ConversionResult
}

func (e Event) Terminal() bool {
	return e.Result != nil
}

func (e Event) Progress() model.ProgressEvent {
	return model.ProgressEvent{JobID: e.JobID, Percent: e.Percent, Message: e.Message}
}

const eventBuffer = 64

// Start runs job on its own goroutine. The returned channel carries progress
// events followed by one terminal event; conversion errors are reported as a
// failed result, never returned.
func Start(job model.ConversionJob, opts convert.Options, logger logrus.FieldLogger) <-chan Event {
	if logger == nil {
		logger = discardLogger()
	}
	events := make(chan Event, eventBuffer)
	go func() {
		defer close(events)
		result := runJob(job, opts, logger, func(percent int, message string) {
			events <- Event{JobID: job.ID, Percent: percent, Message: message}
		})
		events <- Event{JobID: job.ID, Percent: 100, Message: LogLine(result), Result: &result}
	}()
	return events
}

func runJob(job model.ConversionJob, opts convert.Options, logger logrus.FieldLogger, progress convert.ProgressFunc) (result model.ConversionResult) {
	entry := logger.WithFields(logrus.Fields{
		"job_id": job.ID,
		"source": job.SourcePath,
	})
	entry.Debug("conversion started")

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("conversion aborted: %v", r)
			entry.WithField("error_kind", model.ErrorKindWrite).WithError(err).Error("conversion failed")
			result = model.FailedResult(job, model.ErrorKindWrite, err.Error())
		}
	}()

	out, err := convert.Convert(job, opts, progress)
	if err != nil {
		kind := convert.KindOf(err)
		entry.WithFields(logrus.Fields{
			"error_kind": kind,
			"output":     out.OutputPath,
			"records":    out.Records,
		}).WithError(err).Error("conversion failed")
		return model.FailedResult(job, kind, err.Error())
	}
	entry.WithFields(logrus.Fields{
		"output":  out.OutputPath,
		"records": out.Records,
	}).Info("conversion completed")
	return model.CompletedResult(job, out.OutputPath, out.Records)
}

// RunAll drives the queue to exhaustion from the calling goroutine: start a
// job, drain its events, record the result, then start the next one. onEvent
// sees every event, terminal ones included, in order. ctx is only checked
// between jobs; a job that has started always runs to its terminal event.
func RunAll(ctx context.Context, q *Queue, opts convert.Options, logger logrus.FieldLogger, onEvent func(Event)) Summary {
	for ctx.Err() == nil {
		job, ok := q.Next()
		if !ok {
			break
		}
		var final *model.ConversionResult
		for ev := range Start(job, opts, logger) {
			if onEvent != nil {
				onEvent(ev)
			}
			if ev.Terminal() {
				final = ev.Result
			}
		}
		if final == nil {
			r := model.FailedResult(job, model.ErrorKindWrite, "job ended without a result")
			final = &r
		}
		if err := q.Complete(*final); err != nil && logger != nil {
			logger.WithError(err).Warn("could not record job result")
		}
	}
	return q.Summary()
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
