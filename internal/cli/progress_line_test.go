package cli

import (
	"bytes"
	"strings"
	"testing"

	"dbf-converter/internal/batch"
	"dbf-converter/internal/model"
)

func TestProgressLineRedrawsOnlyOnChange(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressLine(true, &buf, 2)
	job := model.NewConversionJob("/data/a.dbf", "/out")

	for _, pct := range []int{0, 0, 50, 50, 100} {
		p.Handle(batch.Event{JobID: job.ID, Percent: pct, Message: "Converting a.dbf"})
	}
	res := model.CompletedResult(job, "/out/a.csv", 4)
	p.Handle(batch.Event{JobID: job.ID, Percent: 100, Result: &res})

	out := buf.String()
	if n := strings.Count(out, "\r\033[2K"); n != 4 {
		t.Fatalf("expected 3 redraws plus final line, got %d: %q", n, out)
	}
	if !strings.Contains(out, "[1/2]") {
		t.Fatalf("missing job counter: %q", out)
	}
	if !strings.HasSuffix(out, "✓ Converted: a.dbf → a.csv (4 records)\n") {
		t.Fatalf("unexpected final line: %q", out)
	}
}

func TestProgressLineDisabledPrintsOnlyResults(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressLine(false, &buf, 1)
	job := model.NewConversionJob("/data/a.dbf", "/out")
	p.Handle(batch.Event{JobID: job.ID, Percent: 40})
	res := model.FailedResult(job, model.ErrorKindDecode, "bad header")
	p.Handle(batch.Event{JobID: job.ID, Result: &res})

	if got := buf.String(); got != "✗ Failed: a.dbf - bad header\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(50, 10); got != "[#####.....]" {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := renderBar(150, 4); got != "[####]" {
		t.Fatalf("unexpected clamped bar %q", got)
	}
}
