package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dbf-converter/internal/convert"
	"dbf-converter/internal/dbfread/dbftest"
	"dbf-converter/internal/model"
)

func TestStartEmitsProgressThenOneTerminalEvent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "people.dbf")
	dbftest.WriteFile(t, src, []string{"NAME"}, [][]string{{"Alice"}, {"Bob"}, {"Carol"}})

	job := model.NewConversionJob(src, dir)
	opts := convert.DefaultOptions()
	opts.ProgressEvery = convert.SingleProgressEvery

	var events []Event
	for ev := range Start(job, opts, nil) {
		events = append(events, ev)
	}
	if len(events) < 2 {
		t.Fatalf("expected progress and terminal events, got %d", len(events))
	}
	last := events[len(events)-1]
	if !last.Terminal() || !last.Result.OK() {
		t.Fatalf("expected completed terminal event, got %+v", last)
	}
	if last.Result.Records != 3 || last.Result.OutputPath != filepath.Join(dir, "people.csv") {
		t.Fatalf("unexpected result: %+v", *last.Result)
	}
	prev := -1
	for _, ev := range events[:len(events)-1] {
		if ev.Terminal() {
			t.Fatal("terminal event before the end")
		}
		if ev.JobID != job.ID {
			t.Fatalf("event for wrong job: %s", ev.JobID)
		}
		if ev.Percent < prev {
			t.Fatalf("progress went backwards: %d after %d", ev.Percent, prev)
		}
		prev = ev.Percent
	}
	if prev != 100 {
		t.Fatalf("expected last progress 100, got %d", prev)
	}
}

func TestRunAllContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	if err := os.Mkdir(out, 0o755); err != nil {
		t.Fatal(err)
	}
	good1 := filepath.Join(dir, "first.dbf")
	bad := filepath.Join(dir, "broken.dbf")
	good2 := filepath.Join(dir, "second.dbf")
	dbftest.WriteFile(t, good1, []string{"ID"}, [][]string{{"1"}})
	if err := os.WriteFile(bad, []byte{0x03}, 0o644); err != nil {
		t.Fatal(err)
	}
	dbftest.WriteFile(t, good2, []string{"ID"}, [][]string{{"1"}, {"2"}})

	q, err := NewQueue([]string{good1, bad, good2}, out)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}

	var order []string
	summary := RunAll(context.Background(), q, convert.DefaultOptions(), nil, func(ev Event) {
		if ev.Terminal() {
			order = append(order, ev.Result.SourceName)
		}
	})

	if summary.Total != 3 || summary.Completed != 2 || summary.Failed != 1 || summary.Records != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	want := []string{"first.dbf", "broken.dbf", "second.dbf"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("jobs ran out of order: %v", order)
		}
	}
	results := q.Results()
	if results[1].ErrorKind != model.ErrorKindDecode {
		t.Fatalf("expected decode failure, got %+v", results[1])
	}
	if _, err := os.Stat(filepath.Join(out, "broken.csv")); !os.IsNotExist(err) {
		t.Fatalf("expected no output for broken source, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "second.csv")); err != nil {
		t.Fatalf("expected output after a failed job: %v", err)
	}
}

func TestRunAllStopsBetweenJobsWhenCancelled(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.dbf")
	b := filepath.Join(dir, "b.dbf")
	dbftest.WriteFile(t, a, []string{"ID"}, [][]string{{"1"}})
	dbftest.WriteFile(t, b, []string{"ID"}, [][]string{{"1"}})

	q, err := NewQueue([]string{a, b}, dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	summary := RunAll(ctx, q, convert.DefaultOptions(), nil, func(ev Event) {
		if ev.Terminal() {
			cancel()
		}
	})
	if summary.Completed != 1 || summary.Pending != 1 {
		t.Fatalf("expected first job to finish and second to stay pending: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.csv")); !os.IsNotExist(err) {
		t.Fatalf("second job ran after cancel: %v", err)
	}
}
